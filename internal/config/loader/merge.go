package loader

// DeepMerge merges src into a copy of dst. Nested tables are merged
// recursively; any other value in src replaces the one in dst.
func DeepMerge(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = cloneValue(v)
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = DeepMerge(dstMap, srcMap)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return DeepMerge(nil, val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// GetByPath retrieves a value from nested maps using a dot-separated path.
func GetByPath(data map[string]any, path string) (any, bool) {
	var current any = data
	start := 0
	for i := 0; i <= len(path); i++ {
		if i < len(path) && path[i] != '.' {
			continue
		}
		m, ok := current.(map[string]any)
		if !ok || i == start {
			return nil, false
		}
		current, ok = m[path[start:i]]
		if !ok {
			return nil, false
		}
		start = i + 1
	}
	return current, true
}
