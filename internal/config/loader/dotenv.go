package loader

import (
	"bytes"

	"github.com/joho/godotenv"
)

// DotEnvLoader reads prefixed variables from a .env file. Variables are
// mapped to configuration paths the same way EnvLoader maps the process
// environment.
type DotEnvLoader struct {
	path    string
	prefix  string
	mapping map[string]string
	fs      FileSystem
}

// NewDotEnvLoader creates a loader for the .env file at path.
func NewDotEnvLoader(path, prefix string) *DotEnvLoader {
	return &DotEnvLoader{
		path:    path,
		prefix:  prefix,
		mapping: defaultEnvMapping(),
		fs:      DefaultFS(),
	}
}

// WithFS replaces the file system.
func (l *DotEnvLoader) WithFS(fsys FileSystem) *DotEnvLoader {
	if fsys != nil {
		l.fs = fsys
	}
	return l
}

// Path returns the file read by Load.
func (l *DotEnvLoader) Path() string {
	return l.path
}

// Load parses the file. A missing file yields nil, nil.
func (l *DotEnvLoader) Load() (map[string]any, error) {
	data, err := readFile(l.fs, l.path)
	if err != nil || data == nil {
		return nil, err
	}
	vars, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &ParseError{Path: l.path, Message: err.Error(), Err: err}
	}
	return envFromVars(l.prefix, l.mapping, vars).Load()
}

// envFromVars returns an EnvLoader reading vars instead of the process
// environment.
func envFromVars(prefix string, mapping map[string]string, vars map[string]string) *EnvLoader {
	l := NewEnvLoaderWithMapping(prefix, mapping)
	l.lookup = func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
	l.environ = func() []string {
		out := make([]string, 0, len(vars))
		for k, v := range vars {
			out = append(out, k+"="+v)
		}
		return out
	}
	return l
}
