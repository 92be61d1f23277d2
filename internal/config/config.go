package config

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/dshills/buffercore/internal/config/loader"
	"github.com/dshills/buffercore/internal/logging"
)

// Setting paths.
const (
	PathMergeAdjacentChanges = "patch.merge_adjacent_changes"
	PathMarkerSeed           = "markers.seed"
	PathLogLevel             = "log.level"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BUFFERCORE_"

// Config holds the merged configuration.
type Config struct {
	mu sync.RWMutex

	fs      loader.FileSystem
	path    string
	env     *loader.EnvLoader
	dotEnv  string
	useEnv  bool
	data    map[string]any
	sources []string
}

// Option configures a Config during creation.
type Option func(*Config)

// WithFile sets the configuration file to read. The format follows the
// file extension.
func WithFile(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithFileSystem replaces the file system used to read the configuration file.
func WithFileSystem(fs loader.FileSystem) Option {
	return func(c *Config) {
		if fs != nil {
			c.fs = fs
		}
	}
}

// WithEnv enables or disables environment overrides.
func WithEnv(enable bool) Option {
	return func(c *Config) {
		c.useEnv = enable
	}
}

// WithDotEnv reads prefixed variables from a .env file. They override the
// configuration file and are overridden by the process environment.
func WithDotEnv(path string) Option {
	return func(c *Config) {
		c.dotEnv = path
	}
}

// WithEnvLoader replaces the environment loader.
func WithEnvLoader(l *loader.EnvLoader) Option {
	return func(c *Config) {
		if l != nil {
			c.env = l
		}
	}
}

// New creates a Config holding only the defaults. Call Load to read the
// file and environment.
func New(opts ...Option) *Config {
	c := &Config{
		fs:      loader.DefaultFS(),
		env:     loader.NewEnvLoader(EnvPrefix),
		useEnv:  true,
		data:    defaultConfig(),
		sources: []string{"defaults"},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads all sources and replaces the merged configuration. On error the
// previous configuration is kept.
func (c *Config) Load(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	merged := defaultConfig()
	sources := []string{"defaults"}

	if c.path != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := loader.ForPath(c.fs, c.path).Load()
		if err != nil {
			return fmt.Errorf("loading %s: %w", c.path, err)
		}
		if data != nil {
			merged = loader.DeepMerge(merged, data)
			sources = append(sources, c.path)
		}
	}

	if c.dotEnv != "" {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := loader.NewDotEnvLoader(c.dotEnv, EnvPrefix).WithFS(c.fs).Load()
		if err != nil {
			return fmt.Errorf("loading %s: %w", c.dotEnv, err)
		}
		if len(data) > 0 {
			merged = loader.DeepMerge(merged, data)
			sources = append(sources, c.dotEnv)
		}
	}

	if c.useEnv {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := c.env.Load()
		if err != nil {
			return fmt.Errorf("loading environment: %w", err)
		}
		if len(data) > 0 {
			merged = loader.DeepMerge(merged, data)
			sources = append(sources, "environment")
		}
	}

	c.data = merged
	c.sources = sources
	return nil
}

// Sources lists the sources merged by the last Load, lowest priority first.
func (c *Config) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.sources...)
}

// Get returns the value at the given path from the merged configuration.
func (c *Config) Get(path string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return loader.GetByPath(c.data, path)
}

// GetString returns a string value at the given path.
func (c *Config) GetString(path string) (string, error) {
	v, ok := c.Get(path)
	if !ok {
		return "", fmt.Errorf("%s: %w", path, ErrSettingNotFound)
	}
	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Expected: "string", Actual: typeName(v)}
	}
	return s, nil
}

// GetInt returns an integer value at the given path.
func (c *Config) GetInt(path string) (int64, error) {
	v, ok := c.Get(path)
	if !ok {
		return 0, fmt.Errorf("%s: %w", path, ErrSettingNotFound)
	}
	switch val := v.(type) {
	case int:
		return int64(val), nil
	case int64:
		return val, nil
	case uint64:
		if val > math.MaxInt64 {
			return 0, &TypeError{Path: path, Expected: "int", Actual: "uint64"}
		}
		return int64(val), nil
	case float64:
		if val != math.Trunc(val) {
			return 0, &TypeError{Path: path, Expected: "int", Actual: "float64"}
		}
		return int64(val), nil
	default:
		return 0, &TypeError{Path: path, Expected: "int", Actual: typeName(v)}
	}
}

// GetBool returns a boolean value at the given path.
func (c *Config) GetBool(path string) (bool, error) {
	v, ok := c.Get(path)
	if !ok {
		return false, fmt.Errorf("%s: %w", path, ErrSettingNotFound)
	}
	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Expected: "bool", Actual: typeName(v)}
	}
	return b, nil
}

// Set overrides the value at path until the next Load.
func (c *Config) Set(path string, value any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return setPath(c.data, path, value)
}

// Settings is the validated, typed view of the configuration.
type Settings struct {
	MergeAdjacentChanges bool
	MarkerSeed           uint32
	LogLevel             logging.Level
}

// Settings validates and returns the typed configuration.
func (c *Config) Settings() (Settings, error) {
	var s Settings
	var err error

	if s.MergeAdjacentChanges, err = c.GetBool(PathMergeAdjacentChanges); err != nil {
		return Settings{}, err
	}

	seed, err := c.GetInt(PathMarkerSeed)
	if err != nil {
		return Settings{}, err
	}
	if seed < 0 || seed > math.MaxUint32 {
		return Settings{}, &ValidationError{Path: PathMarkerSeed, Message: "must fit in 32 unsigned bits", Value: seed}
	}
	s.MarkerSeed = uint32(seed)

	level, err := c.GetString(PathLogLevel)
	if err != nil {
		return Settings{}, err
	}
	var ok bool
	if s.LogLevel, ok = logging.ParseLevel(level); !ok {
		return Settings{}, &ValidationError{Path: PathLogLevel, Message: "unknown log level", Value: level}
	}

	return s, nil
}

func defaultConfig() map[string]any {
	return map[string]any{
		"patch": map[string]any{
			"merge_adjacent_changes": true,
		},
		"markers": map[string]any{
			"seed": int64(0),
		},
		"log": map[string]any{
			"level": "info",
		},
	}
}

// setPath sets a value in a nested map using a dot-separated path.
func setPath(m map[string]any, path string, value any) error {
	parts := strings.Split(path, ".")
	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("%q: %w", path, ErrInvalidPath)
		}
	}

	current := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part]
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		nextMap, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%q: %w", path, ErrInvalidPath)
		}
		current = nextMap
	}
	current[parts[len(parts)-1]] = value
	return nil
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
