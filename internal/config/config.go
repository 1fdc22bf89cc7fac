// Package config loads viperrt.toml, the host configuration for the
// runtime CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"viper/internal/trace"
)

// FileName is the configuration file looked up from the working
// directory upwards.
const FileName = "viperrt.toml"

// Config mirrors the sections of viperrt.toml.
type Config struct {
	Trace   TraceConfig   `toml:"trace"`
	Heap    HeapConfig    `toml:"heap"`
	Stress  StressConfig  `toml:"stress"`
	Context ContextConfig `toml:"context"`

	// Path is the file the configuration came from, empty for defaults.
	Path string `toml:"-"`
}

type TraceConfig struct {
	Level    string `toml:"level"`
	Mode     string `toml:"mode"`
	Output   string `toml:"output"`
	Format   string `toml:"format"`
	RingSize int    `toml:"ring_size"`
}

type HeapConfig struct {
	// AllocLimit caps live heap bytes through the limiting alloc hook.
	// Zero means unlimited.
	AllocLimit int64 `toml:"alloc_limit"`
	LeakCheck  bool  `toml:"leak_check"`
}

type StressConfig struct {
	Workers    int `toml:"workers"`
	Iterations int `toml:"iterations"`
	Contexts   int `toml:"contexts"`
}

type ContextConfig struct {
	RNGSeed uint64 `toml:"rng_seed"`
}

// Default returns the configuration used when no file is found.
func Default() Config {
	return Config{
		Trace:  TraceConfig{Level: "off", Mode: "stream", Format: "auto", RingSize: 4096},
		Stress: StressConfig{Workers: 8, Iterations: 10000, Contexts: 4},
	}
}

// Find walks from startDir towards the filesystem root looking for
// FileName.
func Find(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false, nil
		}
		dir = parent
	}
}

// Load reads path, or searches from the working directory when path is
// empty. A missing file yields Default.
func Load(path string) (Config, error) {
	if path == "" {
		found, ok, err := Find(".")
		if err != nil {
			return Config{}, err
		}
		if !ok {
			return Default(), nil
		}
		path = found
	}
	return LoadFile(path)
}

// LoadFile decodes path over the defaults and validates the result.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if _, err := trace.ParseLevel(c.Trace.Level); err != nil {
		errs = append(errs, fmt.Errorf("[trace].level: %w", err))
	}
	if _, err := trace.ParseMode(c.Trace.Mode); err != nil {
		errs = append(errs, fmt.Errorf("[trace].mode: %w", err))
	}
	if _, err := trace.ParseFormat(c.Trace.Format); err != nil {
		errs = append(errs, fmt.Errorf("[trace].format: %w", err))
	}
	if c.Trace.RingSize < 0 {
		errs = append(errs, fmt.Errorf("[trace].ring_size must be >= 0 (got %d)", c.Trace.RingSize))
	}
	if c.Heap.AllocLimit < 0 {
		errs = append(errs, fmt.Errorf("[heap].alloc_limit must be >= 0 (got %d)", c.Heap.AllocLimit))
	}
	if c.Stress.Workers <= 0 {
		errs = append(errs, fmt.Errorf("[stress].workers must be > 0 (got %d)", c.Stress.Workers))
	}
	if c.Stress.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("[stress].iterations must be > 0 (got %d)", c.Stress.Iterations))
	}
	if c.Stress.Contexts <= 0 {
		errs = append(errs, fmt.Errorf("[stress].contexts must be > 0 (got %d)", c.Stress.Contexts))
	}
	return errors.Join(errs...)
}

// TracerConfig converts the [trace] section into a tracer configuration.
func (c Config) TracerConfig() (trace.Config, error) {
	level, err := trace.ParseLevel(c.Trace.Level)
	if err != nil {
		return trace.Config{}, err
	}
	mode, err := trace.ParseMode(c.Trace.Mode)
	if err != nil {
		return trace.Config{}, err
	}
	format, err := trace.ParseFormat(c.Trace.Format)
	if err != nil {
		return trace.Config{}, err
	}
	return trace.Config{
		Level:      level,
		Mode:       mode,
		Format:     format,
		OutputPath: c.Trace.Output,
		RingSize:   c.Trace.RingSize,
	}, nil
}
