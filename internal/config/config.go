// Package config holds VM tuning knobs, loadable from an optional YAML
// file (by default loxvm.yaml in the current working directory).
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// SourceFileExt is the canonical extension for loxvm source files.
const SourceFileExt = ".lox"

// Defaults: 64 call frames, 256 initial value-stack slots.
const (
	DefaultMaxFrames        = 64
	DefaultInitialStackSize = 256
)

// Config holds the knobs loadable from an optional loxvm.yaml (read from
// the current working directory unless --config names another path). Every field falls back to its default when the file is
// absent or a key is omitted.
type Config struct {
	MaxFrames        int  `yaml:"max_frames"`
	InitialStackSize int  `yaml:"initial_stack_size"`
	Trace            bool `yaml:"trace"`
}

// Default returns the hardcoded baseline tuning.
func Default() Config {
	return Config{
		MaxFrames:        DefaultMaxFrames,
		InitialStackSize: DefaultInitialStackSize,
	}
}

// Load reads path (typically "loxvm.yaml") and overlays it onto Default().
// A missing file is not an error — it just means the defaults apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TrimSourceExt strips SourceFileExt from name if present.
func TrimSourceExt(name string) string {
	if len(name) > len(SourceFileExt) && name[len(name)-len(SourceFileExt):] == SourceFileExt {
		return name[:len(name)-len(SourceFileExt)]
	}
	return name
}

// HasSourceExt reports whether path ends with SourceFileExt.
func HasSourceExt(path string) bool {
	return len(path) >= len(SourceFileExt) && path[len(path)-len(SourceFileExt):] == SourceFileExt
}
