// Package config loads the quill.toml project manifest.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"quill/internal/target"
)

// FileName is the manifest looked up by Find.
const FileName = "quill.toml"

// Emit formats accepted by [output].format.
const (
	EmitText = "text"
	EmitBin  = "bin"
)

type fileConfig struct {
	Target targetConfig `toml:"target"`
	Limits limitsConfig `toml:"limits"`
	Output outputConfig `toml:"output"`
	Cache  cacheConfig  `toml:"cache"`
}

type targetConfig struct {
	Profile      string   `toml:"profile"`
	Capabilities []string `toml:"capabilities"`
}

type limitsConfig struct {
	MaxCallDepth      int `toml:"max_call_depth"`
	MaxLoopIterations int `toml:"max_loop_iterations"`
}

type outputConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

type cacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Config is a resolved manifest. Zero limits mean the compiler defaults.
type Config struct {
	Path string // manifest path, empty for defaults
	Root string

	Profile      target.Profile
	Capabilities target.Capabilities

	MaxCallDepth      int
	MaxLoopIterations int

	OutputDir string
	Emit      string

	CacheEnabled bool
	CacheDir     string // empty selects the user cache directory
}

// Default returns the configuration used without a manifest.
func Default() *Config {
	return &Config{
		Profile:      target.AdaptiveRI,
		Capabilities: target.AdaptiveRI.Capabilities(),
		OutputDir:    ".",
		Emit:         EmitText,
		CacheEnabled: true,
	}
}

// Find walks up from startDir looking for quill.toml.
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
			break
		}
		dir = parent
	}
	return "", false, nil
}

// Load decodes the manifest at path. Keys it does not set keep their
// defaults; relative directories resolve against the manifest directory.
func Load(path string) (*Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}

	cfg := Default()
	cfg.Path = path
	cfg.Root = filepath.Dir(path)

	if meta.IsDefined("target", "profile") {
		if cfg.Profile, err = target.ParseProfile(strings.TrimSpace(raw.Target.Profile)); err != nil {
			return nil, fmt.Errorf("%s: [target].profile: %w", path, err)
		}
		cfg.Capabilities = cfg.Profile.Capabilities()
	}
	if meta.IsDefined("target", "capabilities") {
		caps, err := target.ParseCapabilities(strings.Join(raw.Target.Capabilities, ","))
		if err != nil {
			return nil, fmt.Errorf("%s: [target].capabilities: %w", path, err)
		}
		cfg.Capabilities = caps
	}

	if meta.IsDefined("limits", "max_call_depth") {
		if raw.Limits.MaxCallDepth <= 0 {
			return nil, fmt.Errorf("%s: [limits].max_call_depth must be positive", path)
		}
		cfg.MaxCallDepth = raw.Limits.MaxCallDepth
	}
	if meta.IsDefined("limits", "max_loop_iterations") {
		if raw.Limits.MaxLoopIterations <= 0 {
			return nil, fmt.Errorf("%s: [limits].max_loop_iterations must be positive", path)
		}
		cfg.MaxLoopIterations = raw.Limits.MaxLoopIterations
	}

	if meta.IsDefined("output", "dir") {
		cfg.OutputDir = cfg.resolve(raw.Output.Dir)
	}
	if meta.IsDefined("output", "format") {
		if cfg.Emit, err = ParseEmit(raw.Output.Format); err != nil {
			return nil, fmt.Errorf("%s: [output].format: %w", path, err)
		}
	}

	if meta.IsDefined("cache", "enabled") {
		cfg.CacheEnabled = raw.Cache.Enabled
	}
	if meta.IsDefined("cache", "dir") {
		cfg.CacheDir = cfg.resolve(raw.Cache.Dir)
	}
	return cfg, nil
}

// Discover loads the manifest above startDir, or the defaults if there is
// none.
func Discover(startDir string) (*Config, error) {
	path, ok, err := Find(startDir)
	if err != nil {
		return nil, err
	}
	if !ok {
		return Default(), nil
	}
	return Load(path)
}

// ParseEmit validates an output format name.
func ParseEmit(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case EmitText, EmitBin:
		return v, nil
	default:
		return "", fmt.Errorf("unknown emit format %q (expected %s|%s)", s, EmitText, EmitBin)
	}
}

func (c *Config) resolve(dir string) string {
	dir = strings.TrimSpace(dir)
	if dir == "" || filepath.IsAbs(dir) || c.Root == "" {
		return dir
	}
	return filepath.Join(c.Root, filepath.FromSlash(dir))
}
