// Package config loads the host policy configuration file that backs
// [undofile/pkg/undohost.PolicyHost]: the undo
// history depth, vi-compatibility flag, and the undo-file search path.
//
// Loading follows the teacher's own precedence chain: built-in defaults,
// overridden by a global config file, overridden by a project-local
// config file, overridden last by explicit CLI flags. Config files are
// TOML, decoded straight into pointer fields so an absent key is
// distinguishable from one set to its zero value.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"undofile/pkg/fs"
	"undofile/pkg/undohost"
)

// DefaultHistoryDepth is used when neither a config file nor a CLI
// override supplies one, matching [pkg/undo]'s own fallback for
// [undohost.NoLocal].
const DefaultHistoryDepth = 1000

// HistoryDepthDisabled turns undo recording off entirely.
const HistoryDepthDisabled = -1

// UseGlobalDefault is the sentinel a project-local config file can set
// explicitly to mean "inherit whatever the global config resolved to",
// mirroring spec's NO_LOCAL. It behaves identically to omitting the
// field; it exists so a project file can say so without ambiguity.
const UseGlobalDefault = undohost.NoLocal

var (
	// ErrInvalidHistoryDepth is returned when a resolved HistoryDepth is
	// neither -1, a non-negative depth, nor (mid-merge) UseGlobalDefault.
	ErrInvalidHistoryDepth = errors.New("config: invalid history depth")

	// ErrParse wraps a TOML syntax error from a config file.
	ErrParse = errors.New("config: parse")
)

// Config is the resolved host policy, after merging defaults, the
// global file, the project file, and CLI overrides.
type Config struct {
	HistoryDepth int
	ViCompatible bool
	UndoDirs     string
}

// Default returns the built-in configuration before any file or
// override is applied.
func Default() Config {
	return Config{
		HistoryDepth: DefaultHistoryDepth,
		ViCompatible: false,
		UndoDirs:     ".",
	}
}

// Validate reports whether c's HistoryDepth is a value the engine can
// actually use ([HistoryDepthDisabled] or >= 0). [UseGlobalDefault] is
// only valid inside a project file mid-merge, never in a fully resolved
// Config.
func (c Config) Validate() error {
	if c.HistoryDepth != HistoryDepthDisabled && c.HistoryDepth < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidHistoryDepth, c.HistoryDepth)
	}

	return nil
}

// fileConfig mirrors Config but with pointer fields, so a field left
// out of the TOML document is distinguishable from one explicitly set
// to its zero value.
type fileConfig struct {
	HistoryDepth *int    `toml:"historyDepth"`
	ViCompatible *bool   `toml:"viCompatible"`
	UndoDirs     *string `toml:"undoDirs"`
}

// Overrides carries CLI-flag values; a nil field means "flag not
// passed, don't override".
type Overrides = fileConfig

// Load resolves the final Config: [Default], then globalPath if it
// exists, then projectPath if it exists, then overrides. Either path
// may be empty to skip that layer. A missing file at a given path is
// not an error; a malformed one is, wrapped in [ErrParse].
func Load(fsys fs.FS, globalPath, projectPath string, overrides Overrides) (Config, error) {
	cfg := Default()

	if globalPath != "" {
		fc, err := loadFile(fsys, globalPath)
		if err != nil {
			return Config{}, err
		}

		mergeGlobal(&cfg, fc)
	}

	if projectPath != "" {
		fc, err := loadFile(fsys, projectPath)
		if err != nil {
			return Config{}, err
		}

		mergeProject(&cfg, fc)
	}

	mergeGlobal(&cfg, &overrides)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadFile reads and parses path, returning an empty fileConfig (no
// error) when the file doesn't exist.
func loadFile(fsys fs.FS, path string) (*fileConfig, error) {
	raw, err := fsys.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileConfig{}, nil
		}

		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}

	var fc fileConfig

	if _, err := toml.Decode(string(raw), &fc); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrParse, path, err)
	}

	return &fc, nil
}

// mergeGlobal applies every set field of fc onto cfg unconditionally.
func mergeGlobal(cfg *Config, fc *fileConfig) {
	if fc.HistoryDepth != nil {
		cfg.HistoryDepth = *fc.HistoryDepth
	}

	if fc.ViCompatible != nil {
		cfg.ViCompatible = *fc.ViCompatible
	}

	if fc.UndoDirs != nil {
		cfg.UndoDirs = *fc.UndoDirs
	}
}

// mergeProject is like mergeGlobal but treats an explicit
// [UseGlobalDefault] HistoryDepth the same as an absent field, so a
// project file can defer to the global value either way.
func mergeProject(cfg *Config, fc *fileConfig) {
	if fc.HistoryDepth != nil && *fc.HistoryDepth != UseGlobalDefault {
		cfg.HistoryDepth = *fc.HistoryDepth
	}

	if fc.ViCompatible != nil {
		cfg.ViCompatible = *fc.ViCompatible
	}

	if fc.UndoDirs != nil {
		cfg.UndoDirs = *fc.UndoDirs
	}
}
