package config

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"undofile/pkg/fs"
)

// Save serializes cfg as TOML and writes it to path via a
// temp-file-then-rename, so a crash mid-write never leaves a config
// file half-written. Unlike [pkg/undofile.Writer], this always targets
// the real filesystem: the config file is small, host-local, and not
// exercised by the chaos-injection tests [pkg/undofile]'s writer needs.
func Save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	var buf bytes.Buffer

	doc := struct {
		HistoryDepth int    `toml:"historyDepth"`
		ViCompatible bool   `toml:"viCompatible"`
		UndoDirs     string `toml:"undoDirs"`
	}{cfg.HistoryDepth, cfg.ViCompatible, cfg.UndoDirs}

	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	writer := fs.NewAtomicWriter(fs.NewReal())

	if err := writer.WriteWithDefaults(path, &buf); err != nil {
		return fmt.Errorf("config: save %q: %w", path, err)
	}

	return nil
}
