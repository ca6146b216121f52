// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/google/renameio/v2"
)

// EnvConfigDir overrides the directory holding config.toml. Mainly for
// tests and unusual setups; the default is the platform user config dir.
const EnvConfigDir = "SCRAPURR_CONFIG_DIR"

// DefaultPath resolves the settings file location:
// $SCRAPURR_CONFIG_DIR/config.toml when set, otherwise
// <user config dir>/scrapurr/config.toml.
func DefaultPath() (string, error) {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return filepath.Join(dir, "config.toml"), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "scrapurr", "config.toml"), nil
}

// Save writes settings to path atomically. The parent directory is created
// if needed; a crash mid-write never leaves a truncated config behind.
func Save(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending config file: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if err := toml.NewEncoder(pending).Encode(s); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	return nil
}
