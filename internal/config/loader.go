// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/cats-rs/twitch-scrapurr/internal/fsutil"
	"github.com/cats-rs/twitch-scrapurr/internal/log"
	"github.com/cats-rs/twitch-scrapurr/internal/prompt"
)

// ErrMissingKey classifies a config file that exists but lacks a required
// key. Use errors.Is; the wrapping ParseError carries the key name.
var ErrMissingKey = errors.New("missing required config key")

// ParseError is fatal at startup: a present-but-broken file is never
// auto-repaired, the user has to fix or delete it.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse config %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Loader reads or initializes the settings file at a fixed path.
type Loader struct {
	path      string
	promptIn  io.Reader
	promptOut io.Writer
}

// NewLoader returns a loader for path. The prompt streams are used only
// when the file does not exist yet and the user must supply an output
// directory.
func NewLoader(path string, promptIn io.Reader, promptOut io.Writer) *Loader {
	return &Loader{path: path, promptIn: promptIn, promptOut: promptOut}
}

// LoadOrInit loads the settings file, creating it with defaults on first
// run. A present file is parsed strictly: missing keys and wrong types are
// fatal ParseErrors, unknown keys are ignored. The output directory is
// created as part of first-run initialization.
func (l *Loader) LoadOrInit() (Settings, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return l.init()
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read config %s: %w", l.path, err)
	}

	var s Settings
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return Settings{}, &ParseError{Path: l.path, Err: err}
	}
	for _, key := range requiredKeys {
		if !md.IsDefined(key) {
			return Settings{}, &ParseError{Path: l.path, Err: fmt.Errorf("%w: %s", ErrMissingKey, key)}
		}
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		logger := log.WithComponent("config")
		logger.Debug().
			Strs("keys", keys).
			Str(log.FieldPath, l.path).
			Msg("ignoring unknown config keys")
	}

	if err := s.Validate(); err != nil {
		return Settings{}, &ParseError{Path: l.path, Err: err}
	}
	return s, nil
}

// init runs the first-run flow: prompt for the output directory, persist
// defaults, create the directory.
func (l *Loader) init() (Settings, error) {
	logger := log.WithComponent("config")
	logger.Info().Str(log.FieldPath, l.path).Msg("no config file found, creating one")

	dir, err := prompt.Line(l.promptIn, l.promptOut, "Output directory for recordings")
	if err != nil {
		return Settings{}, fmt.Errorf("ask output directory: %w", err)
	}
	if dir == "" {
		return Settings{}, errors.New("output directory must not be empty")
	}

	s := Defaults(dir)
	if err := Save(l.path, s); err != nil {
		return Settings{}, err
	}
	if err := fsutil.EnsureDir(s.OutputDirectory); err != nil {
		return Settings{}, fmt.Errorf("create output directory: %w", err)
	}

	logger.Info().
		Str(log.FieldPath, l.path).
		Str("output_directory", s.OutputDirectory).
		Msg("config file written")
	return s, nil
}
