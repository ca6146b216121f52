// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package validation runs pre-flight checks so a missing tool or an
// unwritable output directory fails at startup instead of hours later
// when a stream finally goes live.
package validation

import (
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/cats-rs/twitch-scrapurr/internal/config"
	"github.com/cats-rs/twitch-scrapurr/internal/fsutil"
	"github.com/cats-rs/twitch-scrapurr/internal/log"
)

// Tools names the external binaries the run will invoke.
type Tools struct {
	Streamlink string
	FFmpeg     string
	FFprobe    string
}

// PerformStartupChecks validates the output directory and resolves every
// external tool the configured flags will need. Any failure is fatal.
func PerformStartupChecks(cfg config.Settings, outputDir string, tools Tools) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkOutputDir(logger, outputDir); err != nil {
		return fmt.Errorf("output directory check failed: %w", err)
	}

	if err := checkTool(logger, tools.Streamlink); err != nil {
		return err
	}
	if cfg.ConvertToMP4 || cfg.GenerateContactSheet {
		if err := checkTool(logger, tools.FFmpeg); err != nil {
			return err
		}
	}
	if cfg.GenerateContactSheet {
		if err := checkTool(logger, tools.FFprobe); err != nil {
			return err
		}
	}

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkOutputDir(logger zerolog.Logger, path string) error {
	if err := fsutil.EnsureDir(path); err != nil {
		return err
	}
	if err := fsutil.CheckWritable(path); err != nil {
		return err
	}
	logger.Info().Str(log.FieldPath, path).Msg("output directory is writable")
	return nil
}

func checkTool(logger zerolog.Logger, bin string) error {
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("required tool %q not found: %w", bin, err)
	}
	logger.Info().
		Str(log.FieldTool, bin).
		Str(log.FieldPath, resolved).
		Msg("tool resolved")
	return nil
}
