// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package config owns the persisted settings file. The file is created on
// first run, read once at startup, and never reloaded: the process owns it
// for its whole lifetime.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Settings is the on-disk configuration. Field names mirror the TOML keys;
// all keys are required when the file exists.
type Settings struct {
	OutputDirectory      string `toml:"output_directory"`
	ConvertToMP4         bool   `toml:"convert_to_mp4"`
	UseFFmpegConvert     bool   `toml:"use_ffmpeg_convert"`
	GenerateContactSheet bool   `toml:"generate_contact_sheet"`
	CheckIntervalSeconds int    `toml:"check_interval"`
}

// requiredKeys lists every key a loaded file must define. Order matters only
// for error messages.
var requiredKeys = []string{
	"output_directory",
	"convert_to_mp4",
	"use_ffmpeg_convert",
	"generate_contact_sheet",
	"check_interval",
}

// Defaults returns the settings written on first run. Only the output
// directory comes from the user; everything else starts enabled with a
// one-minute poll interval.
func Defaults(outputDirectory string) Settings {
	return Settings{
		OutputDirectory:      outputDirectory,
		ConvertToMP4:         true,
		UseFFmpegConvert:     true,
		GenerateContactSheet: true,
		CheckIntervalSeconds: 60,
	}
}

// CheckInterval returns the poll interval as a duration.
func (s Settings) CheckInterval() time.Duration {
	return time.Duration(s.CheckIntervalSeconds) * time.Second
}

// Validate rejects settings that would make the record loop misbehave.
func (s Settings) Validate() error {
	var errs []error
	if s.OutputDirectory == "" {
		errs = append(errs, errors.New("output_directory must not be empty"))
	}
	if s.CheckIntervalSeconds < 1 {
		errs = append(errs, fmt.Errorf("check_interval must be at least 1 second, got %d", s.CheckIntervalSeconds))
	}
	return errors.Join(errs...)
}
