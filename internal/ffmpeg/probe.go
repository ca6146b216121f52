// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

package ffmpeg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ProbeDuration reads a media file's container duration via ffprobe.
func (r *Runner) ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-print_format", "json",
		"-show_entries", "format=duration",
		"-i", path,
	}

	cmd := exec.CommandContext(ctx, r.probeBin, args...) // #nosec G204 -- operator-supplied binary, path arg
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var data struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &data); err != nil {
		return 0, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if data.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration for %s", path)
	}

	seconds, err := strconv.ParseFloat(data.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", data.Format.Duration, err)
	}
	if seconds <= 0 {
		return 0, fmt.Errorf("non-positive duration %v for %s", seconds, path)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
