// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package contactsheet renders a thumbnail grid from a finished capture:
// one JPEG with 24 frames sampled evenly across the video, for a quick
// visual scan of a multi-hour recording.
package contactsheet

import (
	"context"
	"fmt"
	"time"

	"github.com/cats-rs/twitch-scrapurr/internal/ffmpeg"
	"github.com/cats-rs/twitch-scrapurr/internal/fsutil"
	"github.com/cats-rs/twitch-scrapurr/internal/log"
)

// Sheet layout: 4 columns by 6 rows at 1500px total width.
const (
	GridColumns = 4
	GridRows    = 6
	NumSamples  = GridColumns * GridRows
	SheetWidth  = 1500
)

// OutputPath names the sheet after the video it samples.
func OutputPath(videoPath string) string {
	return fsutil.WithExt(videoPath, ".jpg")
}

// BuildSheetArgs samples NumSamples frames evenly over dur and tiles them
// into a single image. The fps filter rate is samples-per-second, so a
// whole-video spread is NumSamples divided by the duration.
func BuildSheetArgs(inPath, outPath string, dur time.Duration) []string {
	rate := float64(NumSamples) / dur.Seconds()
	vf := fmt.Sprintf("fps=%.6f,scale=%d:-1,tile=%dx%d",
		rate, SheetWidth/GridColumns, GridColumns, GridRows)

	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
		"-i", inPath,
		"-vf", vf,
		"-frames:v", "1",
		"-q:v", "3",
		"-y", outPath,
	}
}

// Generator renders contact sheets through an ffmpeg runner.
type Generator struct {
	ff *ffmpeg.Runner
}

func New(ff *ffmpeg.Runner) *Generator {
	return &Generator{ff: ff}
}

// Generate probes the video's duration, renders the sheet next to it, and
// returns the sheet path.
func (g *Generator) Generate(ctx context.Context, videoPath string) (string, error) {
	logger := log.WithComponent("contactsheet")

	dur, err := g.ff.ProbeDuration(ctx, videoPath)
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", videoPath, err)
	}

	outPath := OutputPath(videoPath)
	logger.Info().
		Str(log.FieldEvent, "sheet.start").
		Str(log.FieldPath, videoPath).
		Dur("video_duration", dur).
		Msg("rendering contact sheet")

	if err := g.ff.Run(ctx, BuildSheetArgs(videoPath, outPath, dur)); err != nil {
		return "", fmt.Errorf("render sheet for %s: %w", videoPath, err)
	}

	logger.Info().
		Str(log.FieldEvent, "sheet.done").
		Str(log.FieldPath, outPath).
		Msg("contact sheet written")
	return outPath, nil
}
