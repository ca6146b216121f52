// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package postprocess runs the optional conversion and contact-sheet
// steps on a finished capture. Both steps are best-effort: a tool failure
// is logged and the run continues, and the raw .ts artifact is never
// deleted no matter what happens downstream.
package postprocess

import (
	"context"

	"github.com/cats-rs/twitch-scrapurr/internal/config"
	"github.com/cats-rs/twitch-scrapurr/internal/fsutil"
	"github.com/cats-rs/twitch-scrapurr/internal/log"
)

// Converter produces an MP4 from a raw capture.
type Converter interface {
	Convert(ctx context.Context, inPath, outPath string, reencode bool) error
}

// SheetMaker renders a thumbnail grid next to a video file.
type SheetMaker interface {
	Generate(ctx context.Context, videoPath string) (string, error)
}

// Result reports what the pipeline produced. Paths are empty when the
// corresponding step was disabled, skipped, or failed.
type Result struct {
	Skipped    bool
	MP4Path    string
	SheetPath  string
	ConvertErr error
	SheetErr   error
}

// Pipeline applies the configured post-processing steps in order:
// convert first, then the contact sheet from the best artifact available.
type Pipeline struct {
	convert   bool
	reencode  bool
	sheet     bool
	converter Converter
	sheets    SheetMaker
}

// New wires a pipeline from the settings flags and the real tools.
func New(cfg config.Settings, converter Converter, sheets SheetMaker) *Pipeline {
	return &Pipeline{
		convert:   cfg.ConvertToMP4,
		reencode:  cfg.UseFFmpegConvert,
		sheet:     cfg.GenerateContactSheet,
		converter: converter,
		sheets:    sheets,
	}
}

// Run post-processes the capture at tsPath. An absent or empty artifact
// skips everything; otherwise each enabled step runs exactly once, in
// order, regardless of how the capture ended. The sheet samples the MP4
// when conversion produced one, else the raw capture.
func (p *Pipeline) Run(ctx context.Context, tsPath string) Result {
	logger := log.WithComponent("postprocess")

	if fsutil.FileSize(tsPath) == 0 {
		logger.Info().
			Str(log.FieldEvent, "pipeline.skip").
			Str(log.FieldPath, tsPath).
			Msg("artifact empty or missing, nothing to process")
		return Result{Skipped: true}
	}

	var res Result
	sheetSource := tsPath

	if p.convert {
		outPath := fsutil.WithExt(tsPath, ".mp4")
		if err := p.converter.Convert(ctx, tsPath, outPath, p.reencode); err != nil {
			res.ConvertErr = err
			logger.Warn().
				Str(log.FieldEvent, "convert.failed").
				Str(log.FieldPath, tsPath).
				Err(err).
				Msg("conversion failed, raw capture retained")
		} else {
			res.MP4Path = outPath
			sheetSource = outPath
		}
	}

	if p.sheet {
		sheetPath, err := p.sheets.Generate(ctx, sheetSource)
		if err != nil {
			res.SheetErr = err
			logger.Warn().
				Str(log.FieldEvent, "sheet.failed").
				Str(log.FieldPath, sheetSource).
				Err(err).
				Msg("contact sheet generation failed")
		} else {
			res.SheetPath = sheetPath
		}
	}

	return res
}
