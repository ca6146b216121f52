// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package ffmpeg supervises ffmpeg/ffprobe child processes for conversion,
// probing, and contact-sheet rendering.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/cats-rs/twitch-scrapurr/internal/linering"
	"github.com/cats-rs/twitch-scrapurr/internal/log"
	"github.com/cats-rs/twitch-scrapurr/internal/procgroup"
)

// Defaults resolved via PATH unless overridden.
const (
	DefaultBin      = "ffmpeg"
	DefaultProbeBin = "ffprobe"
)

// Runner executes ffmpeg commands one at a time. It holds no per-run
// state, so a single Runner serves the whole post-processing pipeline.
type Runner struct {
	bin      string
	probeBin string
	grace    time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithBin overrides the ffmpeg binary path.
func WithBin(bin string) Option {
	return func(r *Runner) {
		if bin != "" {
			r.bin = bin
		}
	}
}

// WithProbeBin overrides the ffprobe binary path.
func WithProbeBin(bin string) Option {
	return func(r *Runner) {
		if bin != "" {
			r.probeBin = bin
		}
	}
}

// WithGrace sets how long a canceled child may flush before SIGKILL.
func WithGrace(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.grace = d
		}
	}
}

func New(opts ...Option) *Runner {
	r := &Runner{
		bin:      DefaultBin,
		probeBin: DefaultProbeBin,
		grace:    10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Bin returns the configured ffmpeg binary for startup checks.
func (r *Runner) Bin() string { return r.bin }

// ProbeBin returns the configured ffprobe binary for startup checks.
func (r *Runner) ProbeBin() string { return r.probeBin }

// Run executes ffmpeg with args and blocks until it exits or ctx is
// canceled. Cancellation terminates the whole child group and surfaces
// ctx.Err so callers can tell an abort from a tool failure. Failures carry
// the stderr tail.
func (r *Runner) Run(ctx context.Context, args []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ring := linering.New(32)
	cmd := exec.Command(r.bin, args...) // #nosec G204 -- operator-supplied binary, path args
	procgroup.Set(cmd)
	cmd.Stderr = ring

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", r.bin, err)
	}

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	select {
	case err := <-waitCh:
		if err != nil {
			return fmt.Errorf("%s exited: %w (%s)", r.bin, err, ring.String())
		}
		return nil
	case <-ctx.Done():
		_ = procgroup.Terminate(cmd, waitCh, r.grace)
		return ctx.Err()
	}
}

// Convert produces an MP4 from a raw capture. The input file is left
// untouched in every outcome.
func (r *Runner) Convert(ctx context.Context, inPath, outPath string, reencode bool) error {
	logger := log.WithComponent("ffmpeg")

	mode := "remux"
	if reencode {
		mode = "reencode"
	}
	logger.Info().
		Str(log.FieldEvent, "convert.start").
		Str(log.FieldPath, inPath).
		Str("mode", mode).
		Msg("converting capture")

	start := time.Now()
	if err := r.Run(ctx, BuildConvertArgs(inPath, outPath, reencode)); err != nil {
		return fmt.Errorf("convert %s: %w", inPath, err)
	}

	logger.Info().
		Str(log.FieldEvent, "convert.done").
		Str(log.FieldPath, outPath).
		Dur("took", time.Since(start)).
		Msg("conversion finished")
	return nil
}
