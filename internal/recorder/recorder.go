// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package recorder drives one session end to end: poll a channel until it
// goes live, supervise the capture, and hand the artifact to
// post-processing — or, in download mode, fetch a single VOD/clip. The
// session observes cancellation cooperatively; an interrupt that stops a
// running capture still lets post-processing finish.
package recorder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cats-rs/twitch-scrapurr/internal/config"
	"github.com/cats-rs/twitch-scrapurr/internal/fsutil"
	"github.com/cats-rs/twitch-scrapurr/internal/log"
	"github.com/cats-rs/twitch-scrapurr/internal/postprocess"
	"github.com/cats-rs/twitch-scrapurr/internal/streamlink"
	"github.com/cats-rs/twitch-scrapurr/internal/target"
)

// Prober answers whether a channel is currently broadcasting.
type Prober interface {
	IsLive(ctx context.Context, streamURL string) (bool, error)
}

// Capturer supervises one external capture run to completion.
type Capturer interface {
	Capture(ctx context.Context, args []string, outputPath string) streamlink.Result
}

// PostProcessor consumes a finished capture artifact.
type PostProcessor interface {
	Run(ctx context.Context, tsPath string) postprocess.Result
}

// Clock abstracts time for the poll loop so cadence is testable.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time                         { return time.Now() }
func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// notifyFunc re-arms interrupt delivery for the post-processing phase.
type notifyFunc func(parent context.Context) (context.Context, context.CancelFunc)

func signalNotify(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Session runs one invocation's record or download flow.
type Session struct {
	cfg       config.Settings
	outputDir string
	prober    Prober
	capturer  Capturer
	pipeline  PostProcessor
	clock     Clock
	notify    notifyFunc
}

// Option configures a Session.
type Option func(*Session)

// WithClock substitutes the time source.
func WithClock(c Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithNotify substitutes the interrupt re-arm used during post-processing.
func WithNotify(fn notifyFunc) Option {
	return func(s *Session) {
		if fn != nil {
			s.notify = fn
		}
	}
}

// New wires a session. outputDir is the already-resolved output directory
// (config value or -o override).
func New(cfg config.Settings, outputDir string, prober Prober, capturer Capturer, pipeline PostProcessor, opts ...Option) *Session {
	s := &Session{
		cfg:       cfg,
		outputDir: outputDir,
		prober:    prober,
		capturer:  capturer,
		pipeline:  pipeline,
		clock:     systemClock{},
		notify:    signalNotify,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Record polls ch until it goes live, captures the broadcast, processes
// the artifact, and goes back to polling for the next one. Only
// cancellation ends the loop; probe failures are logged and count as
// offline. Returns nil on a graceful interrupt.
func (s *Session) Record(ctx context.Context, ch target.Channel) error {
	logger := log.WithComponent("recorder").With().Str(log.FieldChannel, ch.Name).Logger()

	if err := fsutil.EnsureDir(ch.VODDir(s.outputDir)); err != nil {
		return fmt.Errorf("prepare recording directory: %w", err)
	}

	logger.Info().
		Str(log.FieldEvent, "watch.start").
		Dur("check_interval", s.cfg.CheckInterval()).
		Msg("watching channel for live status")

	for {
		if ctx.Err() != nil {
			return nil
		}

		live, err := s.prober.IsLive(ctx, ch.URL())
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn().
				Str(log.FieldEvent, "probe.error").
				Err(err).
				Msg("live probe failed, treating channel as offline")
		}

		if live {
			s.captureBroadcast(ctx, logger, ch)
			if ctx.Err() != nil {
				// The capture was interrupted and post-processing has
				// already run; the session is over.
				return nil
			}
			logger.Info().
				Str(log.FieldEvent, "watch.resume").
				Msg("waiting before checking for the next broadcast")
		} else {
			logger.Info().
				Str(log.FieldEvent, "watch.offline").
				Dur("next_check_in", s.cfg.CheckInterval()).
				Msg("channel is offline")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(s.cfg.CheckInterval()):
		}
	}
}

// Download fetches a single VOD or clip and post-processes it. A capture
// that fails without writing anything is an error; partial downloads are
// still post-processed but the failure is reported.
func (s *Session) Download(ctx context.Context, v target.Video) error {
	logger := log.WithComponent("recorder").With().
		Str("kind", v.Kind.String()).
		Str("id", v.ID).
		Logger()

	outPath := v.OutputPath(s.outputDir)
	if err := fsutil.EnsureDir(filepath.Dir(outPath)); err != nil {
		return fmt.Errorf("prepare download directory: %w", err)
	}

	logger.Info().
		Str(log.FieldEvent, "download.start").
		Str(log.FieldPath, outPath).
		Msg("downloading video")

	res := s.capturer.Capture(ctx, streamlink.BuildDownloadArgs(v, outPath), outPath)
	s.finish(ctx, logger, outPath, res)

	if res.Status == streamlink.StatusFailed {
		return fmt.Errorf("download %s %s: %w", v.Kind, v.ID, res.Err)
	}
	return nil
}

// captureBroadcast runs one live capture plus its post-processing. Errors
// never escape: a failed capture leaves the poll loop retrying.
func (s *Session) captureBroadcast(ctx context.Context, logger zerolog.Logger, ch target.Channel) {
	sessionID := uuid.NewString()[:8]
	logger = logger.With().Str(log.FieldSessionID, sessionID).Logger()

	outPath := ch.CapturePath(s.outputDir, s.clock.Now())
	logger.Info().
		Str(log.FieldEvent, "record.start").
		Str(log.FieldPath, outPath).
		Msg("channel is live, starting capture")

	res := s.capturer.Capture(ctx, streamlink.BuildCaptureArgs(ch.URL(), outPath), outPath)
	s.finish(ctx, logger, outPath, res)
}

// finish decides whether a capture result warrants post-processing and
// runs it. The policy: captured bytes are never discarded, so anything
// non-empty is processed, even after a failure or interrupt.
func (s *Session) finish(ctx context.Context, logger zerolog.Logger, tsPath string, res streamlink.Result) {
	logger = logger.With().
		Str(log.FieldStatus, res.Status.String()).
		Int64("bytes", res.BytesWritten).
		Logger()

	if res.BytesWritten == 0 {
		if res.Status == streamlink.StatusFailed {
			logger.Warn().
				Str(log.FieldEvent, "capture.empty").
				Err(res.Err).
				Msg("capture failed before writing anything, skipping post-processing")
		} else {
			logger.Info().
				Str(log.FieldEvent, "capture.empty").
				Msg("no bytes captured, skipping post-processing")
		}
		return
	}

	ppCtx, cancel := s.postProcessContext(ctx)
	defer cancel()

	result := s.pipeline.Run(ppCtx, tsPath)
	logger.Info().
		Str(log.FieldEvent, "session.done").
		Str(log.FieldPath, tsPath).
		Str("mp4", result.MP4Path).
		Str("contact_sheet", result.SheetPath).
		Msg("capture processed")
}

// postProcessContext returns the context post-processing runs under. A
// live parent context is passed through; if the parent was canceled (the
// interrupt that stopped the capture), post-processing gets a fresh
// context that only a second interrupt cancels.
func (s *Session) postProcessContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx.Err() == nil {
		return ctx, func() {}
	}
	return s.notify(context.WithoutCancel(ctx))
}
