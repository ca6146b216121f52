// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package streamlink wraps the streamlink binary: probing a channel's live
// status and supervising capture/download runs. streamlink is treated as a
// black box; only exit status and output tails are interpreted.
package streamlink

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cats-rs/twitch-scrapurr/internal/log"
)

// DefaultBin is the binary resolved via PATH unless overridden.
const DefaultBin = "streamlink"

// ErrCaptureInProgress guards the one-capture-at-a-time invariant: a single
// process never writes two capture artifacts concurrently.
var ErrCaptureInProgress = errors.New("a capture is already running")

// Status classifies how a capture ended.
type Status int

const (
	// StatusCompleted: the tool exited cleanly, the broadcast ended.
	StatusCompleted Status = iota + 1
	// StatusInterrupted: cancellation arrived while the child was running;
	// the child was fully terminated before control returned.
	StatusInterrupted
	// StatusFailed: the tool exited with an error status.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusInterrupted:
		return "interrupted"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes a finished capture. BytesWritten is the artifact size
// after the child fully exited; zero means nothing worth post-processing.
type Result struct {
	Status       Status
	BytesWritten int64
	Err          error
}

// Client invokes streamlink. The zero value is not usable; call New.
type Client struct {
	bin   string
	grace time.Duration

	mu  sync.Mutex
	cmd *exec.Cmd
}

// Option configures a Client.
type Option func(*Client)

// WithBin overrides the streamlink binary path.
func WithBin(bin string) Option {
	return func(c *Client) {
		if bin != "" {
			c.bin = bin
		}
	}
}

// WithGrace sets how long a terminated capture may flush before SIGKILL.
func WithGrace(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.grace = d
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		bin:   DefaultBin,
		grace: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bin returns the configured binary for startup checks.
func (c *Client) Bin() string { return c.bin }

// IsLive reports whether the channel behind streamURL is broadcasting.
// A clean non-zero exit means offline. An invocation failure (binary
// missing, not startable) is reported as offline plus an error so the
// poll loop can log and keep retrying.
func (c *Client) IsLive(ctx context.Context, streamURL string) (bool, error) {
	cmd := exec.CommandContext(ctx, c.bin, BuildProbeArgs(streamURL)...) // #nosec G204 -- operator-supplied binary and channel
	out, err := cmd.CombinedOutput()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		logger := log.WithComponent("streamlink")
		logger.Debug().
			Str(log.FieldEvent, "probe.offline").
			Int("exit_code", exitErr.ExitCode()).
			Str("output", tail(string(out), 3)).
			Msg("no stream available")
		return false, nil
	}
	return false, fmt.Errorf("probe live status: %w", err)
}

// tail keeps the last n non-empty lines of s for compact logging.
func tail(s string, n int) string {
	var lines []string
	for _, l := range strings.Split(s, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
