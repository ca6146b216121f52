// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

package streamlink

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/cats-rs/twitch-scrapurr/internal/fsutil"
	"github.com/cats-rs/twitch-scrapurr/internal/linering"
	"github.com/cats-rs/twitch-scrapurr/internal/log"
	"github.com/cats-rs/twitch-scrapurr/internal/procgroup"
)

// Capture runs streamlink with args and blocks until the child exits or
// ctx is canceled. On cancellation the whole child process group is
// terminated (SIGTERM, grace, SIGKILL) before Capture returns, so the
// artifact at outputPath is never read and written at the same time.
//
// The child's fate maps onto Result.Status: clean exit is Completed,
// cancellation is Interrupted, an error exit is Failed. BytesWritten is
// stat'ed after the child is fully gone.
func (c *Client) Capture(ctx context.Context, args []string, outputPath string) Result {
	logger := log.WithComponent("streamlink")
	ring := linering.New(64)

	c.mu.Lock()
	if c.cmd != nil {
		c.mu.Unlock()
		return Result{Status: StatusFailed, Err: ErrCaptureInProgress}
	}

	cmd := exec.Command(c.bin, args...) // #nosec G204 -- operator-supplied binary and target
	procgroup.Set(cmd)
	cmd.Stdout = ring
	cmd.Stderr = ring

	if err := cmd.Start(); err != nil {
		c.mu.Unlock()
		return Result{Status: StatusFailed, Err: fmt.Errorf("start %s: %w", c.bin, err)}
	}
	c.cmd = cmd
	c.mu.Unlock()

	logger.Info().
		Str(log.FieldEvent, "capture.start").
		Str(log.FieldPath, outputPath).
		Int("pid", cmd.Process.Pid).
		Msg("capture started")

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	var status Status
	var waitErr error
	select {
	case waitErr = <-waitCh:
		if waitErr == nil {
			status = StatusCompleted
		} else {
			status = StatusFailed
		}
	case <-ctx.Done():
		// A SIGTERM'd child exits non-zero; that is not a failure here.
		_ = procgroup.Terminate(cmd, waitCh, c.grace)
		status = StatusInterrupted
	}

	c.mu.Lock()
	c.cmd = nil
	c.mu.Unlock()

	res := Result{
		Status:       status,
		BytesWritten: fsutil.FileSize(outputPath),
	}
	if status == StatusFailed {
		res.Err = fmt.Errorf("%s exited: %w", c.bin, waitErr)
		logger.Error().
			Str(log.FieldEvent, "capture.failed").
			Str(log.FieldPath, outputPath).
			Int64("bytes", res.BytesWritten).
			Strs("output", ring.Tail(10)).
			Err(waitErr).
			Msg("capture tool failed")
		return res
	}

	logger.Info().
		Str(log.FieldEvent, "capture.exit").
		Str(log.FieldPath, outputPath).
		Str(log.FieldStatus, status.String()).
		Int64("bytes", res.BytesWritten).
		Msg("capture finished")
	return res
}
