// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package procgroup spawns external tools in their own process group and
// tears the whole group down on shutdown. streamlink forks helper
// processes; killing only the direct child would leave those orphaned and
// still writing to the capture file.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/cats-rs/twitch-scrapurr/internal/log"
)

var ErrKillFailed = errors.New("kill operation failed")

// Set configures cmd to start as a process group leader. Must be called
// before cmd.Start; Kill and Terminate rely on it.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Kill sends sig to the process group of cmd. Safe to call when the
// command never started or the process already exited.
func Kill(cmd *exec.Cmd, sig syscall.Signal) error {
	return kill(cmd, sig)
}

// Terminate stops a running command's process group: SIGTERM, wait up to
// grace for the exit to arrive on waitCh, then SIGKILL and drain waitCh.
// The returned error is the process's Wait result, not the signal error.
// Safe to call on nil commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	_ = Kill(cmd, syscall.SIGTERM)

	select {
	case err := <-waitCh:
		return err
	case <-time.After(grace):
	}

	logger := log.WithComponent("procgroup")
	logger.Warn().
		Int("pid", cmd.Process.Pid).
		Dur("grace", grace).
		Msg("termination grace period exceeded, escalating to SIGKILL")
	_ = Kill(cmd, syscall.SIGKILL)

	// SIGKILL frees a blocked process, so the drain cannot hang.
	return <-waitCh
}
