// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

//go:build windows

package procgroup

import (
	"os/exec"
	"syscall"
)

func set(cmd *exec.Cmd) {
	// Process groups are a Unix concept; rely on Process.Kill instead.
}

// Windows has no SIGTERM delivery for console-less children, so graceful
// termination degrades to an immediate kill when escalation is requested.
func kill(cmd *exec.Cmd, sig syscall.Signal) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	if sig == syscall.SIGKILL {
		return cmd.Process.Kill()
	}
	return nil
}
