// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Command scrapurr records a Twitch channel when it goes live, or
// downloads a single VOD/clip by URL, delegating all media work to
// streamlink and ffmpeg.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cats-rs/twitch-scrapurr/internal/target"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root, flags := newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	if !flags.entered || errors.Is(err, target.ErrInvalidURL) {
		// Flag parsing or target classification failed: bad invocation,
		// nothing was started.
		fmt.Fprint(os.Stderr, root.UsageString())
		return 2
	}
	return 1
}
