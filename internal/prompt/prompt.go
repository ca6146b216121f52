// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package prompt reads interactive answers from a terminal-like stream.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Line prints label to w, then reads a single line from r and returns it
// with surrounding whitespace trimmed. An empty answer is returned as-is;
// callers decide whether that is acceptable.
func Line(r io.Reader, w io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(w, "%s: ", label); err != nil {
		return "", fmt.Errorf("prompt: write label: %w", err)
	}
	reader := bufio.NewReader(r)
	line, err := reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("prompt: read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
