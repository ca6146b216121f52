// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package linering keeps the most recent lines of a stream. Capture and
// conversion runners point child stderr at a Ring so that a failure report
// can include the tool's final output without buffering the whole log.
package linering

import (
	"strings"
	"sync"
)

const defaultCapacity = 50

// Ring is a fixed-capacity, concurrency-safe line buffer. Writes are split
// on newlines; a trailing partial line is carried until completed and is
// still visible through Tail, since a crashing child often dies mid-line.
type Ring struct {
	mu      sync.Mutex
	lines   []string
	head    int
	size    int
	partial strings.Builder
}

func New(capacity int) *Ring {
	if capacity < 1 {
		capacity = defaultCapacity
	}
	return &Ring{
		lines: make([]string, capacity),
		size:  capacity,
	}
}

// Write implements io.Writer for use as an exec.Cmd stderr sink.
func (r *Ring) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rest := string(p)
	for {
		idx := strings.IndexByte(rest, '\n')
		if idx < 0 {
			r.partial.WriteString(rest)
			break
		}
		r.partial.WriteString(rest[:idx])
		r.push(strings.TrimRight(r.partial.String(), "\r"))
		r.partial.Reset()
		rest = rest[idx+1:]
	}
	return len(p), nil
}

func (r *Ring) push(line string) {
	if line == "" {
		return
	}
	r.lines[r.head] = line
	r.head = (r.head + 1) % r.size
}

// Tail returns up to n of the most recent lines in chronological order.
func (r *Ring) Tail(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ordered := make([]string, 0, r.size+1)
	// head is the next write slot, so head is also the oldest entry.
	for i := 0; i < r.size; i++ {
		if line := r.lines[(r.head+i)%r.size]; line != "" {
			ordered = append(ordered, line)
		}
	}
	if p := r.partial.String(); p != "" {
		ordered = append(ordered, p)
	}

	if n < len(ordered) {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

// String joins the buffered tail for inclusion in error messages.
func (r *Ring) String() string {
	return strings.Join(r.Tail(r.size), "\n")
}
