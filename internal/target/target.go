// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

// Package target models what a single invocation works on: a channel to
// record, or a VOD/clip URL to download. Targets are chosen once at
// startup and immutable afterwards; they also own the artifact naming
// inside the output directory.
package target

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// ErrInvalidURL classifies a video URL that is not a recognized Twitch
// VOD or clip link. Usage-class: printed with the flag help, exit 2.
var ErrInvalidURL = errors.New("not a Twitch VOD or clip URL")

// captureTimestamp is the layout embedded in recording file names,
// e.g. forsen-25_12_24-21_30.ts.
const captureTimestamp = "02_01_06-15_04"

// Channel is a named live-streaming source to record.
type Channel struct {
	Name string
}

// NewChannel validates and wraps a username.
func NewChannel(name string) (Channel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Channel{}, errors.New("channel name must not be empty")
	}
	if strings.ContainsAny(name, "/\\ ") {
		return Channel{}, fmt.Errorf("invalid channel name %q", name)
	}
	return Channel{Name: name}, nil
}

// URL returns the channel page streamlink consumes.
func (c Channel) URL() string {
	return "https://www.twitch.tv/" + c.Name
}

// VODDir is the per-channel directory recordings land in.
func (c Channel) VODDir(outputDir string) string {
	return filepath.Join(outputDir, c.Name, "vods")
}

// CapturePath names a new recording after the channel and the capture
// start time.
func (c Channel) CapturePath(outputDir string, now time.Time) string {
	name := fmt.Sprintf("%s-%s.ts", c.Name, now.Format(captureTimestamp))
	return filepath.Join(c.VODDir(outputDir), name)
}

// Kind distinguishes downloadable video types.
type Kind int

const (
	// KindVOD is a full past broadcast (twitch.tv/videos/<id>).
	KindVOD Kind = iota + 1
	// KindClip is a short curated excerpt.
	KindClip
)

func (k Kind) String() string {
	switch k {
	case KindVOD:
		return "vod"
	case KindClip:
		return "clip"
	default:
		return "unknown"
	}
}

// Video is a single downloadable target. URL is the original link and is
// passed to streamlink verbatim; ID is the VOD id or clip slug used for
// file naming; Start carries a VOD's ?t= offset so the download begins
// there.
type Video struct {
	Kind  Kind
	URL   string
	ID    string
	Start string
}

// ParseVideoURL classifies a Twitch video link. Recognized forms:
//
//	https://www.twitch.tv/videos/<id>[?t=<offset>]
//	https://clips.twitch.tv/<slug>
//	https://www.twitch.tv/<channel>/clip/<slug>
//
// Anything else is ErrInvalidURL.
func ParseVideoURL(raw string) (Video, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Video{}, fmt.Errorf("parse video URL: %w", err)
	}

	segments := splitPath(u.Path)

	switch u.Hostname() {
	case "clips.twitch.tv":
		if len(segments) == 0 {
			return Video{}, fmt.Errorf("%w: %s", ErrInvalidURL, raw)
		}
		return Video{Kind: KindClip, URL: raw, ID: segments[len(segments)-1]}, nil

	case "www.twitch.tv", "twitch.tv", "m.twitch.tv":
		if len(segments) >= 2 && segments[0] == "videos" {
			return Video{
				Kind:  KindVOD,
				URL:   raw,
				ID:    segments[1],
				Start: u.Query().Get("t"),
			}, nil
		}
		// Channel-page clip links keep the slug as the last segment.
		for _, seg := range segments {
			if seg == "clip" {
				return Video{Kind: KindClip, URL: raw, ID: segments[len(segments)-1]}, nil
			}
		}
		return Video{}, fmt.Errorf("%w: %s", ErrInvalidURL, raw)

	default:
		return Video{}, fmt.Errorf("%w: %s", ErrInvalidURL, raw)
	}
}

// OutputPath names the raw download artifact inside outputDir: VODs go to
// vod_<id>.ts at the top level, clips into a clips/ subdirectory.
func (v Video) OutputPath(outputDir string) string {
	switch v.Kind {
	case KindClip:
		return filepath.Join(outputDir, "clips", v.ID+".ts")
	default:
		return filepath.Join(outputDir, "vod_"+v.ID+".ts")
	}
}

func splitPath(p string) []string {
	var out []string
	for _, seg := range strings.Split(p, "/") {
		if seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
