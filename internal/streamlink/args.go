// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

package streamlink

import "github.com/cats-rs/twitch-scrapurr/internal/target"

// BuildProbeArgs asks streamlink to resolve the best stream URL without
// capturing anything. Exit code 0 means the channel is live.
func BuildProbeArgs(streamURL string) []string {
	return []string{"--stream-url", streamURL, "best"}
}

// BuildCaptureArgs records a live stream to outputPath.
func BuildCaptureArgs(streamURL, outputPath string) []string {
	return []string{
		"--twitch-disable-ads",
		streamURL,
		"best",
		"-o", outputPath,
	}
}

// BuildDownloadArgs fetches a VOD or clip to outputPath. A VOD start
// offset (the URL's ?t= value) is forwarded so the download begins there.
func BuildDownloadArgs(v target.Video, outputPath string) []string {
	args := []string{
		"--twitch-disable-ads",
		v.URL,
		"best",
		"-o", outputPath,
	}
	if v.Kind == target.KindVOD && v.Start != "" {
		args = append(args, "--twitch-start-time", v.Start)
	}
	return args
}
