// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

package ffmpeg

// baseArgs are shared by every invocation: quiet output (stderr is ring
// buffered), no terminal interaction.
func baseArgs() []string {
	return []string{
		"-nostdin",
		"-hide_banner",
		"-loglevel", "error",
		"-nostats",
	}
}

// BuildConvertArgs converts a raw .ts capture into an MP4. The default is
// a stream-copy remux; reencode trades speed for maximum player
// compatibility with a full x264/AAC pass.
//
// Only the first video and audio streams are mapped: Twitch transport
// streams carry timed ID3 metadata tracks that the MP4 muxer rejects.
func BuildConvertArgs(inPath, outPath string, reencode bool) []string {
	args := append(baseArgs(),
		"-i", inPath,
		"-map", "0:v:0?",
		"-map", "0:a:0?",
	)

	if reencode {
		args = append(args,
			"-c:v", "libx264",
			"-preset", "faster",
			"-crf", "23",
			"-pix_fmt", "yuv420p",
			"-c:a", "aac",
			"-b:a", "160k",
			"-ac", "2",
		)
	} else {
		args = append(args, "-c", "copy")
	}

	args = append(args,
		// Front-load the moov atom so playback can start before a full read.
		"-movflags", "+faststart",
		"-y", outPath,
	)
	return args
}
