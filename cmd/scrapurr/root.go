// Copyright (c) 2025 cats-rs
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cats-rs/twitch-scrapurr/internal/config"
	"github.com/cats-rs/twitch-scrapurr/internal/contactsheet"
	"github.com/cats-rs/twitch-scrapurr/internal/ffmpeg"
	"github.com/cats-rs/twitch-scrapurr/internal/log"
	"github.com/cats-rs/twitch-scrapurr/internal/postprocess"
	"github.com/cats-rs/twitch-scrapurr/internal/prompt"
	"github.com/cats-rs/twitch-scrapurr/internal/recorder"
	"github.com/cats-rs/twitch-scrapurr/internal/streamlink"
	"github.com/cats-rs/twitch-scrapurr/internal/target"
	"github.com/cats-rs/twitch-scrapurr/internal/validation"
	"github.com/cats-rs/twitch-scrapurr/internal/version"
)

type rootFlags struct {
	username   string
	videoURL   string
	outputDir  string
	configPath string

	// entered flips once flag parsing succeeded and the body started;
	// main uses it to tell usage errors from runtime failures.
	entered bool
}

func newRootCmd() (*cobra.Command, *rootFlags) {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "scrapurr",
		Short: "Record Twitch streams and download VODs or clips",
		Long: "scrapurr polls a Twitch channel and records the broadcast with\n" +
			"streamlink as soon as it goes live, optionally converting the capture\n" +
			"to MP4 and rendering a thumbnail contact sheet. With --video-url it\n" +
			"instead downloads a single VOD or clip.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.entered = true
			return runSession(cmd, flags)
		},
	}

	cmd.Version = version.Version
	cmd.SetVersionTemplate(version.Full() + "\n")

	cmd.Flags().StringVarP(&flags.username, "username", "u", "", "Twitch username to record")
	cmd.Flags().StringVarP(&flags.videoURL, "video-url", "v", "", "Twitch VOD or clip URL to download")
	cmd.Flags().StringVarP(&flags.outputDir, "output-dir", "o", "", "override the configured output directory for this run")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to config.toml (default: user config dir)")
	cmd.MarkFlagsMutuallyExclusive("username", "video-url")

	return cmd, flags
}

func runSession(cmd *cobra.Command, flags *rootFlags) error {
	log.Configure(log.Config{Pretty: true})

	cfgPath := flags.configPath
	if cfgPath == "" {
		var err error
		if cfgPath, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	settings, err := config.NewLoader(cfgPath, cmd.InOrStdin(), cmd.OutOrStdout()).LoadOrInit()
	if err != nil {
		return err
	}

	outputDir := settings.OutputDirectory
	if flags.outputDir != "" {
		outputDir = flags.outputDir
	}

	sl := streamlink.New()
	ff := ffmpeg.New()
	tools := validation.Tools{
		Streamlink: sl.Bin(),
		FFmpeg:     ff.Bin(),
		FFprobe:    ff.ProbeBin(),
	}
	if err := validation.PerformStartupChecks(settings, outputDir, tools); err != nil {
		return err
	}

	pipeline := postprocess.New(settings, ff, contactsheet.New(ff))
	session := recorder.New(settings, outputDir, sl, sl, pipeline)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flags.videoURL != "" {
		video, err := target.ParseVideoURL(flags.videoURL)
		if err != nil {
			return err
		}
		return session.Download(ctx, video)
	}

	name := flags.username
	if name == "" {
		if name, err = prompt.Line(cmd.InOrStdin(), cmd.OutOrStdout(), "Streamer username to record"); err != nil {
			return err
		}
	}
	channel, err := target.NewChannel(name)
	if err != nil {
		return fmt.Errorf("resolve channel: %w", err)
	}
	return session.Record(ctx, channel)
}
