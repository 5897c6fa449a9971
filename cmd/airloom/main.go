/*
Copyright (C) 2026 Airloom Authors

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/airloom/airloom/internal/assembler"
	"github.com/airloom/airloom/internal/config"
	"github.com/airloom/airloom/internal/logging"
	"github.com/airloom/airloom/internal/playlist"
	"github.com/airloom/airloom/internal/server"
	"github.com/airloom/airloom/internal/telemetry"
)

var (
	logger zerolog.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "airloom",
	Short: "Airloom - Radio rotation and playout scheduling engine",
	Long:  "Airloom drives a radio station: constraint-based track rotation, a station clock schedule, and hour-block playout assembly.",
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Airloom server",
	Long:  "Start the HTTP API server and the schedule watcher",
	RunE:  runServe,
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate hour-block playlists",
	Long:  "Assemble consecutive hour blocks and write one playlist file per hour",
	RunE:  runGenerate,
}

var (
	genHours  int
	genStart  string
	genOut    string
	genFormat string
	genSeed   int64
)

func init() {
	generateCmd.Flags().IntVar(&genHours, "hours", 3, "number of consecutive hour blocks to assemble")
	generateCmd.Flags().StringVar(&genStart, "start", "", "first hour start (RFC3339, defaults to the next full hour)")
	generateCmd.Flags().StringVar(&genOut, "out", "playlists", "output directory for playlist files")
	generateCmd.Flags().StringVar(&genFormat, "format", "m3u", "playlist format: m3u or pls")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "shuffle seed for reproducible runs (0 leaves it random)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration (called by commands that need it)
func loadConfig() error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger = logging.Setup(cfg.Environment)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	logger.Info().Msg("Airloom starting")

	tracerProvider, err := telemetry.InitTracer(context.Background(), telemetry.TracerConfig{
		ServiceName:    "airloom",
		ServiceVersion: "0.1.0",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		Enabled:        cfg.TracingEnabled,
		SampleRate:     cfg.TracingSampleRate,
	}, logger)
	if err != nil {
		return fmt.Errorf("initialize tracer: %w", err)
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown tracer provider")
		}
	}()

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		logger.Error().Err(err).Msg("server error")
	}

	logger.Info().Msg("shutting down gracefully...")

	if err := srv.Close(); err != nil {
		logger.Error().Err(err).Msg("shutdown cleanup failed")
	}

	logger.Info().Msg("Airloom stopped")
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	if genHours <= 0 {
		return fmt.Errorf("hours must be positive, got %d", genHours)
	}
	if genFormat != "m3u" && genFormat != "pls" {
		return fmt.Errorf("unsupported format %q", genFormat)
	}

	start := time.Now().Truncate(time.Hour).Add(time.Hour)
	if genStart != "" {
		parsed, err := time.Parse(time.RFC3339, genStart)
		if err != nil {
			return fmt.Errorf("parse start: %w", err)
		}
		start = parsed.Truncate(time.Hour)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize services: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error().Err(err).Msg("cleanup failed")
		}
	}()

	if genSeed != 0 {
		srv.RotationEngine().Seed(genSeed)
	}

	if err := os.MkdirAll(genOut, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plans, err := srv.Assembler().AssembleRange(ctx, start, genHours)
	if err != nil {
		return fmt.Errorf("assemble %d hours: %w", genHours, err)
	}

	for i, plan := range plans {
		path := filepath.Join(genOut, fmt.Sprintf("hour_%02d.%s", i+1, genFormat))
		entries := planEntries(plan)
		if genFormat == "pls" {
			err = playlist.WritePLS(entries, path)
		} else {
			err = playlist.WriteM3U(entries, path)
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		logger.Info().
			Str("path", path).
			Str("clock", plan.ClockName).
			Int("items", len(plan.Items)).
			Dur("elapsed", plan.Elapsed).
			Int("degraded", len(plan.Degraded)).
			Msg("hour block written")
	}

	return nil
}

// planEntries flattens an hour plan into playlist entries. Voice and station
// production segments carry their refs as paths; players treat them like any
// other source.
func planEntries(plan assembler.HourBlockPlan) []playlist.Entry {
	entries := make([]playlist.Entry, 0, len(plan.Items))
	for _, item := range plan.Items {
		entries = append(entries, playlist.Entry{
			Path:     item.ItemRef,
			Title:    item.Title,
			Artist:   item.Artist,
			Duration: item.Duration,
		})
	}
	return entries
}
