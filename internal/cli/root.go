// Package cli defines Cobra command definitions for the canvaschat CLI.
// This file contains the root command, global flags, and shared setup.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/canvasgpt/canvaschat/internal/attach"
	"github.com/canvasgpt/canvaschat/internal/backend"
	"github.com/canvasgpt/canvaschat/internal/chat"
	"github.com/canvasgpt/canvaschat/internal/config"
	"github.com/canvasgpt/canvaschat/internal/log"
	"github.com/canvasgpt/canvaschat/internal/tui"
	"github.com/canvasgpt/canvaschat/internal/tui/app"
)

var (
	configDir  string
	backendURL string
	verbose    bool
	version    = "dev" // set via ldflags at build time
)

var rootCmd = &cobra.Command{
	Use:   "canvaschat",
	Short: "Chat with the Canvas course assistant from your terminal",
	Long: `canvaschat is a terminal client for the Canvas course assistant.
Ask questions, attach a syllabus or spreadsheet, and read formatted
replies. Run without a subcommand to open the interactive chat.`,
	Version:       version,
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tui.IsTTY() {
			return tui.RunFallback(cmd.OutOrStdout())
		}

		rt, err := setup()
		if err != nil {
			return err
		}

		opts := app.Options{Title: "Canvas Assistant · " + rt.cfg.Backend.URL}
		if rt.cfg.Backend.ResetOnClear {
			opts.Resetter = rt
		}
		return tui.Run(app.New(rt.controller(), opts))
	},
}

// Execute runs the root command. Called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config and log directory (default ~/.canvaschat)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend-url", "", "Assistant backend base URL (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Print request details and the event log path")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(coursesCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(mockBackendCmd)
}

// runtime is the configured client stack shared by commands.
type runtime struct {
	cfg    *config.Config
	logger *log.Logger
	client *backend.Client
}

func resolveConfigDir() string {
	if configDir != "" {
		return configDir
	}
	return config.DefaultDir()
}

func setup() (*runtime, error) {
	dir := resolveConfigDir()
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if backendURL != "" {
		cfg.Backend.URL = backendURL
	}

	rt := &runtime{cfg: cfg, client: backend.New(cfg.Backend)}

	if cfg.Log.Enabled {
		logger, err := log.NewLogger(dir)
		if err != nil {
			// The event log is optional; chat works without it.
			fmt.Fprintf(os.Stderr, "Warning: event log disabled: %v\n", err)
		} else {
			rt.logger = logger
		}
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "backend: %s\n", cfg.Backend.URL)
		if rt.logger != nil {
			fmt.Fprintf(os.Stderr, "event log: %s\n", rt.logger.Path())
		}
	}
	return rt, nil
}

func (rt *runtime) controller() *chat.Controller {
	return chat.NewController(rt.client,
		chat.WithPolicy(attach.Policy{
			MaxBytes:     rt.cfg.Attachments.MaxSizeBytes,
			MaxPages:     rt.cfg.Attachments.MaxPages,
			EnforcePages: rt.cfg.Attachments.EnforcePageLimit,
		}),
		chat.WithLogger(rt.logger),
	)
}

// Reset resets the backend and records it in the event log.
func (rt *runtime) Reset(ctx context.Context) (string, error) {
	msg, err := rt.client.Reset(ctx)
	event := log.LogEvent{Event: log.EventBackendReset, Reason: msg}
	if err != nil {
		event.Error = err.Error()
	}
	_ = rt.logger.Append(event)
	return msg, err
}
