package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"rssreader/internal/app"
	"rssreader/internal/config"
	"rssreader/internal/logger"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "rssreader",
		Short:         "Fetch Atom feeds and serve their entries",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to JSON config file")
	root.AddCommand(newServeCmd(&configPath), newFetchCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the feed worker and the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			appLogger, err := logger.New(cfg.Logger)
			if err != nil {
				return fmt.Errorf("could not setup logger: %w", err)
			}
			slog.SetDefault(appLogger)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			application, err := app.New(ctx, cfg, appLogger)
			if err != nil {
				appLogger.Error("Application init failed", slog.String("component", "app"), slog.Any("error", err))
				return err
			}
			return application.Run(ctx)
		},
	}
}

// fetch не требует базы: конфигурация читается, если файл существует,
// иначе используются значения по умолчанию.
func newFetchCmd(configPath *string) *cobra.Command {
	var timeout time.Duration
	var encoding string
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch one Atom feed and print it as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if timeout <= 0 {
				return fmt.Errorf("--timeout must be positive, got %s", timeout)
			}
			cfg := config.New()
			if _, err := os.Stat(*configPath); err == nil {
				if cfg, err = config.Load(*configPath); err != nil {
					return err
				}
			}
			if encoding != "" {
				cfg.Parser.Encoding = encoding
			}
			cfg.Logger.Output = "stdout"
			cfg.Logger.Level = "error"
			appLogger, err := logger.New(cfg.Logger)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			processor, err := app.NewFeedProcessor(cfg, appLogger, nil, nil)
			if err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			feed, err := processor.FetchFeed(ctx, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(feed)
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall fetch and parse timeout")
	cmd.Flags().StringVar(&encoding, "encoding", "", "override parser input encoding")
	return cmd
}
