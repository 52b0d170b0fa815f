package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shahjalal-bu/liveshare/internal/app"
	"github.com/shahjalal-bu/liveshare/internal/config"
	"github.com/shahjalal-bu/liveshare/internal/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

type rootFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "liveshare",
		Short:         "Cross-process live code-sharing rooms and a local snippet box",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newRoomCmd(flags))
	root.AddCommand(newDemoCmd(flags))
	root.AddCommand(newSnippetsCmd(flags))

	return root
}

// setup resolves config, builds the logger and the wired application.
// Callers own Close.
func setup(ctx context.Context, flags *rootFlags) (*app.App, config.Config, error) {
	bootLog := log.New("info")

	cfg, _, err := config.Load(bootLog, flags.configPath)
	if err != nil {
		return nil, cfg, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	}

	logger := log.New(cfg.LogLevel)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, cfg, err
	}
	return a, cfg, nil
}
