package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/spf13/cobra"

	"OmnichainNexus/internal/app"
	"OmnichainNexus/internal/config"
	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/notifier"
)

var (
	cfgPath   string
	ephemeral bool
	quiet     bool

	nexus *app.App
)

var rootCmd = &cobra.Command{
	Use:           "nexus",
	Short:         "Monad Testnet wallet, airdrop and deposit simulator",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := logx.Init(logx.Options{
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Level:      cfg.Log.Level,
			Quiet:      quiet,
		}); err != nil {
			return fmt.Errorf("init log: %w", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		cobra.OnFinalize(stop)
		cmd.SetContext(ctx)

		nexus, err = app.New(ctx, app.Options{
			Config:    cfg,
			Ephemeral: ephemeral,
			Notifier:  notifier.NewConsoleNotifier(cmd.OutOrStdout()),
		})
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeApp()
	},
}

func closeApp() error {
	if nexus == nil {
		return nil
	}
	err := nexus.Close()
	nexus = nil
	_ = logx.Close()
	return err
}

func init() {
	defaultCfg := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultCfg = v
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultCfg, "Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "Keep all state in memory for this run")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Do not log to stderr")
}

func main() {
	defer func() {
		if r := recover(); r != nil {
			_ = logx.Errorf("nexus crashed: %v\n%s", r, debug.Stack())
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		// PostRun is skipped when RunE fails.
		_ = closeApp()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
