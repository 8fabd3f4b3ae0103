package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/scheduler"
	"OmnichainNexus/internal/server"
)

var (
	serveBind       string
	serveRefreshNow bool
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveBind, "bind", "", "Listen address, overrides api.bind")
	serveCmd.Flags().BoolVar(&serveRefreshNow, "refresh-now", false, "Refresh the balance once at start")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, scheduled jobs and Telegram commands until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := nexus.Config

		var sender scheduler.Sender
		if nexus.Telegram != nil {
			sender = nexus.Telegram
		}
		var watcher scheduler.Poller
		if nexus.Watcher != nil {
			watcher = nexus.Watcher
		}
		sched := scheduler.NewScheduler(ctx, nexus.Wallet, nexus.Airdrop, nexus.Ledger, watcher, sender)
		if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.WatchCron, cfg.Schedule.DailyCron); err != nil {
			return fmt.Errorf("register cron tasks: %w", err)
		}
		sched.Start()
		defer sched.Stop()

		if nexus.Telegram != nil {
			go nexus.Telegram.StartPolling(ctx, sched.HandleCommand)
			logx.Info("SERVE", "Telegram polling started")
		}
		if watcher != nil {
			watcher.Poll(ctx)
		}
		if serveRefreshNow {
			go sched.RunRefreshNow()
		}

		bind := cfg.API.Bind
		if serveBind != "" {
			bind = serveBind
		}
		logx.Info("SERVE", "OmnichainNexus is running. Press Ctrl+C to stop.")
		if err := server.NewAPI(nexus.Wallet, nexus.Airdrop, nexus.Ledger, nexus.Board).Serve(ctx, bind); err != nil {
			return fmt.Errorf("serve api: %w", err)
		}
		logx.Info("SERVE", "shutdown signal received, stopping...")
		return nil
	},
}

func fprint(w io.Writer, s string) {
	_, _ = io.WriteString(w, s)
}

func fprintln(w io.Writer, s string) {
	_, _ = fmt.Fprintln(w, s)
}

func fprintf(w io.Writer, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(w, format, args...)
}
