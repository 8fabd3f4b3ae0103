package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/robfig/cron/v3"

	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/notifier"
)

// Wallet is the part of WalletState the scheduler drives.
type Wallet interface {
	Snapshot() model.WalletSnapshot
	Network() model.NetworkDescriptor
	RefreshBalance(ctx context.Context) error
}

type Airdrop interface {
	Snapshot() model.AirdropSnapshot
}

type Ledger interface {
	Snapshot() model.LedgerState
}

// Poller is polled for provider events.
type Poller interface {
	Poll(ctx context.Context)
}

// Sender delivers a formatted report. TelegramNotifier implements it.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron    *cron.Cron
	Wallet  Wallet
	Airdrop Airdrop
	Ledger  Ledger
	Watcher Poller // nil without a provider
	Sender  Sender // nil logs reports instead
	Clock   clock.Clock
	Ctx     context.Context

	refreshMu sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, w Wallet, a Airdrop, l Ledger, watcher Poller, sender Sender) *Scheduler {
	return &Scheduler{
		Cron:    cron.New(cron.WithSeconds()),
		Wallet:  w,
		Airdrop: a,
		Ledger:  l,
		Watcher: watcher,
		Sender:  sender,
		Clock:   clock.New(),
		Ctx:     ctx,
	}
}

// RegisterAll registers the balance refresh, provider watch and daily report tasks.
func (s *Scheduler) RegisterAll(refreshCron, watchCron, dailyCron string) error {
	if _, err := s.Cron.AddFunc(refreshCron, s.RunRefreshNow); err != nil {
		return fmt.Errorf("register refresh task: %w", err)
	}
	if s.Watcher != nil {
		if _, err := s.Cron.AddFunc(watchCron, s.watchTask); err != nil {
			return fmt.Errorf("register watch task: %w", err)
		}
	}
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyReport); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logx.Info("SCHEDULER", "started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logx.Info("SCHEDULER", "stopped")
}

// RunRefreshNow refreshes the wallet balance. Overlapping runs are skipped.
func (s *Scheduler) RunRefreshNow() {
	if !s.refreshMu.TryLock() {
		logx.Debug("SCHEDULER", "refresh already running, skipped")
		return
	}
	defer s.refreshMu.Unlock()

	if !s.Wallet.Snapshot().Connected {
		return
	}
	if err := s.Wallet.RefreshBalance(s.Ctx); err != nil {
		logx.Error("SCHEDULER", "balance refresh: ", err)
	}
}

func (s *Scheduler) watchTask() {
	s.Watcher.Poll(s.Ctx)
}

// Report renders the combined status report.
func (s *Scheduler) Report() string {
	return notifier.FormatDailyReport(s.Clock.Now(), s.Wallet.Snapshot(), s.Wallet.Network(),
		s.Airdrop.Snapshot(), s.Ledger.Snapshot())
}

func (s *Scheduler) dailyReport() {
	logx.Info("SCHEDULER", "running daily report")
	s.trySend(s.Report())
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	symbol := s.Wallet.Network().NativeCurrency.Symbol
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return s.help()
	}
	// Telegram appends @botname to commands in groups.
	cmd, _, _ := strings.Cut(fields[0], "@")
	switch cmd {
	case "/status":
		return s.Report()
	case "/wallet":
		return notifier.FormatWalletStatus(s.Wallet.Snapshot(), s.Wallet.Network())
	case "/airdrop":
		return notifier.FormatAirdropStatus(s.Airdrop.Snapshot(), symbol)
	case "/deposits":
		return notifier.FormatLedgerStatus(s.Ledger.Snapshot(), symbol)
	case "/refresh":
		s.RunRefreshNow()
		return notifier.FormatWalletStatus(s.Wallet.Snapshot(), s.Wallet.Network())
	default:
		return s.help()
	}
}

func (s *Scheduler) help() string {
	return "Available commands:\n• /status\n• /wallet\n• /airdrop\n• /deposits\n• /refresh"
}

func (s *Scheduler) trySend(text string) {
	if s.Sender == nil {
		logx.Info("SCHEDULER", "report:\n", text)
		return
	}
	if err := s.Sender.SendWithRetry(s.Ctx, text, 3); err != nil {
		logx.Error("SCHEDULER", "send report: ", err)
	}
}
