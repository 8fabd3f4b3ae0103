package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/benbjohnson/clock"

	"OmnichainNexus/internal/airdrop"
	"OmnichainNexus/internal/chain"
	"OmnichainNexus/internal/config"
	"OmnichainNexus/internal/deposit"
	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/notifier"
	"OmnichainNexus/internal/provider"
	"OmnichainNexus/internal/recorder"
	"OmnichainNexus/internal/render"
	"OmnichainNexus/internal/storage"
	"OmnichainNexus/internal/wallet"
)

// Options control how the application is assembled.
type Options struct {
	Config *config.Config

	// Ephemeral keeps all state in memory and skips the history database.
	Ephemeral bool

	// Notifier receives every notification in addition to the log. Typically
	// a ConsoleNotifier.
	Notifier notifier.Notifier

	// Provider overrides the RPC provider built from rpc.url.
	Provider provider.Provider

	Clock clock.Clock
}

// App owns every component and the wiring between them.
type App struct {
	Config *config.Config

	Store      storage.Storage
	Provider   provider.Provider
	Bus        *provider.EventBus
	Watcher    *provider.Watcher
	Board      *render.Board
	Notifier   notifier.Notifier
	Telegram   *notifier.TelegramNotifier
	Recorder   recorder.Recorder
	Transactor *chain.Transactor

	Wallet  *wallet.WalletState
	Airdrop *airdrop.TaskProgress
	Ledger  *deposit.DepositLedger

	ctx      context.Context
	cancel   context.CancelFunc
	unwire   []func()
	closeRPC func() error
}

// CheckCompatibility verifies the environment before anything is constructed.
func CheckCompatibility(cfg *config.Config, ephemeral bool) error {
	if cfg == nil {
		return errors.New("no configuration")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if ephemeral {
		return nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("data dir %s: %w", cfg.DataDir, err)
	}
	probe, err := os.CreateTemp(cfg.DataDir, ".probe-*")
	if err != nil {
		return fmt.Errorf("data dir %s is not writable: %w", cfg.DataDir, err)
	}
	probe.Close()
	_ = os.Remove(probe.Name())
	return nil
}

// New checks compatibility, then constructs and wires every component.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if err := CheckCompatibility(cfg, opts.Ephemeral); err != nil {
		return nil, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	a := &App{Config: cfg, Bus: provider.NewEventBus(), Board: render.NewBoard()}
	a.ctx, a.cancel = context.WithCancel(ctx)

	if err := a.openStorage(opts.Ephemeral); err != nil {
		a.cancel()
		return nil, err
	}
	a.openProvider(opts.Provider)
	a.openNotifier(opts.Notifier)
	a.openRecorder(opts.Ephemeral)

	a.Transactor = chain.NewTransactor(a.Provider, a.Notifier, clk)
	a.Transactor.MockDelay = cfg.Timing.MockTxDelay
	a.Transactor.ReceiptAttempts = cfg.Timing.ReceiptAttempts
	a.Transactor.ReceiptInterval = cfg.Timing.ReceiptInterval

	var err error
	a.Wallet, err = wallet.New(wallet.Options{
		Store:    a.Store,
		Provider: a.Provider,
		Notifier: a.Notifier,
		Target:   a.Board,
		Network:  cfg.Network,
		Clock:    clk,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("wallet: %w", err)
	}

	symbol := cfg.Network.NativeCurrency.Symbol
	a.Airdrop, err = airdrop.New(airdrop.Options{
		Store:      a.Store,
		Wallet:     a.Wallet,
		Notifier:   a.Notifier,
		Target:     a.Board,
		Recorder:   a.Recorder,
		Clock:      clk,
		Symbol:     symbol,
		ClaimDelay: cfg.Timing.ClaimDelay,
		VisitDelay: cfg.Timing.VisitDelay,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("airdrop: %w", err)
	}

	a.Ledger, err = deposit.New(deposit.Options{
		Store:        a.Store,
		Wallet:       a.Wallet,
		Transactor:   a.Transactor,
		Builder:      chain.NewTransactionBuilder(cfg.Network.ChainID),
		Notifier:     a.Notifier,
		Target:       a.Board,
		Recorder:     a.Recorder,
		Clock:        clk,
		Symbol:       symbol,
		RefreshDelay: cfg.Timing.RefreshDelay,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("deposit ledger: %w", err)
	}

	a.wire()
	a.Airdrop.SyncWalletTask(a.Wallet.IsConnected())
	logx.Info("APP", "ready, provider=", a.Provider != nil, " wallet=", a.Wallet.Address())
	return a, nil
}

func (a *App) openStorage(ephemeral bool) error {
	if ephemeral {
		a.Store = storage.NewMemoryStorage()
		return nil
	}
	store, err := storage.NewLevelDBStorage(a.Config.StorageDir())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.Store = store
	return nil
}

func (a *App) openProvider(override provider.Provider) {
	switch {
	case override != nil:
		a.Provider = override
	case a.Config.RPC.URL != "":
		rpc := provider.NewRPCProvider(a.Config.RPC.URL, a.Config.RPC.Timeout)
		a.Provider = rpc
		a.closeRPC = rpc.Close
	default:
		logx.Info("APP", "no rpc.url configured, running without a wallet provider")
		return
	}
	a.Watcher = provider.NewWatcher(a.Provider, a.Bus)
}

func (a *App) openNotifier(extra notifier.Notifier) {
	multi := notifier.Multi{notifier.LogNotifier{}}
	if extra != nil {
		multi = append(multi, extra)
	}
	if a.Config.TelegramEnabled() {
		a.Telegram = notifier.NewTelegramNotifier(a.Config.Telegram.BotToken, a.Config.Telegram.ChatID, a.Config.Proxy)
		multi = append(multi, a.Telegram)
	}
	a.Notifier = multi
}

func (a *App) openRecorder(ephemeral bool) {
	if ephemeral {
		a.Recorder = recorder.NewNoopRecorder()
		return
	}
	if err := os.MkdirAll(filepath.Dir(a.Config.Database.SQLitePath), 0o755); err == nil {
		rec, err := recorder.NewSQLiteRecorder(a.Config.Database.SQLitePath)
		if err == nil {
			a.Recorder = rec
			return
		}
		logx.Error("APP", "open history database: ", err)
	}
	// History is optional; the page works without it.
	a.Recorder = recorder.NewNoopRecorder()
}

// wire connects the wallet observers and provider events to their consumers.
func (a *App) wire() {
	a.unwire = append(a.unwire,
		a.Wallet.OnConnectionChange(func(connected bool) {
			a.Airdrop.SyncWalletTask(connected)
			snap := a.Wallet.Snapshot()
			evt := &recorder.WalletEvent{EventType: "DISCONNECT"}
			if connected {
				evt = &recorder.WalletEvent{EventType: "CONNECT", Address: snap.Address, Balance: snap.Balance, Demo: snap.Demo}
			}
			if err := a.Recorder.RecordWalletEvent(evt); err != nil {
				logx.Error("APP", "record wallet event: ", err)
			}
		}),
		a.Wallet.OnBalanceChange(func(snap model.WalletSnapshot) {
			a.Ledger.RenderAvailable(snap)
			if !snap.Connected {
				return
			}
			if err := a.Recorder.RecordBalance(&recorder.BalanceSample{
				Address: snap.Address, Balance: snap.Balance, Synthetic: snap.Synthetic,
			}); err != nil {
				logx.Error("APP", "record balance: ", err)
			}
		}),
	)

	id := a.Bus.Subscribe(func(evt provider.Event) {
		a.Wallet.HandleEvent(a.ctx, evt)
	})
	a.unwire = append(a.unwire, func() { a.Bus.Unsubscribe(id) })
}

// Context is cancelled by Close.
func (a *App) Context() context.Context {
	return a.ctx
}

// Close waits for pending refreshes and releases every resource.
func (a *App) Close() error {
	for _, fn := range a.unwire {
		fn()
	}
	a.unwire = nil
	if a.Ledger != nil {
		a.Ledger.Wait()
	}
	if a.cancel != nil {
		a.cancel()
	}
	if a.Telegram != nil {
		a.Telegram.Flush()
	}

	var errs []error
	if a.Recorder != nil {
		errs = append(errs, a.Recorder.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.closeRPC != nil {
		errs = append(errs, a.closeRPC())
	}
	return errors.Join(errs...)
}
