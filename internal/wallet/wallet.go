package wallet

import (
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"

	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/notifier"
	"OmnichainNexus/internal/provider"
	"OmnichainNexus/internal/render"
	"OmnichainNexus/internal/storage"
)

var (
	ErrNoProvider   = errors.New("no wallet provider available")
	ErrNotConnected = errors.New("wallet not connected")
	ErrNoAccounts   = errors.New("no accounts authorized")
	ErrDemoWallet   = errors.New("not available for demo wallets")
)

// Storage keys owned by WalletState.
const (
	KeyConnectedWallet = "connectedWallet"
	KeyWalletBalance   = "walletBalance"
	KeyLastConnection  = "lastConnection"
	KeyWalletState     = "walletState"
)

// Options carries the collaborators of a WalletState. Provider may be nil.
type Options struct {
	Store    storage.Storage
	Provider provider.Provider
	Notifier notifier.Notifier
	Target   render.Target
	Network  model.NetworkDescriptor
	Clock    clock.Clock

	// RandomBalance produces demo and fallback balances. Defaults to [0, 10) at 4 dp.
	RandomBalance func() decimal.Decimal
}

// WalletState tracks the connected account and its native balance.
type WalletState struct {
	store    storage.Storage
	provider provider.Provider
	notifier notifier.Notifier
	target   render.Target
	network  model.NetworkDescriptor
	clock    clock.Clock
	random   func() decimal.Decimal

	mu             sync.RWMutex
	address        string
	balance        decimal.Decimal
	demo           bool
	synthetic      bool
	accounts       []string
	activeIndex    int
	lastConnection time.Time

	obsMu      sync.Mutex
	nextObs    int
	balanceObs map[int]func(model.WalletSnapshot)
	connObs    map[int]func(bool)
}

// New creates a WalletState and restores any previously persisted connection.
func New(opts Options) (*WalletState, error) {
	w := &WalletState{
		store:      opts.Store,
		provider:   opts.Provider,
		notifier:   opts.Notifier,
		target:     opts.Target,
		network:    opts.Network,
		clock:      opts.Clock,
		random:     opts.RandomBalance,
		balanceObs: make(map[int]func(model.WalletSnapshot)),
		connObs:    make(map[int]func(bool)),
	}
	if w.store == nil {
		w.store = storage.NewMemoryStorage()
	}
	if w.notifier == nil {
		w.notifier = notifier.LogNotifier{}
	}
	if w.target == nil {
		w.target = render.Discard{}
	}
	if w.clock == nil {
		w.clock = clock.New()
	}
	if w.random == nil {
		w.random = randomBalance
	}
	if err := w.restore(); err != nil {
		return nil, err
	}
	w.render()
	return w, nil
}

func randomBalance() decimal.Decimal {
	return decimal.NewFromFloat(rand.Float64() * 10).Truncate(4)
}

// HasProvider reports whether an external wallet capability is attached.
func (w *WalletState) HasProvider() bool {
	return w.provider != nil
}

func (w *WalletState) Network() model.NetworkDescriptor {
	return w.network
}

func (w *WalletState) Snapshot() model.WalletSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshotLocked()
}

func (w *WalletState) snapshotLocked() model.WalletSnapshot {
	return model.WalletSnapshot{
		Address:        w.address,
		Balance:        w.balance,
		Connected:      w.address != "",
		Demo:           w.demo,
		Synthetic:      w.synthetic,
		Accounts:       append([]string(nil), w.accounts...),
		ActiveIndex:    w.activeIndex,
		LastConnection: w.lastConnection,
	}
}

func (w *WalletState) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.address != ""
}

func (w *WalletState) Address() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.address
}

func (w *WalletState) Balance() decimal.Decimal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.balance
}

// OnBalanceChange registers fn to run after every balance update. The returned
// function removes the registration.
func (w *WalletState) OnBalanceChange(fn func(model.WalletSnapshot)) func() {
	w.obsMu.Lock()
	defer w.obsMu.Unlock()
	id := w.nextObs
	w.nextObs++
	w.balanceObs[id] = fn
	return func() {
		w.obsMu.Lock()
		defer w.obsMu.Unlock()
		delete(w.balanceObs, id)
	}
}

// OnConnectionChange registers fn to run when the wallet connects or disconnects.
func (w *WalletState) OnConnectionChange(fn func(connected bool)) func() {
	w.obsMu.Lock()
	defer w.obsMu.Unlock()
	id := w.nextObs
	w.nextObs++
	w.connObs[id] = fn
	return func() {
		w.obsMu.Lock()
		defer w.obsMu.Unlock()
		delete(w.connObs, id)
	}
}

func (w *WalletState) emitBalance() {
	snap := w.Snapshot()
	w.obsMu.Lock()
	fns := make([]func(model.WalletSnapshot), 0, len(w.balanceObs))
	for i := 0; i < w.nextObs; i++ {
		if fn, ok := w.balanceObs[i]; ok {
			fns = append(fns, fn)
		}
	}
	w.obsMu.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func (w *WalletState) emitConnection(connected bool) {
	w.obsMu.Lock()
	fns := make([]func(bool), 0, len(w.connObs))
	for i := 0; i < w.nextObs; i++ {
		if fn, ok := w.connObs[i]; ok {
			fns = append(fns, fn)
		}
	}
	w.obsMu.Unlock()
	for _, fn := range fns {
		fn(connected)
	}
}

func (w *WalletState) restore() error {
	address, ok, err := w.store.GetItem(KeyConnectedWallet)
	if err != nil {
		return err
	}
	if !ok || address == "" {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.address = strings.ToLower(address)

	if raw, ok, err := w.store.GetItem(KeyWalletBalance); err == nil && ok {
		if bal, err := decimal.NewFromString(raw); err == nil && !bal.IsNegative() {
			w.balance = bal
		} else {
			logx.Warn("WALLET", "ignoring malformed saved balance ", raw)
		}
	}
	if raw, ok, err := w.store.GetItem(KeyLastConnection); err == nil && ok {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			w.lastConnection = ts
		}
	}

	var saved model.PersistedWallet
	if found, err := storage.LoadJSON(w.store, KeyWalletState, &saved); err != nil {
		return err
	} else if found {
		w.accounts = saved.Accounts
		w.activeIndex = saved.ActiveIndex
		w.demo = saved.Demo
	}
	w.normalizeAccountsLocked()

	logx.Info("WALLET", "reconnected to previous wallet ", render.ShortAddress(w.address))
	return nil
}

// normalizeAccountsLocked keeps address inside accounts and activeIndex in range.
func (w *WalletState) normalizeAccountsLocked() {
	if w.address == "" {
		w.accounts = nil
		w.activeIndex = 0
		return
	}
	for i, a := range w.accounts {
		w.accounts[i] = strings.ToLower(a)
	}
	for i, a := range w.accounts {
		if a == w.address {
			w.activeIndex = i
			return
		}
	}
	w.accounts = append([]string{w.address}, w.accounts...)
	w.activeIndex = 0
}

// save writes the scalar keys and the walletState blob. Failures are logged.
func (w *WalletState) save() {
	w.mu.RLock()
	snap := w.snapshotLocked()
	w.mu.RUnlock()
	if !snap.Connected {
		return
	}

	if err := w.store.SetItem(KeyConnectedWallet, snap.Address); err != nil {
		logx.Error("WALLET", "save address: ", err)
	}
	if err := w.store.SetItem(KeyWalletBalance, snap.Balance.StringFixed(6)); err != nil {
		logx.Error("WALLET", "save balance: ", err)
	}
	if !snap.LastConnection.IsZero() {
		if err := w.store.SetItem(KeyLastConnection, snap.LastConnection.UTC().Format(time.RFC3339)); err != nil {
			logx.Error("WALLET", "save last connection: ", err)
		}
	}
	blob := model.PersistedWallet{Accounts: snap.Accounts, ActiveIndex: snap.ActiveIndex, Demo: snap.Demo}
	if err := storage.SaveJSON(w.store, KeyWalletState, blob); err != nil {
		logx.Error("WALLET", "save wallet state: ", err)
	}
}

func (w *WalletState) clearStorage() {
	for _, key := range []string{KeyConnectedWallet, KeyWalletBalance, KeyLastConnection, KeyWalletState} {
		if err := w.store.RemoveItem(key); err != nil {
			logx.Error("WALLET", "remove ", key, ": ", err)
		}
	}
}

func (w *WalletState) render() {
	snap := w.Snapshot()
	if !snap.Connected {
		w.target.Render(render.FieldWalletAddress, "")
		w.target.Render(render.FieldWalletBalance, "")
		w.target.Render(render.FieldWalletStatus, "Not connected")
		return
	}
	status := "Connected"
	if snap.Demo {
		status = "Connected (Demo)"
	}
	w.target.Render(render.FieldWalletAddress, render.ShortAddress(snap.Address))
	w.target.Render(render.FieldWalletBalance,
		render.Balance(snap.Balance, w.network.NativeCurrency.Symbol, snap.Demo || snap.Synthetic))
	w.target.Render(render.FieldWalletStatus, status)
}

func (w *WalletState) notify(level model.Level, msg string) {
	w.notifier.Notify(level, msg)
}
