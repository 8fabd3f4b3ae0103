package deposit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"

	"OmnichainNexus/internal/chain"
	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/notifier"
	"OmnichainNexus/internal/recorder"
	"OmnichainNexus/internal/render"
	"OmnichainNexus/internal/storage"
)

var (
	ErrNotConnected        = errors.New("wallet not connected")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDailyLimit          = errors.New("daily claim limit reached")
	ErrNoEarnings          = errors.New("no earnings to claim")
	ErrBusy                = errors.New("ledger transaction already in progress")
)

// KeyDepositData is the storage key owned by DepositLedger.
const KeyDepositData = "monadDepositData"

const DefaultRefreshDelay = 3 * time.Second

var (
	// DefaultDailyLimit caps faucet claims. It is compared against the all-time
	// claimed amount, so it never resets.
	DefaultDailyLimit = decimal.NewFromInt(10)

	annualRate  = decimal.RequireFromString("0.125")
	daysPerYear = decimal.NewFromInt(365)
)

// DailyEarnings is one day's share of the 12.5% annual rate on amount.
func DailyEarnings(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(annualRate).Div(daysPerYear)
}

// WalletReader is the part of the wallet the ledger reads and refreshes.
type WalletReader interface {
	Snapshot() model.WalletSnapshot
	RefreshBalance(ctx context.Context) error
}

// Submitter sends a transaction and waits for a successful receipt.
type Submitter interface {
	Submit(ctx context.Context, req model.TxRequest, demo bool) (*model.Receipt, error)
}

type Options struct {
	Store      storage.Storage
	Wallet     WalletReader
	Transactor Submitter
	Builder    *chain.TransactionBuilder
	Notifier   notifier.Notifier
	Target     render.Target
	Recorder   recorder.Recorder
	Clock      clock.Clock
	Symbol     string

	DailyLimit   decimal.Decimal
	RefreshDelay time.Duration // zero takes the default, negative refreshes at once
}

// DepositLedger tracks simulated deposits, accrued earnings and faucet claims.
type DepositLedger struct {
	opts Options

	mu    sync.Mutex
	state model.LedgerState
	busy  bool

	pending sync.WaitGroup
}

// New creates a ledger hydrated from storage.
func New(opts Options) (*DepositLedger, error) {
	if opts.Wallet == nil || opts.Transactor == nil {
		return nil, errors.New("deposit ledger needs a wallet and a transactor")
	}
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStorage()
	}
	if opts.Builder == nil {
		opts.Builder = chain.NewTransactionBuilder("")
	}
	if opts.Notifier == nil {
		opts.Notifier = notifier.LogNotifier{}
	}
	if opts.Target == nil {
		opts.Target = render.Discard{}
	}
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Symbol == "" {
		opts.Symbol = "MONAD"
	}
	if opts.DailyLimit.IsZero() {
		opts.DailyLimit = DefaultDailyLimit
	}
	if opts.RefreshDelay == 0 {
		opts.RefreshDelay = DefaultRefreshDelay
	}

	l := &DepositLedger{opts: opts}
	var stored model.LedgerState
	found, err := storage.LoadJSON(opts.Store, KeyDepositData, &stored)
	if err != nil {
		return nil, err
	}
	if found {
		l.state = stored
	}
	l.render()
	return l, nil
}

func (l *DepositLedger) Snapshot() model.LedgerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Clone()
}

// AvailableBalance is the wallet balance when connected, else zero.
func (l *DepositLedger) AvailableBalance() decimal.Decimal {
	snap := l.opts.Wallet.Snapshot()
	if !snap.Connected {
		return decimal.Zero
	}
	return snap.Balance
}

// MaxAmount is the largest amount Deposit currently accepts.
func (l *DepositLedger) MaxAmount() decimal.Decimal {
	return l.AvailableBalance()
}

// DailyLimit returns the faucet cap.
func (l *DepositLedger) DailyLimit() decimal.Decimal {
	return l.opts.DailyLimit
}

// Deposit sends amount to the deposit contract and appends it to the ledger
// once the receipt confirms.
func (l *DepositLedger) Deposit(ctx context.Context, amount decimal.Decimal) (*model.Deposit, error) {
	wallet, err := l.requireWallet()
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		l.notify(model.LevelError, "Enter an amount greater than zero")
		return nil, ErrInvalidAmount
	}
	if err := l.acquire(); err != nil {
		return nil, err
	}
	defer l.release()
	if amount.GreaterThan(wallet.Balance) {
		l.notify(model.LevelError, "Insufficient balance")
		return nil, ErrInsufficientBalance
	}

	l.notify(model.LevelInfo, fmt.Sprintf("Depositing %s %s...", amount.String(), l.opts.Symbol))
	req, err := l.opts.Builder.BuildContractCall(chain.DepositContract, chain.SelectorDeposit, amount, chain.DepositGas)
	if err != nil {
		l.notify(model.LevelError, "Deposit failed: "+err.Error())
		return nil, err
	}
	req.From = wallet.Address

	receipt, err := l.opts.Transactor.Submit(ctx, req, wallet.Demo)
	if err != nil {
		logx.Error("DEPOSIT", "deposit: ", err)
		l.notify(model.LevelError, "Deposit failed: "+err.Error())
		return nil, fmt.Errorf("deposit: %w", err)
	}

	entry := model.Deposit{
		Amount:    amount,
		Timestamp: l.opts.Clock.Now().UnixMilli(),
		TxHash:    receipt.TransactionHash,
		Earnings:  DailyEarnings(amount),
	}
	state := l.mutate(func(s *model.LedgerState) {
		s.Deposits = append(s.Deposits, entry)
		s.TotalDeposited = s.TotalDeposited.Add(entry.Amount)
		s.TotalEarnings = s.TotalEarnings.Add(entry.Earnings)
	})

	l.record("DEPOSIT", wallet.Address, amount, receipt.TransactionHash, state)
	l.notify(model.LevelSuccess, fmt.Sprintf("Successfully deposited %s %s!", amount.String(), l.opts.Symbol))
	return &entry, nil
}

// ClaimFaucet claims amount from the faucet contract, subject to the daily limit.
func (l *DepositLedger) ClaimFaucet(ctx context.Context, amount decimal.Decimal) error {
	wallet, err := l.requireWallet()
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		l.notify(model.LevelError, "Enter an amount greater than zero")
		return ErrInvalidAmount
	}
	if err := l.acquire(); err != nil {
		return err
	}
	defer l.release()
	l.mu.Lock()
	claimed := l.state.ClaimedAmount
	l.mu.Unlock()
	if claimed.Add(amount).GreaterThan(l.opts.DailyLimit) {
		l.notify(model.LevelError, fmt.Sprintf("Daily claim limit reached (%s %s)", l.opts.DailyLimit.String(), l.opts.Symbol))
		return ErrDailyLimit
	}

	l.notify(model.LevelInfo, fmt.Sprintf("Claiming %s %s...", amount.String(), l.opts.Symbol))
	wei, err := chain.ToWei(amount)
	if err != nil {
		return err
	}
	data, err := chain.EncodeFunctionCall(chain.SelectorClaimAmount, wei)
	if err != nil {
		return err
	}
	req, err := l.opts.Builder.BuildContractCall(chain.FaucetContract, data, decimal.Zero, chain.FaucetGas)
	if err != nil {
		return err
	}
	req.From = wallet.Address

	receipt, err := l.opts.Transactor.Submit(ctx, req, wallet.Demo)
	if err != nil {
		logx.Error("DEPOSIT", "faucet claim: ", err)
		l.notify(model.LevelError, "Claim failed: "+err.Error())
		return fmt.Errorf("faucet claim: %w", err)
	}

	state := l.mutate(func(s *model.LedgerState) {
		s.ClaimedAmount = s.ClaimedAmount.Add(amount)
	})
	l.record("FAUCET_CLAIM", wallet.Address, amount, receipt.TransactionHash, state)
	l.notify(model.LevelSuccess, fmt.Sprintf("Successfully claimed %s %s!", amount.String(), l.opts.Symbol))
	l.scheduleRefresh()
	return nil
}

// ClaimEarnings withdraws all accrued earnings into the claimed amount.
func (l *DepositLedger) ClaimEarnings(ctx context.Context) (decimal.Decimal, error) {
	wallet, err := l.requireWallet()
	if err != nil {
		return decimal.Zero, err
	}
	if err := l.acquire(); err != nil {
		return decimal.Zero, err
	}
	defer l.release()
	l.mu.Lock()
	earnings := l.state.TotalEarnings
	l.mu.Unlock()
	if !earnings.IsPositive() {
		l.notify(model.LevelWarning, "No earnings to claim")
		return decimal.Zero, ErrNoEarnings
	}

	l.notify(model.LevelInfo, fmt.Sprintf("Claiming %s %s earnings...", earnings.String(), l.opts.Symbol))
	req, err := l.opts.Builder.BuildContractCall(chain.EarningsContract, chain.SelectorWithdraw, decimal.Zero, chain.EarningsGas)
	if err != nil {
		return decimal.Zero, err
	}
	req.From = wallet.Address

	receipt, err := l.opts.Transactor.Submit(ctx, req, wallet.Demo)
	if err != nil {
		logx.Error("DEPOSIT", "earnings claim: ", err)
		l.notify(model.LevelError, "Earnings claim failed: "+err.Error())
		return decimal.Zero, fmt.Errorf("earnings claim: %w", err)
	}

	var moved decimal.Decimal
	state := l.mutate(func(s *model.LedgerState) {
		moved = s.TotalEarnings
		s.ClaimedAmount = s.ClaimedAmount.Add(s.TotalEarnings)
		s.TotalEarnings = decimal.Zero
	})
	l.record("EARNINGS_CLAIM", wallet.Address, moved, receipt.TransactionHash, state)
	l.notify(model.LevelSuccess, "Successfully claimed earnings!")
	l.scheduleRefresh()
	return moved, nil
}

// Wait blocks until every scheduled balance refresh has run.
func (l *DepositLedger) Wait() {
	l.pending.Wait()
}

// RenderAvailable redraws the available balance after a wallet change.
func (l *DepositLedger) RenderAvailable(snap model.WalletSnapshot) {
	available := decimal.Zero
	if snap.Connected {
		available = snap.Balance
	}
	l.opts.Target.Render(render.FieldAvailableBalance, render.Amount(available))
}

func (l *DepositLedger) requireWallet() (model.WalletSnapshot, error) {
	snap := l.opts.Wallet.Snapshot()
	if !snap.Connected {
		l.notify(model.LevelError, "Please connect your wallet first")
		return snap, ErrNotConnected
	}
	return snap, nil
}

// acquire takes the in-flight latch. Checks made after it hold until release,
// so overlapping calls cannot both pass the balance or claim-limit check.
func (l *DepositLedger) acquire() error {
	l.mu.Lock()
	busy := l.busy
	l.busy = true
	l.mu.Unlock()
	if busy {
		l.notify(model.LevelWarning, "Another transaction is still in progress")
		return ErrBusy
	}
	return nil
}

func (l *DepositLedger) release() {
	l.mu.Lock()
	l.busy = false
	l.mu.Unlock()
}

// mutate applies fn and persists the result under one lock hold.
func (l *DepositLedger) mutate(fn func(*model.LedgerState)) model.LedgerState {
	l.mu.Lock()
	fn(&l.state)
	l.state.LastUpdate = l.opts.Clock.Now().UnixMilli()
	if err := storage.SaveJSON(l.opts.Store, KeyDepositData, l.state); err != nil {
		logx.Error("DEPOSIT", "save ledger: ", err)
	}
	state := l.state.Clone()
	l.mu.Unlock()

	l.render()
	return state
}

func (l *DepositLedger) scheduleRefresh() {
	l.pending.Add(1)
	refresh := func() {
		defer l.pending.Done()
		if err := l.opts.Wallet.RefreshBalance(context.Background()); err != nil {
			logx.Warn("DEPOSIT", "delayed balance refresh: ", err)
		}
	}
	if l.opts.RefreshDelay < 0 {
		go refresh()
		return
	}
	l.opts.Clock.AfterFunc(l.opts.RefreshDelay, refresh)
}

func (l *DepositLedger) render() {
	state := l.Snapshot()
	t := l.opts.Target
	l.RenderAvailable(l.opts.Wallet.Snapshot())
	t.Render(render.FieldTotalDeposited, render.Amount(state.TotalDeposited))
	t.Render(render.FieldTotalEarnings, render.Amount(state.TotalEarnings))
	t.Render(render.FieldClaimedAmount, render.Amount(state.ClaimedAmount))
	t.Render(render.FieldDepositCount, strconv.Itoa(len(state.Deposits)))
}

func (l *DepositLedger) record(eventType, address string, amount decimal.Decimal, txHash string, state model.LedgerState) {
	if err := l.opts.Recorder.RecordLedgerEvent(&recorder.LedgerEvent{
		EventType:      eventType,
		Address:        address,
		Amount:         amount,
		TxHash:         txHash,
		TotalDeposited: state.TotalDeposited,
		TotalEarnings:  state.TotalEarnings,
		ClaimedAmount:  state.ClaimedAmount,
	}); err != nil {
		logx.Error("DEPOSIT", "record ledger event: ", err)
	}
}

func (l *DepositLedger) notify(level model.Level, msg string) {
	l.opts.Notifier.Notify(level, msg)
}
