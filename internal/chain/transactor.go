package chain

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/notifier"
	"OmnichainNexus/internal/provider"
)

var (
	ErrReceiptTimeout    = errors.New("transaction confirmation timeout")
	ErrTransactionFailed = errors.New("transaction failed")
)

const (
	DefaultMockDelay       = 3 * time.Second
	DefaultReceiptAttempts = 30
	DefaultReceiptInterval = 2 * time.Second
)

// Transactor is the single submission path shared by every on-chain operation:
// submit, then poll for a receipt whose status is the only success signal.
type Transactor struct {
	Provider provider.Provider // nil means mock mode
	Notifier notifier.Notifier
	Clock    clock.Clock

	MockDelay       time.Duration
	ReceiptAttempts int
	ReceiptInterval time.Duration
}

func NewTransactor(p provider.Provider, n notifier.Notifier, clk clock.Clock) *Transactor {
	if clk == nil {
		clk = clock.New()
	}
	return &Transactor{
		Provider:        p,
		Notifier:        n,
		Clock:           clk,
		MockDelay:       DefaultMockDelay,
		ReceiptAttempts: DefaultReceiptAttempts,
		ReceiptInterval: DefaultReceiptInterval,
	}
}

// Submit sends req and waits for its receipt. Demo wallets and a missing
// provider take the mock path.
func (t *Transactor) Submit(ctx context.Context, req model.TxRequest, demo bool) (*model.Receipt, error) {
	if demo || t.Provider == nil {
		return t.SubmitMock(ctx, req)
	}

	if req.From == "" {
		var accounts []string
		if err := provider.Call(ctx, t.Provider, "eth_accounts", nil, &accounts); err != nil {
			return nil, fmt.Errorf("resolve sender: %w", err)
		}
		if len(accounts) == 0 {
			return nil, errors.New("resolve sender: no authorized account")
		}
		req.From = accounts[0]
	}
	if req.Gas == "" {
		req.Gas = t.estimateGas(ctx, req)
	}
	if req.GasPrice == "" {
		req.GasPrice = t.gasPrice(ctx)
	}

	var hash string
	if err := provider.Call(ctx, t.Provider, "eth_sendTransaction", []interface{}{req}, &hash); err != nil {
		return nil, err
	}
	logx.Info("TX", "sent ", hash, " to ", req.To)
	t.notify(model.LevelSuccess, "Transaction sent! Waiting for confirmation...")

	receipt, err := t.WaitForReceipt(ctx, hash)
	if err != nil {
		return nil, err
	}
	t.notify(model.LevelSuccess, "Transaction confirmed!")
	return receipt, nil
}

// SubmitMock waits the mock latency and fabricates a successful receipt.
func (t *Transactor) SubmitMock(ctx context.Context, req model.TxRequest) (*model.Receipt, error) {
	if err := Sleep(ctx, t.Clock, t.MockDelay); err != nil {
		return nil, err
	}
	hash, err := randomHash()
	if err != nil {
		return nil, err
	}
	logx.Info("TX", "mock transaction ", hash, " to ", req.To)
	return &model.Receipt{
		TransactionHash: hash,
		BlockNumber:     Quantity(uint64(t.Clock.Now().Unix())),
		Status:          model.ReceiptStatusSuccess,
		GasUsed:         FallbackGasLimit,
		From:            req.From,
		To:              req.To,
	}, nil
}

// WaitForReceipt polls eth_getTransactionReceipt up to ReceiptAttempts times,
// sleeping ReceiptInterval after every attempt that yields no receipt.
func (t *Transactor) WaitForReceipt(ctx context.Context, hash string) (*model.Receipt, error) {
	if t.Provider == nil {
		return nil, errors.New("no provider to poll")
	}
	for i := 0; i < t.ReceiptAttempts; i++ {
		var receipt *model.Receipt
		err := provider.Call(ctx, t.Provider, "eth_getTransactionReceipt", []interface{}{hash}, &receipt)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logx.Warn("TX", "receipt query failed: ", err)
		case receipt != nil:
			if !receipt.Succeeded() {
				return receipt, fmt.Errorf("%w: status %s", ErrTransactionFailed, receipt.Status)
			}
			return receipt, nil
		}

		if err := Sleep(ctx, t.Clock, t.ReceiptInterval); err != nil {
			return nil, err
		}
		if i%5 == 0 {
			waited := time.Duration(i) * t.ReceiptInterval
			t.notify(model.LevelInfo, fmt.Sprintf("Waiting for confirmation... (%ds)", int(waited.Seconds())))
		}
	}
	total := time.Duration(t.ReceiptAttempts) * t.ReceiptInterval
	return nil, fmt.Errorf("%w after %s", ErrReceiptTimeout, total)
}

func (t *Transactor) estimateGas(ctx context.Context, req model.TxRequest) string {
	var gas string
	if err := provider.Call(ctx, t.Provider, "eth_estimateGas", []interface{}{req}, &gas); err != nil || gas == "" {
		logx.Warn("TX", "gas estimate failed, using fallback: ", err)
		return FallbackGasLimit
	}
	return gas
}

func (t *Transactor) gasPrice(ctx context.Context) string {
	var price string
	if err := provider.Call(ctx, t.Provider, "eth_gasPrice", []interface{}{}, &price); err != nil || price == "" {
		logx.Warn("TX", "gas price query failed, using fallback: ", err)
		return Quantity(DefaultGasPrice)
	}
	return price
}

func (t *Transactor) notify(level model.Level, msg string) {
	if t.Notifier != nil {
		t.Notifier.Notify(level, msg)
	}
}

func randomHash() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate hash: %w", err)
	}
	return hexutil.Encode(b[:]), nil
}

// Sleep waits d on clk unless ctx ends first. Non-positive durations return at once.
func Sleep(ctx context.Context, clk clock.Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := clk.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
