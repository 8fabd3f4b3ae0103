package recorder

import "github.com/shopspring/decimal"

// WalletEvent records a connection change.
type WalletEvent struct {
	EventType string // "CONNECT", "CONNECT_DEMO", "DISCONNECT"
	Address   string
	Balance   decimal.Decimal
	Demo      bool
}

// TaskEvent records a task toggle, claim or reset.
type TaskEvent struct {
	EventType   string // "TOGGLE", "VISIT", "CLAIM", "RESET"
	TaskID      string
	Completed   bool
	TotalReward decimal.Decimal
	Note        string
}

// LedgerEvent records a deposit or claim together with the totals after it.
type LedgerEvent struct {
	EventType      string // "DEPOSIT", "FAUCET_CLAIM", "EARNINGS_CLAIM"
	Address        string
	Amount         decimal.Decimal
	TxHash         string
	TotalDeposited decimal.Decimal
	TotalEarnings  decimal.Decimal
	ClaimedAmount  decimal.Decimal
}

// BalanceSample is one observed wallet balance.
type BalanceSample struct {
	Address   string
	Balance   decimal.Decimal
	Synthetic bool
}

// Recorder persists activity history for later analysis.
type Recorder interface {
	RecordWalletEvent(evt *WalletEvent) error
	RecordTaskEvent(evt *TaskEvent) error
	RecordLedgerEvent(evt *LedgerEvent) error
	RecordBalance(sample *BalanceSample) error
	Close() error
}
