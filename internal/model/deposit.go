package model

import "github.com/shopspring/decimal"

// Deposit is one append-only ledger entry. Earnings are fixed at insertion.
type Deposit struct {
	Amount    decimal.Decimal `json:"amount"`
	Timestamp int64           `json:"timestamp"` // unix millis
	TxHash    string          `json:"txHash"`
	Earnings  decimal.Decimal `json:"earnings"`
}

// LedgerState is the JSON blob stored under the monadDepositData key.
type LedgerState struct {
	Deposits       []Deposit       `json:"deposits"`
	TotalDeposited decimal.Decimal `json:"totalDeposited"`
	TotalEarnings  decimal.Decimal `json:"totalEarnings"`
	ClaimedAmount  decimal.Decimal `json:"claimedAmount"`
	LastUpdate     int64           `json:"lastUpdate"`
}

// Clone returns a deep copy safe to hand outside the ledger lock.
func (s LedgerState) Clone() LedgerState {
	out := s
	out.Deposits = append([]Deposit(nil), s.Deposits...)
	return out
}
