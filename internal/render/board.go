package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// Read-out field names.
const (
	FieldWalletAddress    = "walletAddress"
	FieldWalletBalance    = "walletBalance"
	FieldWalletStatus     = "walletStatus"
	FieldNetworkName      = "networkName"
	FieldAirdropProgress  = "airdropProgress"
	FieldProgressText     = "progressText"
	FieldClaimAirdrop     = "claimAirdrop"
	FieldClaimEnabled     = "claimAirdrop.enabled"
	FieldAvailableBalance = "availableBalance"
	FieldTotalDeposited   = "totalDeposited"
	FieldTotalEarnings    = "totalEarnings"
	FieldClaimedAmount    = "claimedAmount"
	FieldDepositCount     = "depositCount"
)

// Target updates a named read-out.
type Target interface {
	Render(field, value string)
}

// Discard drops every update.
type Discard struct{}

func (Discard) Render(string, string) {}

// Board is an in-memory Target. It remembers the last value of every field.
type Board struct {
	mu     sync.RWMutex
	fields map[string]string
	seq    map[string]int
	next   int
}

func NewBoard() *Board {
	return &Board{fields: make(map[string]string), seq: make(map[string]int)}
}

func (b *Board) Render(field, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.seq[field]; !ok {
		b.seq[field] = b.next
		b.next++
	}
	b.fields[field] = value
}

// Get returns the current value of field.
func (b *Board) Get(field string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.fields[field]
}

func (b *Board) Snapshot() map[string]string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]string, len(b.fields))
	for k, v := range b.fields {
		out[k] = v
	}
	return out
}

// Lines renders "field: value" in first-rendered order.
func (b *Board) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.fields))
	for k := range b.fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return b.seq[keys[i]] < b.seq[keys[j]] })
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, b.fields[k]))
	}
	return lines
}

var dustThreshold = decimal.RequireFromString("0.001")

// Balance formats a native balance for display.
func Balance(amount decimal.Decimal, symbol string, demo bool) string {
	var s string
	if amount.LessThan(dustThreshold) {
		s = "< 0.001 " + symbol
	} else {
		s = amount.StringFixed(4) + " " + symbol
	}
	if demo {
		s += " (Demo)"
	}
	return s
}

// ShortAddress renders 0x1234...abcd.
func ShortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// Amount formats a ledger figure with 4 decimal places.
func Amount(amount decimal.Decimal) string {
	return amount.StringFixed(4)
}
