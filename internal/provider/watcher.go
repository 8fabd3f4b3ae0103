package provider

import (
	"context"
	"strings"
	"sync"

	"OmnichainNexus/internal/logx"
)

// Watcher turns a request-only provider into an event source. Each Poll reads
// eth_chainId and eth_accounts and publishes the differences from the last poll.
type Watcher struct {
	provider Provider
	bus      *EventBus

	mu        sync.Mutex
	reachable bool
	chainID   string
	accounts  []string
	primed    bool
}

func NewWatcher(p Provider, bus *EventBus) *Watcher {
	return &Watcher{provider: p, bus: bus}
}

// Poll runs one observation round. The first successful round only publishes connect.
func (w *Watcher) Poll(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var chainID string
	if err := Call(ctx, w.provider, "eth_chainId", nil, &chainID); err != nil {
		logx.Warn("WATCHER", "eth_chainId failed: ", err)
		if w.reachable {
			w.reachable = false
			w.bus.Publish(Event{Kind: EventDisconnect})
		}
		return
	}
	var accounts []string
	if err := Call(ctx, w.provider, "eth_accounts", nil, &accounts); err != nil {
		logx.Warn("WATCHER", "eth_accounts failed: ", err)
		return
	}
	chainID = strings.ToLower(chainID)
	accounts = lowerAll(accounts)

	if !w.reachable {
		w.reachable = true
		w.bus.Publish(Event{Kind: EventConnect, ChainID: chainID})
	}
	if !w.primed {
		w.primed = true
		w.chainID = chainID
		w.accounts = accounts
		return
	}
	if chainID != w.chainID {
		w.chainID = chainID
		w.bus.Publish(Event{Kind: EventChainChanged, ChainID: chainID})
	}
	if !sameAccounts(accounts, w.accounts) {
		w.accounts = accounts
		w.bus.Publish(Event{Kind: EventAccountsChanged, Accounts: append([]string(nil), accounts...)})
	}
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func sameAccounts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
