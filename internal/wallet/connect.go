package wallet

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"OmnichainNexus/internal/chain"
	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/provider"
	"OmnichainNexus/internal/render"
)

// Connect asks the provider for accounts and adopts the first one. Without a
// provider it prompts for a wallet install or demo mode and returns ErrNoProvider.
func (w *WalletState) Connect(ctx context.Context) error {
	if w.provider == nil {
		w.notify(model.LevelInfo, "No Web3 wallet detected. Install MetaMask or another wallet, or connect in demo mode.")
		return ErrNoProvider
	}

	var accounts []string
	if err := provider.Call(ctx, w.provider, "eth_requestAccounts", nil, &accounts); err != nil {
		logx.Error("WALLET", "request accounts: ", err)
		w.notify(model.LevelError, "Failed to connect wallet: "+provider.Message(err))
		return fmt.Errorf("request accounts: %w", err)
	}
	if len(accounts) == 0 {
		w.notify(model.LevelWarning, "No accounts were authorized")
		return ErrNoAccounts
	}

	w.mu.Lock()
	wasConnected := w.address != ""
	w.accounts = lowerAll(accounts)
	w.activeIndex = 0
	w.address = w.accounts[0]
	w.demo = false
	w.synthetic = false
	w.lastConnection = w.clock.Now()
	w.mu.Unlock()

	// A failed switch is reported inside and does not undo the connection.
	_ = w.EnsureTargetNetwork(ctx)
	w.render()
	_ = w.RefreshBalance(ctx)
	w.save()

	if !wasConnected {
		w.emitConnection(true)
	}
	logx.Info("WALLET", "connected ", w.Address())
	w.notify(model.LevelSuccess, fmt.Sprintf("Wallet connected successfully to %s!", w.network.ChainName))
	return nil
}

// ConnectMock connects a random demo address with a random balance.
func (w *WalletState) ConnectMock() model.WalletSnapshot {
	address := randomAddress()

	w.mu.Lock()
	wasConnected := w.address != ""
	w.address = address
	w.accounts = []string{address}
	w.activeIndex = 0
	w.demo = true
	w.synthetic = true
	w.balance = w.random()
	w.lastConnection = w.clock.Now()
	w.mu.Unlock()

	w.render()
	w.save()
	w.emitBalance()
	if !wasConnected {
		w.emitConnection(true)
	}
	logx.Info("WALLET", "mock wallet connected ", address)
	w.notify(model.LevelSuccess, "Connected in Demo Mode - Using mock data")
	return w.Snapshot()
}

func randomAddress() string {
	var b [common.AddressLength]byte
	_, _ = rand.Read(b[:])
	return strings.ToLower(common.BytesToAddress(b[:]).Hex())
}

// EnsureTargetNetwork switches the provider to the configured network, adding
// it first when the provider does not recognise it. Failures are notified and returned.
func (w *WalletState) EnsureTargetNetwork(ctx context.Context) error {
	if w.provider == nil {
		return ErrNoProvider
	}
	target := strings.ToLower(w.network.ChainID)

	var current string
	if err := provider.Call(ctx, w.provider, "eth_chainId", nil, &current); err != nil {
		logx.Error("WALLET", "read chain id: ", err)
		w.notify(model.LevelError, "Failed to read the current network: "+provider.Message(err))
		return fmt.Errorf("read chain id: %w", err)
	}
	if strings.ToLower(current) == target {
		w.target.Render(render.FieldNetworkName, w.network.ChainName)
		return nil
	}

	err := w.switchChain(ctx, target)
	if err != nil && provider.IsUnrecognizedChain(err) {
		if addErr := provider.Call(ctx, w.provider, "wallet_addEthereumChain",
			[]interface{}{w.network}, nil); addErr != nil {
			logx.Error("WALLET", "add chain: ", addErr)
			w.notify(model.LevelError, fmt.Sprintf("Please add %s to your wallet manually.", w.network.ChainName))
			return fmt.Errorf("add chain: %w", addErr)
		}
		logx.Info("WALLET", w.network.ChainName, " added to wallet")
		err = w.switchChain(ctx, target)
	}
	if err != nil {
		logx.Error("WALLET", "switch chain: ", err)
		w.notify(model.LevelError, fmt.Sprintf("Failed to switch to %s: %s", w.network.ChainName, provider.Message(err)))
		return fmt.Errorf("switch chain: %w", err)
	}

	logx.Info("WALLET", "switched to ", w.network.ChainName)
	w.target.Render(render.FieldNetworkName, w.network.ChainName)
	return nil
}

func (w *WalletState) switchChain(ctx context.Context, chainID string) error {
	params := []interface{}{map[string]string{"chainId": chainID}}
	return provider.Call(ctx, w.provider, "wallet_switchEthereumChain", params, nil)
}

// RefreshBalance re-reads the native balance. A failed query falls back to a
// random balance that is rendered as demo data.
func (w *WalletState) RefreshBalance(ctx context.Context) error {
	w.mu.RLock()
	address, demo := w.address, w.demo
	w.mu.RUnlock()
	if address == "" {
		return ErrNotConnected
	}
	if demo || w.provider == nil {
		w.render()
		w.emitBalance()
		return nil
	}

	var quantity string
	balance, synthetic := decimal.Zero, false
	err := provider.Call(ctx, w.provider, "eth_getBalance", []interface{}{address, "latest"}, &quantity)
	if err == nil {
		balance, err = chain.FromWei(quantity)
	}
	if err != nil {
		logx.Warn("WALLET", "balance query failed, using mock balance: ", err)
		balance, synthetic = w.random(), true
	}

	w.mu.Lock()
	if w.address != address {
		w.mu.Unlock()
		return nil
	}
	w.balance = balance
	w.synthetic = synthetic
	w.mu.Unlock()

	if err := w.store.SetItem(KeyWalletBalance, balance.StringFixed(6)); err != nil {
		logx.Error("WALLET", "save balance: ", err)
	}
	w.render()
	w.emitBalance()
	logx.Debug("WALLET", "balance ", balance.String())
	return nil
}

// Disconnect clears the wallet and its persisted keys. Calling it twice is harmless.
func (w *WalletState) Disconnect() {
	w.mu.Lock()
	wasConnected := w.address != ""
	w.address = ""
	w.balance = decimal.Zero
	w.demo = false
	w.synthetic = false
	w.accounts = nil
	w.activeIndex = 0
	w.lastConnection = time.Time{}
	w.mu.Unlock()

	w.clearStorage()
	w.render()
	w.target.Render(render.FieldNetworkName, "")
	w.emitConnection(false)
	if wasConnected {
		w.emitBalance()
	}
	logx.Info("WALLET", "disconnected")
	w.notify(model.LevelSuccess, "Wallet disconnected successfully")
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
