package wallet

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"OmnichainNexus/internal/chain"
	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/provider"
)

// SwitchAccount makes accounts[index] active. Out-of-range indices are ignored.
func (w *WalletState) SwitchAccount(ctx context.Context, index int) error {
	w.mu.Lock()
	if index < 0 || index >= len(w.accounts) {
		w.mu.Unlock()
		logx.Debug("WALLET", "ignoring switch to account ", index)
		return nil
	}
	w.activeIndex = index
	w.address = w.accounts[index]
	w.mu.Unlock()

	w.save()
	w.render()
	if err := w.RefreshBalance(ctx); err != nil {
		return err
	}
	logx.Info("WALLET", "switched to account ", index)
	return nil
}

// LoadAccounts replaces the account list with eth_accounts, keeping the active
// address selected when it is still authorized.
func (w *WalletState) LoadAccounts(ctx context.Context) ([]string, error) {
	if w.provider == nil {
		return nil, ErrNoProvider
	}
	var accounts []string
	if err := provider.Call(ctx, w.provider, "eth_accounts", nil, &accounts); err != nil {
		logx.Error("WALLET", "load accounts: ", err)
		w.notify(model.LevelError, "Failed to load accounts: "+provider.Message(err))
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	accounts = lowerAll(accounts)

	w.mu.Lock()
	if w.address != "" && !w.demo {
		w.accounts = accounts
		w.normalizeAccountsLocked()
	}
	w.mu.Unlock()
	w.save()
	return accounts, nil
}

// AddAccount asks the provider to authorize more accounts, then reloads the list.
func (w *WalletState) AddAccount(ctx context.Context) ([]string, error) {
	if w.provider == nil {
		return nil, ErrNoProvider
	}
	params := []interface{}{map[string]interface{}{"eth_accounts": map[string]interface{}{}}}
	if err := provider.Call(ctx, w.provider, "wallet_requestPermissions", params, nil); err != nil {
		logx.Error("WALLET", "request permissions: ", err)
		w.notify(model.LevelError, "Failed to add account: "+provider.Message(err))
		return nil, fmt.Errorf("request permissions: %w", err)
	}
	accounts, err := w.LoadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	w.notify(model.LevelSuccess, fmt.Sprintf("Account list updated (%d accounts)", len(accounts)))
	return accounts, nil
}

// SignMessage signs message with personal_sign using the active account.
func (w *WalletState) SignMessage(ctx context.Context, message string) (string, error) {
	snap := w.Snapshot()
	if !snap.Connected {
		w.notify(model.LevelError, "Please connect your wallet first")
		return "", ErrNotConnected
	}
	if snap.Demo {
		w.notify(model.LevelWarning, "Message signing needs a real wallet")
		return "", ErrDemoWallet
	}
	if w.provider == nil {
		return "", ErrNoProvider
	}

	var signature string
	params := []interface{}{hexutil.Encode([]byte(message)), snap.Address}
	if err := provider.Call(ctx, w.provider, "personal_sign", params, &signature); err != nil {
		logx.Error("WALLET", "sign message: ", err)
		w.notify(model.LevelError, "Failed to sign message: "+provider.Message(err))
		return "", fmt.Errorf("sign message: %w", err)
	}
	w.notify(model.LevelSuccess, "Message signed successfully")
	return signature, nil
}

// WatchAsset asks the provider to track an ERC-20 token.
func (w *WalletState) WatchAsset(ctx context.Context, address, symbol string, decimals int) (bool, error) {
	if w.provider == nil {
		return false, ErrNoProvider
	}
	if !common.IsHexAddress(address) {
		return false, fmt.Errorf("invalid token address %q", address)
	}
	if symbol == "" || decimals < 0 || decimals > 36 {
		return false, fmt.Errorf("invalid token metadata %q/%d", symbol, decimals)
	}

	params := map[string]interface{}{
		"type": "ERC20",
		"options": map[string]interface{}{
			"address":  strings.ToLower(address),
			"symbol":   symbol,
			"decimals": decimals,
		},
	}
	var added bool
	if err := provider.Call(ctx, w.provider, "wallet_watchAsset", params, &added); err != nil {
		logx.Error("WALLET", "watch asset: ", err)
		w.notify(model.LevelError, "Failed to add token: "+provider.Message(err))
		return false, fmt.Errorf("watch asset: %w", err)
	}
	if added {
		w.notify(model.LevelSuccess, symbol+" added to wallet")
	}
	return added, nil
}

// NetworkInfo reports the provider's current network. Without a provider it
// describes the configured network.
func (w *WalletState) NetworkInfo(ctx context.Context) (model.NetworkInfo, error) {
	target := strings.ToLower(w.network.ChainID)
	if w.provider == nil {
		id, _ := chain.ParseQuantity(target)
		var networkID int64
		if id != nil {
			networkID = int64(id.Uint64())
		}
		return model.NetworkInfo{ChainID: target, NetworkID: networkID, ChainName: w.network.ChainName, IsTarget: true}, nil
	}

	var chainID, version string
	if err := provider.Call(ctx, w.provider, "eth_chainId", nil, &chainID); err != nil {
		return model.NetworkInfo{}, fmt.Errorf("read chain id: %w", err)
	}
	if err := provider.Call(ctx, w.provider, "net_version", nil, &version); err != nil {
		return model.NetworkInfo{}, fmt.Errorf("read network version: %w", err)
	}
	networkID, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return model.NetworkInfo{}, fmt.Errorf("parse network version %q: %w", version, err)
	}

	info := model.NetworkInfo{
		ChainID:   strings.ToLower(chainID),
		NetworkID: networkID,
		IsTarget:  strings.ToLower(chainID) == target,
	}
	if info.IsTarget {
		info.ChainName = w.network.ChainName
	} else {
		info.ChainName = "Unknown network " + info.ChainID
	}
	return info, nil
}
