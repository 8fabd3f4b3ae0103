package wallet

import (
	"context"
	"strings"

	"OmnichainNexus/internal/logx"
	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/provider"
	"OmnichainNexus/internal/render"
)

// HandleEvent reacts to an asynchronous provider notification.
func (w *WalletState) HandleEvent(ctx context.Context, evt provider.Event) {
	switch evt.Kind {
	case provider.EventAccountsChanged:
		w.onAccountsChanged(ctx, evt.Accounts)
	case provider.EventChainChanged:
		w.onChainChanged(ctx, evt.ChainID)
	case provider.EventConnect:
		logx.Info("WALLET", "provider connected to chain ", evt.ChainID)
		w.renderNetwork(evt.ChainID)
	case provider.EventDisconnect:
		logx.Warn("WALLET", "provider disconnected")
		w.target.Render(render.FieldNetworkName, "Disconnected")
	}
}

func (w *WalletState) onAccountsChanged(ctx context.Context, accounts []string) {
	w.mu.RLock()
	address, demo := w.address, w.demo
	w.mu.RUnlock()
	if demo {
		return
	}
	if len(accounts) == 0 {
		if address != "" {
			w.Disconnect()
		}
		return
	}

	accounts = lowerAll(accounts)
	if accounts[0] == address {
		w.mu.Lock()
		w.accounts = accounts
		w.normalizeAccountsLocked()
		w.mu.Unlock()
		w.save()
		return
	}

	w.mu.Lock()
	w.accounts = accounts
	w.activeIndex = 0
	w.address = accounts[0]
	w.synthetic = false
	if address == "" {
		w.lastConnection = w.clock.Now()
	}
	w.mu.Unlock()

	logx.Info("WALLET", "active account changed to ", accounts[0])
	w.save()
	w.render()
	_ = w.RefreshBalance(ctx)
	if address == "" {
		w.emitConnection(true)
	}
}

func (w *WalletState) onChainChanged(ctx context.Context, chainID string) {
	w.renderNetwork(chainID)
	if strings.EqualFold(chainID, w.network.ChainID) {
		w.notify(model.LevelSuccess, "Connected to "+w.network.ChainName+"!")
		if w.IsConnected() {
			_ = w.RefreshBalance(ctx)
		}
		return
	}
	w.notify(model.LevelWarning, "Please switch to "+w.network.ChainName+" for full functionality")
}

func (w *WalletState) renderNetwork(chainID string) {
	if strings.EqualFold(chainID, w.network.ChainID) {
		w.target.Render(render.FieldNetworkName, w.network.ChainName)
		return
	}
	w.target.Render(render.FieldNetworkName, "Wrong network ("+strings.ToLower(chainID)+")")
}
