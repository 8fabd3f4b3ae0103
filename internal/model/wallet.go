package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletSnapshot is a read-only copy of the wallet state handed to other components.
type WalletSnapshot struct {
	Address        string          `json:"address"`
	Balance        decimal.Decimal `json:"balance"`
	Connected      bool            `json:"connected"`
	Demo           bool            `json:"demo"`
	Synthetic      bool            `json:"synthetic"` // balance is a random fallback
	Accounts       []string        `json:"accounts"`
	ActiveIndex    int             `json:"active_index"`
	LastConnection time.Time       `json:"last_connection"`
}

// PersistedWallet is the JSON blob stored under the walletState key.
// Address and balance live in their own scalar keys.
type PersistedWallet struct {
	Accounts    []string `json:"accounts"`
	ActiveIndex int      `json:"activeIndex"`
	Demo        bool     `json:"demo"`
}

// NetworkInfo describes the network the provider is currently on.
type NetworkInfo struct {
	ChainID   string `json:"chain_id"`
	NetworkID int64  `json:"network_id"`
	ChainName string `json:"chain_name"`
	IsTarget  bool   `json:"is_target"`
}

// NativeCurrency is the currency block of an add-chain request.
type NativeCurrency struct {
	Name     string `json:"name" yaml:"name"`
	Symbol   string `json:"symbol" yaml:"symbol"`
	Decimals int    `json:"decimals" yaml:"decimals"`
}

// NetworkDescriptor is the payload of wallet_addEthereumChain.
type NetworkDescriptor struct {
	ChainID           string         `json:"chainId" yaml:"chain_id"`
	ChainName         string         `json:"chainName" yaml:"chain_name"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency" yaml:"native_currency"`
	RPCURLs           []string       `json:"rpcUrls" yaml:"rpc_urls"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls" yaml:"block_explorer_urls"`
}
