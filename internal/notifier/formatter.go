package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"OmnichainNexus/internal/model"
	"OmnichainNexus/internal/render"
)

// FormatWalletStatus formats the wallet state into a Telegram message.
func FormatWalletStatus(w model.WalletSnapshot, network model.NetworkDescriptor) string {
	symbol := network.NativeCurrency.Symbol
	var b strings.Builder
	b.WriteString("👛 <b>Wallet</b>\n\n")
	if !w.Connected {
		b.WriteString("Status: Not connected\n")
		b.WriteString(fmt.Sprintf("Network: %s\n", html.EscapeString(network.ChainName)))
		return b.String()
	}
	status := "Connected"
	if w.Demo {
		status = "Connected (Demo)"
	}
	b.WriteString(fmt.Sprintf("Status: %s\n", status))
	b.WriteString(fmt.Sprintf("Address: <code>%s</code>\n", w.Address))
	b.WriteString(fmt.Sprintf("Balance: %s\n", render.Balance(w.Balance, symbol, w.Demo || w.Synthetic)))
	b.WriteString(fmt.Sprintf("Network: %s\n", html.EscapeString(network.ChainName)))
	if len(w.Accounts) > 1 {
		b.WriteString(fmt.Sprintf("Accounts: %d (active #%d)\n", len(w.Accounts), w.ActiveIndex))
	}
	return b.String()
}

// FormatAirdropStatus formats task progress.
func FormatAirdropStatus(a model.AirdropSnapshot, symbol string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🎁 <b>Airdrop</b> | %.0f%% Complete\n\n", a.Percent))
	for _, t := range a.Tasks {
		mark := "⬜"
		if t.Completed {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%s %s (+%s %s)\n", mark, html.EscapeString(t.Title), t.Reward.String(), symbol))
	}
	b.WriteString(fmt.Sprintf("\nReward: %s %s\n", a.TotalReward.String(), symbol))
	if a.Claimed {
		b.WriteString("Claimed ✅\n")
	}
	return b.String()
}

// FormatLedgerStatus formats the deposit ledger totals and the latest entries.
func FormatLedgerStatus(l model.LedgerState, symbol string) string {
	var b strings.Builder
	b.WriteString("🏦 <b>Deposits</b>\n\n")
	b.WriteString(fmt.Sprintf("Total deposited: %s %s\n", render.Amount(l.TotalDeposited), symbol))
	b.WriteString(fmt.Sprintf("Earnings: %s %s\n", render.Amount(l.TotalEarnings), symbol))
	b.WriteString(fmt.Sprintf("Claimed: %s %s\n", render.Amount(l.ClaimedAmount), symbol))
	b.WriteString(fmt.Sprintf("Deposits: %d\n", len(l.Deposits)))

	start := len(l.Deposits) - 5
	if start < 0 {
		start = 0
	}
	for _, d := range l.Deposits[start:] {
		b.WriteString(fmt.Sprintf("  %s  %s %s  <code>%s</code>\n",
			time.UnixMilli(d.Timestamp).UTC().Format("2006-01-02 15:04"),
			render.Amount(d.Amount), symbol, render.ShortAddress(d.TxHash)))
	}
	return b.String()
}

// FormatDailyReport combines every section under a dated header.
func FormatDailyReport(now time.Time, w model.WalletSnapshot, network model.NetworkDescriptor,
	a model.AirdropSnapshot, l model.LedgerState) string {
	symbol := network.NativeCurrency.Symbol
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📊 <b>OmnichainNexus daily report</b> | %s\n\n", now.Format("2006-01-02")))
	b.WriteString(FormatWalletStatus(w, network))
	b.WriteString("\n")
	b.WriteString(FormatAirdropStatus(a, symbol))
	b.WriteString("\n")
	b.WriteString(FormatLedgerStatus(l, symbol))
	return b.String()
}
