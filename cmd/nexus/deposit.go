package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"OmnichainNexus/internal/deposit"
	"OmnichainNexus/internal/render"
)

func init() {
	rootCmd.AddCommand(depositCmd, depositsCmd, faucetCmd, earningsCmd)
	faucetCmd.AddCommand(faucetClaimCmd)
	earningsCmd.AddCommand(earningsClaimCmd)
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", deposit.ErrInvalidAmount, s)
	}
	return amount, nil
}

var depositCmd = &cobra.Command{
	Use:   "deposit <amount>",
	Short: "Deposit native tokens into the staking contract",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		entry, err := nexus.Ledger.Deposit(cmd.Context(), amount)
		if err != nil {
			return err
		}
		fprintf(cmd.OutOrStdout(), "tx %s, daily earnings %s\n", entry.TxHash, entry.Earnings.StringFixed(7))
		return nil
	},
}

var depositsCmd = &cobra.Command{
	Use:   "deposits",
	Short: "List deposits and ledger totals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		state := nexus.Ledger.Snapshot()
		symbol := nexus.Wallet.Network().NativeCurrency.Symbol
		for i, d := range state.Deposits {
			fprintf(out, "%3d  %s  %s %s  +%s/day  %s\n", i+1,
				time.UnixMilli(d.Timestamp).Format("2006-01-02 15:04:05"),
				render.Amount(d.Amount), symbol, d.Earnings.StringFixed(7), d.TxHash)
		}
		fprintf(out, "Available:  %s %s\n", render.Amount(nexus.Ledger.AvailableBalance()), symbol)
		fprintf(out, "Deposited:  %s %s\n", render.Amount(state.TotalDeposited), symbol)
		fprintf(out, "Earnings:   %s %s\n", render.Amount(state.TotalEarnings), symbol)
		fprintf(out, "Claimed:    %s / %s %s\n", render.Amount(state.ClaimedAmount),
			nexus.Ledger.DailyLimit().String(), symbol)
		return nil
	},
}

var faucetCmd = &cobra.Command{
	Use:   "faucet",
	Short: "Testnet faucet",
}

var faucetClaimCmd = &cobra.Command{
	Use:   "claim <amount>",
	Short: "Claim tokens from the faucet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := parseAmount(args[0])
		if err != nil {
			return err
		}
		return nexus.Ledger.ClaimFaucet(cmd.Context(), amount)
	},
}

var earningsCmd = &cobra.Command{
	Use:   "earnings",
	Short: "Deposit earnings",
}

var earningsClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Move all accrued earnings into the claimed amount",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := nexus.Ledger.ClaimEarnings(cmd.Context())
		return err
	},
}
