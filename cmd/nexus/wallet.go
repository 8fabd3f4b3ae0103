package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"OmnichainNexus/internal/notifier"
	"OmnichainNexus/internal/render"
)

var connectDemo bool

func init() {
	rootCmd.AddCommand(statusCmd, connectCmd, disconnectCmd, balanceCmd, networkCmd,
		accountsCmd, signCmd, watchAssetCmd)
	accountsCmd.AddCommand(accountsSwitchCmd, accountsAddCmd)
	connectCmd.Flags().BoolVar(&connectDemo, "demo", false, "Connect a random demo wallet with mock data")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the page state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, line := range nexus.Board.Lines() {
			fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connect the wallet provider, or a demo wallet with --demo",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if connectDemo {
			nexus.Wallet.ConnectMock()
		} else if err := nexus.Wallet.Connect(cmd.Context()); err != nil {
			return err
		}
		fprint(cmd.OutOrStdout(), notifier.FormatWalletStatus(nexus.Wallet.Snapshot(), nexus.Wallet.Network()))
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the connected wallet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		nexus.Wallet.Disconnect()
		return nil
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Refresh and print the native balance",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := nexus.Wallet.RefreshBalance(cmd.Context()); err != nil {
			return err
		}
		snap := nexus.Wallet.Snapshot()
		symbol := nexus.Wallet.Network().NativeCurrency.Symbol
		fprintln(cmd.OutOrStdout(), render.Balance(snap.Balance, symbol, snap.Demo || snap.Synthetic))
		return nil
	},
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show the provider network and switch to the target network",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := nexus.Wallet.NetworkInfo(cmd.Context())
		if err != nil {
			return err
		}
		fprintf(cmd.OutOrStdout(), "Chain ID:   %s\nNetwork ID: %d\nName:       %s\nTarget:     %v\n",
			info.ChainID, info.NetworkID, info.ChainName, info.IsTarget)
		if !info.IsTarget {
			return nexus.Wallet.EnsureTargetNetwork(cmd.Context())
		}
		return nil
	},
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List authorized accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts := nexus.Wallet.Snapshot().Accounts
		if nexus.Wallet.HasProvider() && !nexus.Wallet.Snapshot().Demo {
			loaded, err := nexus.Wallet.LoadAccounts(cmd.Context())
			if err != nil {
				return err
			}
			accounts = loaded
		}
		printAccounts(cmd, accounts)
		return nil
	},
}

var accountsSwitchCmd = &cobra.Command{
	Use:   "switch <index>",
	Short: "Make the account at index active",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[0])
		}
		if err := nexus.Wallet.SwitchAccount(cmd.Context(), index); err != nil {
			return err
		}
		printAccounts(cmd, nexus.Wallet.Snapshot().Accounts)
		return nil
	},
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Ask the provider to authorize more accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts, err := nexus.Wallet.AddAccount(cmd.Context())
		if err != nil {
			return err
		}
		printAccounts(cmd, accounts)
		return nil
	},
}

func printAccounts(cmd *cobra.Command, accounts []string) {
	active := nexus.Wallet.Address()
	for i, a := range accounts {
		marker := " "
		if strings.EqualFold(a, active) {
			marker = "*"
		}
		fprintf(cmd.OutOrStdout(), "%s %d  %s\n", marker, i, a)
	}
}

var signCmd = &cobra.Command{
	Use:   "sign <message>",
	Short: "Sign a message with the active account",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := nexus.Wallet.SignMessage(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fprintln(cmd.OutOrStdout(), sig)
		return nil
	},
}

var watchAssetCmd = &cobra.Command{
	Use:   "watch-asset <address> <symbol> [decimals]",
	Short: "Ask the provider to track an ERC-20 token",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		decimals := 18
		if len(args) == 3 {
			d, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid decimals %q", args[2])
			}
			decimals = d
		}
		added, err := nexus.Wallet.WatchAsset(cmd.Context(), args[0], args[1], decimals)
		if err != nil {
			return err
		}
		if !added {
			fprintln(cmd.OutOrStdout(), "Token was not added")
		}
		return nil
	},
}
