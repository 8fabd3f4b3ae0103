package main

import (
	"github.com/spf13/cobra"

	"OmnichainNexus/internal/airdrop"
	"OmnichainNexus/internal/notifier"
)

func init() {
	rootCmd.AddCommand(tasksCmd, airdropCmd)
	tasksCmd.AddCommand(tasksCompleteCmd, tasksUndoCmd, tasksVisitCmd)
	airdropCmd.AddCommand(airdropClaimCmd, airdropResetCmd)
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List the airdrop tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		printTasks(cmd)
		return nil
	},
}

var tasksCompleteCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Mark a task completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleTask(cmd, args[0], true)
	},
}

var tasksUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Mark a task not completed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return toggleTask(cmd, args[0], false)
	},
}

var tasksVisitCmd = &cobra.Command{
	Use:   "visit <id>",
	Short: "Visit a social task link and complete the task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := nexus.Airdrop.VisitSocial(cmd.Context(), args[0]); err != nil {
			return err
		}
		printTasks(cmd)
		return nil
	},
}

func toggleTask(cmd *cobra.Command, id string, completed bool) error {
	if err := nexus.Airdrop.ToggleTask(id, completed); err != nil {
		return err
	}
	printTasks(cmd)
	return nil
}

func printTasks(cmd *cobra.Command) {
	snap := nexus.Airdrop.Snapshot()
	out := cmd.OutOrStdout()
	for _, t := range snap.Tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		line := mark + " " + t.ID + "  " + t.Title + "  +" + t.Reward.String()
		if link, ok := airdrop.Link(t.ID); ok {
			line += "  " + link.URL
		}
		fprintln(out, line)
	}
	label, _ := nexus.Airdrop.ClaimLabel()
	fprintf(out, "%.0f%% Complete | %s\n", snap.Percent, label)
}

var airdropCmd = &cobra.Command{
	Use:   "airdrop",
	Short: "Airdrop status and claim",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fprint(cmd.OutOrStdout(), notifier.FormatAirdropStatus(nexus.Airdrop.Snapshot(),
			nexus.Wallet.Network().NativeCurrency.Symbol))
		return nil
	},
}

var airdropClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Claim the airdrop reward of the completed tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return nexus.Airdrop.Claim(cmd.Context())
	},
}

var airdropResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear task progress and the claimed flag",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		nexus.Airdrop.Reset()
		return nil
	},
}
