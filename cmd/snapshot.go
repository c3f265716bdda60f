package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mabhi256/hangdiag/internal/snapshot"
	"github.com/mabhi256/hangdiag/internal/splist"
	"github.com/mabhi256/hangdiag/utils"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect process snapshots",
}

var snapshotValidateCmd = &cobra.Command{
	Use:               "validate [dump-file]",
	Short:             "Validate a snapshot and count threads in the SPList fill",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: utils.CompleteFilesByExtension(snapshot.Extensions),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := snapshot.Open(args[0])
		if err != nil {
			return err
		}
		if len(snap.Threads) == 0 {
			return fmt.Errorf("%s: %w", args[0], snapshot.ErrNoThreads)
		}

		matched := 0
		for _, t := range snap.Threads {
			if splist.ContainsFrame(t, cfg.Rule.SignatureFrame) {
				matched++
			}
		}

		info, err := os.Stat(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ %s\n", utils.SanitizeTerminal(snap.Name))
		fmt.Fprintln(out, utils.FormatKeyValue("Size", utils.MemorySize(info.Size()).String(), 10))
		fmt.Fprintln(out, utils.FormatKeyValue("Threads", fmt.Sprint(len(snap.Threads)), 10))
		fmt.Fprintln(out, utils.FormatKeyValue("Frames", fmt.Sprint(snap.FrameCount()), 10))
		fmt.Fprintln(out, utils.FormatKeyValue("In fill", fmt.Sprint(matched), 10))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(snapshotCmd)

	snapshotCmd.AddCommand(snapshotValidateCmd)
}
