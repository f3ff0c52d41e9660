package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avelmore/hookgate/internal/turnstate"
)

var stateCmd = &cobra.Command{
	Use:   "state [clear]",
	Short: "Inspect or clear the current turn's file-change state",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runState,
}

func runState(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	store, err := turnstate.NewStore()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		if args[0] != "clear" {
			return fmt.Errorf("unknown state action %q", args[0])
		}
		return store.Clear(cwd)
	}

	state, err := store.Load(cwd)
	if err != nil {
		return err
	}

	if state.IsEmpty() {
		fmt.Fprintln(cmd.OutOrStdout(), "no turn state")
		return nil
	}

	for _, path := range state.Changed {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	for toolUseID, paths := range state.Pending {
		for path := range paths {
			fmt.Fprintf(cmd.OutOrStdout(), "pending (%s): %s\n", toolUseID, path)
		}
	}
	return nil
}
