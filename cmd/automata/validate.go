package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casualjim/automata/spec"
)

var validateCmd = &cobra.Command{
	Use:   "validate [id...]",
	Short: "Build automata and report rank violations",
	Long: `validate builds the named automata (or every automaton at the
location) without running them. Spec errors, unknown references, and rank
violations fail the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")

		loader, err := spec.New(location)
		if err != nil {
			return err
		}

		ids := args
		if len(ids) == 0 {
			ids, err = loader.IDs()
			if err != nil {
				return err
			}
		}

		var failed bool
		for _, id := range ids {
			if _, err := loader.Build(id, "validator", "validate"); err != nil {
				failed = true
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", id, err)
				continue
			}
			sp, _ := loader.Load(id)
			fmt.Fprintf(cmd.OutOrStdout(), "OK   %s (rank %d, %s)\n", id, sp.Rank, sp.Runner)
		}

		if failed {
			return fmt.Errorf("validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
