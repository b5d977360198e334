package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/internal/msgfmt"
	"github.com/casualjim/automata/pkg/uuidx"
	"github.com/casualjim/automata/spec"
)

var runCmd = &cobra.Command{
	Use:   "run <id> <request>",
	Short: "Run an automaton with a request",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, request := args[0], args[1]
		location, _ := cmd.Flags().GetString("location")
		workspace, _ := cmd.Flags().GetString("workspace")
		requester, _ := cmd.Flags().GetString("requester")
		session, _ := cmd.Flags().GetString("session")
		if session == "" {
			session = uuidx.New().String()
		}

		hook, _ := msgfmt.Console[string](cmd.Context(), cmd.OutOrStdout())
		loader, err := spec.New(location, spec.WithWorkspace(workspace), spec.WithHook(hook))
		if err != nil {
			return err
		}

		a, err := loader.Build(id, requester, session)
		if err != nil {
			return err
		}

		result, err := a.(api.Runnable).Run(cmd.Context(), request)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	runCmd.Flags().String("requester", "user", "Requester id recorded in session logs")
	runCmd.Flags().String("session", "", "Requester session id, generated when empty")
	rootCmd.AddCommand(runCmd)
}
