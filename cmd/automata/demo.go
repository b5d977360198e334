package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/casualjim/automata/api"
	"github.com/casualjim/automata/internal/msgfmt"
	"github.com/casualjim/automata/spec"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the quiz_creator demo",
	Long: `demo builds the quiz_creator hierarchy from the automata location
and asks it for a math quiz. The quiz lands in the workspace as
math_quiz.txt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		workspace, _ := cmd.Flags().GetString("workspace")

		hook, _ := msgfmt.Console[string](cmd.Context(), cmd.OutOrStdout())
		loader, err := spec.New(location, spec.WithWorkspace(workspace), spec.WithHook(hook))
		if err != nil {
			return err
		}

		creator, err := loader.Build("quiz_creator", "human_tester", "demo-session")
		if err != nil {
			return err
		}

		result, err := creator.(api.Runnable).Run(cmd.Context(), "Create a math quiz with 3 questions and save it to a file.")
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
}
