package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "automata",
	Short: "Run hierarchies of ranked agents",
	Long: `automata loads agent hierarchies from YAML specs and runs them.
Every automaton has an integer rank and may only delegate to sub-automata
and tools of strictly lower rank, so delegation always descends.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log := zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: slog.LevelInfo}),
	))

	rootCmd.PersistentFlags().String("location", "demo_automata", "Directory containing the automata specs")
	rootCmd.PersistentFlags().String("workspace", "workspace", "Directory for file artifacts written by builtin functions")
}
