package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/casualjim/automata/internal/broker"
	"github.com/casualjim/automata/pkg/natsx"
	"github.com/casualjim/automata/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the automata location over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")
		workspace, _ := cmd.Flags().GetString("workspace")
		addr, _ := cmd.Flags().GetString("addr")
		withNATS, _ := cmd.Flags().GetBool("nats")
		subject, _ := cmd.Flags().GetString("nats-subject")

		options := []server.Option{server.WithWorkspace(workspace)}
		if withNATS {
			nc, err := natsx.NewClient()
			if err != nil {
				return err
			}
			defer nc.Drain() //nolint:errcheck

			topic := broker.NATS(nc).Topic(cmd.Context(), subject)
			options = append(options, server.WithHook(broker.PublishHook(topic)))
			slog.Info("publishing run events", slog.String("subject", subject))
		}

		srv, err := server.New(location, options...)
		if err != nil {
			return err
		}

		slog.Info("serving automata", slog.String("addr", addr), slog.String("location", location))
		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		return httpServer.ListenAndServe()
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "Address to listen on")
	serveCmd.Flags().Bool("nats", false, "Publish run events to NATS (uses NATS_URL)")
	serveCmd.Flags().String("nats-subject", "automata.runs", "NATS subject for run events")
	rootCmd.AddCommand(serveCmd)
}
