package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/datalens-cli/internal/history"
	"github.com/KaramelBytes/datalens-cli/internal/pipeline"
	"github.com/KaramelBytes/datalens-cli/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for uploads and report history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := applyInputFlags(cmd); err != nil {
			return err
		}
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		// validate dataset options once so request handling cannot fail on them
		if _, err := newOrchestrator(eng); err != nil {
			return err
		}
		addr := cfg.ServerAddr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		srv := server.New(server.Config{
			Addr:           addr,
			UploadMaxBytes: cfg.UploadMaxBytes,
			RequestTimeout: time.Duration(cfg.RequestTimeoutSec) * time.Second,
		}, func() *pipeline.Orchestrator {
			o, _ := newOrchestrator(eng)
			return o
		}, history.NewStore(cfg.HistoryDir), log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server_addr)")
	registerInputFlags(serveCmd)
}
