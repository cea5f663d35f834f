package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ByLCY/inkwell/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP preview server",
	Long:  `Serve POST /compile against one shared environment; request options default to the [render] config`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	addRenderFlags(serveCmd)
	serveCmd.Flags().String("addr", "", "listen address (overrides [server].addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("failed to get addr flag: %w", err)
	}
	if addr != "" {
		a.cfg.Server.Addr = addr
	}
	defer a.log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	fmt.Fprintf(cmd.OutOrStdout(), "preview server on %s\n", a.cfg.Server.Addr)
	return server.New(a.env, a.cfg).Start(ctx)
}
