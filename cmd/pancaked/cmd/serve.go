package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/openalpha/pancake/api"
	"github.com/openalpha/pancake/offchain/updater"
)

const (
	flagAddr     = "addr"
	flagNoUpdate = "no-updater"
)

// ServeCmd runs the HTTP/WebSocket API and the scheduled updater
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pool API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := openNode(cmd)
			if err != nil {
				return err
			}
			defer n.Close()

			cfg := n.Config()
			apiConfig := &api.Config{
				ListenAddr:   cfg.API.ListenAddr,
				ReadTimeout:  cfg.API.ReadTimeout,
				WriteTimeout: cfg.API.WriteTimeout,
			}
			if addr, _ := cmd.Flags().GetString(flagAddr); addr != "" {
				apiConfig.ListenAddr = addr
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			server := api.NewServer(n.App, n.history, apiConfig, n.logger)
			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start(ctx)
			}()

			noUpdate, _ := cmd.Flags().GetBool(flagNoUpdate)
			if cfg.Updater.Enabled && !noUpdate {
				caller, err := resolveAddress(cfg.Updater.Caller)
				if err != nil {
					return err
				}
				u := updater.New(n.App, caller, n.logger)
				if err := u.Register(cfg.Updater.Cron); err != nil {
					return err
				}
				u.Start()
				defer u.Stop()
			}

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(quit)

			select {
			case <-quit:
				n.logger.Info("shutting down server")
			case err := <-errCh:
				if err != nil {
					return err
				}
			}

			cancel()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			return server.Stop(shutdownCtx)
		},
	}
	cmd.Flags().String(flagAddr, "", "listen address (default from config)")
	cmd.Flags().Bool(flagNoUpdate, false, "do not run the scheduled updater")
	return cmd
}
