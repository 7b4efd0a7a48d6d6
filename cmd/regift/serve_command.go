package main

import (
	"strings"

	"github.com/spf13/cobra"

	"regift/internal/api"
	"regift/internal/convert"
	"regift/internal/logging"
	"regift/internal/metrics"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP conversion API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if b := strings.TrimSpace(bind); b != "" {
				cfg.API.Bind = b
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openHistory()
			if err != nil {
				return err
			}
			var reader api.HistoryReader
			if store != nil {
				defer store.Close()
				reader = store
			}

			m := metrics.New()
			conv, err := convert.NewFromConfig(cfg, store, m, logger)
			if err != nil {
				return err
			}
			srv, err := api.NewServer(cfg, conv, reader, m, logger)
			if err != nil {
				return err
			}

			runCtx := baseContext(cmd)
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			srv.Stop()
			logger.Info("regift server shutting down", logging.String("address", srv.Addr()))
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (default from config)")
	return cmd
}
