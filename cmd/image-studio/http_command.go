package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironsheep/image-studio-mcp/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newHTTPCommand(ctx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the studio tools over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.HTTPAddr
			}
			log := ctx.logger()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := ctx.buildStack(runCtx, true)
			if err != nil {
				return err
			}
			defer st.close()

			if log.IsLevelEnabled(logrus.DebugLevel) {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			router := httpapi.NewRouter(httpapi.Options{
				Tools:    st.tools,
				Uploader: st.uploader,
				Token:    cfg.HTTPToken,
				Timeout:  cfg.HTTPTimeout,
				Logger:   log,
			})

			srv := new(httpapi.Server)
			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run(addr, router, cfg.HTTPTimeout)
			}()
			log.WithField("addr", addr).Info("HTTP server started")

			select {
			case err := <-errCh:
				return err
			case <-runCtx.Done():
			}

			log.Info("shutting down HTTP server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Error("error occurred on server shutting down")
				return err
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (defaults to http_addr)")
	return cmd
}
