package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/staysearch/internal/logger"
	"github.com/jmylchreest/staysearch/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve searches over HTTP",
	Long: `Serve exposes the search modes as JSON endpoints:

  POST /v1/search/bounds    {"query": {...}, "currency": "USD", "first_page": false}
  POST /v1/search/query     {"query": {...}, "currency": "EUR"}
  POST /v1/search/flexible  {"query": {...}, "standardize": true, "use_cache": true}
  GET  /healthz
  GET  /version

Each request runs one full pagination before responding.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("listen", ":8080", "listen address")
	flags.Duration("write-timeout", 5*time.Minute, "response write timeout (bounds one full search)")

	_ = viper.BindPFlag("serve.listen", flags.Lookup("listen"))
	_ = viper.BindPFlag("serve.write_timeout", flags.Lookup("write-timeout"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, cleanup, err := newClient()
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr: viper.GetString("serve.listen"),
		Handler: server.New(client, server.Defaults{
			Currency: strings.ToUpper(viper.GetString("currency")),
			Proxy:    viper.GetString("proxy"),
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      viper.GetDuration("serve.write_timeout"),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
