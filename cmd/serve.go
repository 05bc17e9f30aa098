package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veerababu74/spunkads/internal/sheet"
)

var servePort int

// openStore builds the sheet store selected by server.driver and runs its
// migration.
func openStore(cmd *cobra.Command) (sheet.Store, error) {
	ctx := cmd.Context()

	var store sheet.Store
	switch cfg.Server.Driver {
	case "sqlite", "":
		s, err := sheet.NewSQLite(cfg.Server.SQLitePath)
		if err != nil {
			return nil, err
		}
		store = s
	case "postgres":
		s, err := sheet.NewPostgres(ctx, cfg.Server.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, eris.Errorf("unknown server driver %q", cfg.Server.Driver)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sheet upload endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer store.Close() //nolint:errcheck

		handler := sheet.NewHandler(store,
			sheet.WithSpreadsheetURL(cfg.Server.SpreadsheetURL))

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: sheet.NewServer(handler).Router(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting sheet endpoint",
			zap.Int("port", port),
			zap.String("driver", cfg.Server.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
