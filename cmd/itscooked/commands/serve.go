package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/itscooked/internal/api"
	"github.com/jmylchreest/itscooked/internal/auth"
	"github.com/jmylchreest/itscooked/internal/logger"
	"github.com/jmylchreest/itscooked/internal/store"
	"github.com/jmylchreest/itscooked/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the recipe API server",
	Long: `Serve the recipe library API.

Migrations are applied on start. Every /api route requires an
Authorization: Bearer <token> header signed with the configured JWT
secret (see "itscooked token").

Examples:
  ITSCOOKED_JWT_SECRET=change-me itscooked serve --listen :8080 --db-path recipes.db`,
	PreRunE: bindSharedFlags,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.String("listen", ":8080", "address to listen on")
	flags.Duration("import-timeout", api.DefaultImportTimeout, "overall deadline for one import")
	addStoreFlags(flags)
	addAuthFlags(flags)

	_ = viper.BindPFlag("listen", flags.Lookup("listen"))
	_ = viper.BindPFlag("import_timeout", flags.Lookup("import-timeout"))
}

func runServe(cmd *cobra.Command, args []string) error {
	initLogger()

	verifier, err := newVerifier()
	if err != nil {
		logError("%v", err)
		return err
	}

	imp, err := newImporter()
	if err != nil {
		logger.Error("failed to initialize importer", "error", err)
		return err
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	s, err := store.OpenAndMigrate(startCtx, viper.GetString("db_path"))
	cancel()
	if err != nil {
		logger.Error("failed to open database", "path", viper.GetString("db_path"), "error", err)
		return err
	}
	defer func() { _ = s.Close() }()

	importTimeout := viper.GetDuration("import_timeout")
	handler := api.NewHandler(s, imp, importTimeout)
	server := api.NewServer(handler, verifier)

	httpServer := &http.Server{
		Addr:              viper.GetString("listen"),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      importTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server",
			"addr", httpServer.Addr,
			"version", version.String(),
			"import_timeout", importTimeout)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received signal", "signal", sig.String())
	case runErr = <-serverErrChan:
		logger.Error("server error", "error", runErr)
	}

	logger.Info("shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	} else {
		logger.Info("HTTP server stopped")
	}

	return runErr
}

func newVerifier() (*auth.Verifier, error) {
	secret := viper.GetString("jwt_secret")
	if secret == "" {
		return nil, errors.New("a JWT secret is required (--jwt-secret or ITSCOOKED_JWT_SECRET)")
	}
	return auth.NewVerifier(secret, viper.GetString("jwt_issuer"))
}
