package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/itscooked/internal/logger"
	"github.com/jmylchreest/itscooked/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long: `Create or upgrade the recipe database schema and print the resulting
version. "serve" does this on start; run it separately to prepare a
database ahead of time.`,
	PreRunE: bindSharedFlags,
	RunE:    runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	addStoreFlags(migrateCmd.Flags())
}

func runMigrate(cmd *cobra.Command, args []string) error {
	initLogger()

	path := viper.GetString("db_path")
	s, err := store.Open(cmd.Context(), path)
	if err != nil {
		logger.Error("failed to open database", "path", path, "error", err)
		return err
	}
	defer func() { _ = s.Close() }()

	version, dirty, err := s.Migrate()
	if err != nil {
		logger.Error("migration failed", "path", path, "error", err)
		return err
	}

	state := "clean"
	if dirty {
		state = "dirty"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d (%s)\n", path, version, state)
	return nil
}
