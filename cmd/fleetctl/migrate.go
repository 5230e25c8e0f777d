package main

import (
	"github.com/spf13/cobra"

	"github.com/navgurukul/windows-rms-server/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|status|redo|version] [args...]",
	Short: "Run database migrations",
	Args:  cobra.MinimumNArgs(0),
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	command := "up"
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}
	return database.Migrate(cmd.Context(), cfg.Database, command, args...)
}
