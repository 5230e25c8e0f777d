package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/navgurukul/windows-rms-server/internal/config"
	"github.com/navgurukul/windows-rms-server/internal/database"
)

var (
	configPath string
	envFile    string
)

var rootCmd = &cobra.Command{
	Use:   "fleetctl",
	Short: "Administer the fleet usage backend",
	Long: `fleetctl manages the fleet backend database directly: schema migrations,
device registration, the software catalog and the admin API token.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./fleet.yaml or $FLEET_CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading config")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.Options{ConfigFile: configPath, EnvFile: envFile})
}

func openPool(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, pool, nil
}
