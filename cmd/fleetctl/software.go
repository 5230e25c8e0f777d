package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/navgurukul/windows-rms-server/internal/db"
	"github.com/navgurukul/windows-rms-server/internal/services/software"
)

var softwareCmd = &cobra.Command{
	Use:   "software",
	Short: "Manage the software catalog",
}

var softwareSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the software.seed entries from config into the catalog",
	RunE:  runSoftwareSeed,
}

func init() {
	softwareCmd.AddCommand(softwareSeedCmd)
	rootCmd.AddCommand(softwareCmd)
}

func runSoftwareSeed(cmd *cobra.Command, _ []string) error {
	cfg, pool, err := openPool(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	if len(cfg.Software.Seed) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no software.seed entries configured")
		return nil
	}
	svc := software.NewService(db.New(pool), nil)
	n, err := svc.Seed(cmd.Context(), cfg.Software.Seed)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d software entries\n", n)
	return nil
}
