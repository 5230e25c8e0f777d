package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/navgurukul/windows-rms-server/internal/db"
	"github.com/navgurukul/windows-rms-server/internal/services/devices"
)

var (
	deviceUsername string
	deviceMAC      string
	deviceLocation string
	listLimit      int
	listOffset     int
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage registered devices",
}

var devicesRegisterCmd = &cobra.Command{
	Use:   "register SERIAL_NUMBER",
	Short: "Register a device so its usage reports are accepted",
	Args:  cobra.ExactArgs(1),
	RunE:  runDevicesRegister,
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered devices",
	RunE:  runDevicesList,
}

func init() {
	devicesRegisterCmd.Flags().StringVar(&deviceUsername, "username", "", "user the device is assigned to")
	devicesRegisterCmd.Flags().StringVar(&deviceMAC, "mac", "", "device MAC address")
	devicesRegisterCmd.Flags().StringVar(&deviceLocation, "location", "", "device location")
	devicesListCmd.Flags().IntVar(&listLimit, "limit", 100, "maximum devices to list")
	devicesListCmd.Flags().IntVar(&listOffset, "offset", 0, "devices to skip")
	devicesCmd.AddCommand(devicesRegisterCmd, devicesListCmd)
	rootCmd.AddCommand(devicesCmd)
}

func runDevicesRegister(cmd *cobra.Command, args []string) error {
	cfg, pool, err := openPool(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := devices.NewService(db.New(pool), devices.CacheConfig{Size: cfg.Devices.CacheSize, TTL: cfg.Devices.CacheTTL})
	dev, err := svc.Register(cmd.Context(), devices.RegisterInput{
		Username:     deviceUsername,
		SerialNumber: args[0],
		MacAddress:   deviceMAC,
		Location:     deviceLocation,
	})
	if err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "registered device %d (%s)\n", dev.ID, dev.SerialNumber)
	return nil
}

func runDevicesList(cmd *cobra.Command, _ []string) error {
	cfg, pool, err := openPool(cmd.Context())
	if err != nil {
		return err
	}
	defer pool.Close()

	svc := devices.NewService(db.New(pool), devices.CacheConfig{Size: cfg.Devices.CacheSize, TTL: cfg.Devices.CacheTTL})
	items, err := svc.List(cmd.Context(), listLimit, listOffset)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSERIAL\tUSERNAME\tLOCATION\tACTIVE")
	for _, d := range items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", d.ID, d.SerialNumber, d.Username, d.Location, d.IsActive)
	}
	return w.Flush()
}
