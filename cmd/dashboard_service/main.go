package main

import (
	"os"

	"github.com/ridloal/product-dashboard/internal/platform/config"
	"github.com/ridloal/product-dashboard/internal/platform/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dashboard_service",
	Short: "Product management dashboard",
	Long:  "Serves the product dashboard backed by an in-memory product store with simulated latency.",
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.Error("Failed to load .env file", err, nil)
	}
	rootCmd.AddCommand(newServeCmd(), newSeedCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
