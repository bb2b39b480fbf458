package main

import (
	"fmt"
	"os"

	"hrms/internal/config"
	"hrms/pkg/logger"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "hrms",
	Short: "HRMS time tracking API",
	Long: `HRMS serves the time tracking API: graded role permissions,
time entries, timers, weekly timesheets and reports.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a config file (default: configs/config.yaml if present)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

// loadConfig reads configuration and installs the process logger.
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	logger.Init(logger.Config{Level: cfg.Logging.Level, JSON: cfg.Logging.JSON})
	return cfg, logger.Default(), nil
}

// @title           HRMS Time Tracking API
// @version         1.0
// @description     Graded role permissions, time entries, timers, weekly timesheets and reports.
// @host            localhost:8080
// @BasePath        /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
