package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"drivetime/internal/config"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "drivetime",
	Short: "Traffic-aware travel-time estimates across a time window",
	Long: "drivetime queries the Google Maps directions API for optimistic and\n" +
		"pessimistic travel times across a departure-time grid, retries failures,\n" +
		"and plots the result in the terminal.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable debug logging")
	rootCmd.AddCommand(plotCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the config file when given, else the defaults plus
// the GOOGLE_MAPS_API_KEY environment variable.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	return config.Default(), nil
}
