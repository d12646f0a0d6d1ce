package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"impactscan/internal/config"
	"impactscan/internal/logger"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "impactscan",
	Short: "Detect and synthesize legislative conflicts against a corporate document",
	Long: `impactscan scans a corporate document against a corpus of legislative
bills, finds candidate page-to-article conflicts via embedding similarity,
and asks an LLM to extract and consolidate the legal impact of each one.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .impactscan.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	_ = viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	level := cfg.Logging.Level
	if cfg.App.Debug {
		level = "debug"
	}
	logger.Init(level)
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
