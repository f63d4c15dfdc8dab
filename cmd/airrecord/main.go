package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/airrecord-go/airrecord/cmd/airrecord/commands"
	"github.com/airrecord-go/airrecord/internal/constants"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "airrecord",
	Short: "Airtable records CLI",
	Long: `A command-line interface for reading and writing Airtable records.

Requests share one rate-limited client per API key, batch writes are split
into chunks of ten records, and list queries follow pagination offsets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.airrecord/config.yml)")
	rootCmd.PersistentFlags().StringP("api-key", "k", "", "Airtable API key")
	rootCmd.PersistentFlags().StringP("base", "b", "", "base id (app...)")
	rootCmd.PersistentFlags().String("endpoint", "", "API endpoint URL")
	rootCmd.PersistentFlags().StringP("output", "o", constants.FormatTable, "output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log HTTP traffic to stderr")
	rootCmd.PersistentFlags().Bool("no-throttle", false, "disable client-side rate limiting")
	rootCmd.PersistentFlags().Float64("rps", 0, "requests per second per API key (default 5)")
	rootCmd.PersistentFlags().Bool("stats", false, "print per-endpoint request statistics after the command")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("api_key", rootCmd.PersistentFlags().Lookup("api-key"))
	_ = viper.BindPFlag("base", rootCmd.PersistentFlags().Lookup("base"))
	_ = viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("no_throttle", rootCmd.PersistentFlags().Lookup("no-throttle"))
	_ = viper.BindPFlag("rps", rootCmd.PersistentFlags().Lookup("rps"))
	_ = viper.BindPFlag("stats", rootCmd.PersistentFlags().Lookup("stats"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewRecordsCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".airrecord")

		err = os.MkdirAll(configDir, constants.ConfigDirPerm)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating config directory: %v\n", err)
		}

		// Search config in ~/.airrecord/config.yml
		viper.AddConfigPath(configDir)
		viper.SetConfigType("yml")
		viper.SetConfigName("config")
	}

	// AIRRECORD_API_KEY, AIRRECORD_BASE, ...
	viper.SetEnvPrefix("AIRRECORD")
	viper.AutomaticEnv()
	_ = viper.BindEnv("api_key", "AIRRECORD_API_KEY", constants.APIKeyEnv)

	err := viper.ReadInConfig()
	if err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
