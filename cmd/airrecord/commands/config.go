package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/airrecord-go/airrecord/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the CLI configuration file.
type Config struct {
	APIKey            string  `json:"api_key,omitempty"  yaml:"api_key,omitempty"`
	Base              string  `json:"base,omitempty"     yaml:"base,omitempty"`
	Endpoint          string  `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Output            string  `json:"output,omitempty"   yaml:"output,omitempty"`
	NoThrottle        bool    `json:"no_throttle"        yaml:"no_throttle"`
	RequestsPerSecond float64 `json:"rps,omitempty"      yaml:"rps,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Show and change the airrecord CLI configuration",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the effective CLI configuration with the API key masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if config.APIKey != "" {
				config.APIKey = constants.MaskedSecret
			}

			return renderValue(cmd.OutOrStdout(), viper.GetString("output"), config, func(w io.Writer) error {
				return displayConfigTable(w, config)
			})
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value: api_key, base, endpoint, output, no_throttle or rps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := readConfigFile()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			shown := args[1]
			if args[0] == "api_key" {
				shown = constants.MaskedSecret
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), args[0], shown)
		},
	}
}

// loadConfig returns the effective configuration: flags, then environment,
// then the config file.
func loadConfig() *Config {
	return &Config{
		APIKey:            viper.GetString("api_key"),
		Base:              viper.GetString("base"),
		Endpoint:          viper.GetString("endpoint"),
		Output:            viper.GetString("output"),
		NoThrottle:        viper.GetBool("no_throttle"),
		RequestsPerSecond: viper.GetFloat64("rps"),
	}
}

// readConfigFile returns only what the config file holds, so saving it does
// not persist flags or environment values.
func readConfigFile() *Config {
	config := &Config{}

	path, err := configFilePath()
	if err != nil {
		return config
	}

	// path is derived from the --config flag or the user home directory
	// #nosec G304
	data, err := os.ReadFile(path)
	if err != nil {
		return config
	}

	_ = yaml.Unmarshal(data, config)

	return config
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ".airrecord", "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// configSetters maps each settable key to its assignment.
var configSetters = map[string]func(*Config, string) error{
	"api_key":  func(c *Config, v string) error { c.APIKey = v; return nil },
	"base":     func(c *Config, v string) error { c.Base = v; return nil },
	"endpoint": func(c *Config, v string) error { c.Endpoint = v; return nil },
	"output": func(c *Config, v string) error {
		err := validateOutputFormat(v)
		if err != nil {
			return err
		}

		c.Output = v

		return nil
	},
	"no_throttle": func(c *Config, v string) error {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid no_throttle value %q: %w", v, err)
		}

		c.NoThrottle = parsed

		return nil
	},
	"rps": func(c *Config, v string) error {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			return fmt.Errorf("invalid rps value %q: must be a non-negative number", v)
		}

		c.RequestsPerSecond = parsed

		return nil
	},
}

func setConfigValue(config *Config, key, value string) error {
	setter, ok := configSetters[key]
	if !ok {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	return setter(config, value)
}

func displayConfigTable(w io.Writer, config *Config) error {
	table := tablewriter.NewWriter(w)
	table.Header("Property", "Value")

	_ = table.Append([]string{propertyLabel("api_key"), valueOrNA(config.APIKey)})
	_ = table.Append([]string{propertyLabel("base"), valueOrNA(config.Base)})
	_ = table.Append([]string{propertyLabel("endpoint"), valueOrNA(config.Endpoint)})
	_ = table.Append([]string{propertyLabel("output"), valueOrNA(config.Output)})
	_ = table.Append([]string{propertyLabel("no_throttle"), strconv.FormatBool(config.NoThrottle)})

	rps := constants.NotAvailable
	if config.RequestsPerSecond > 0 {
		rps = strconv.FormatFloat(config.RequestsPerSecond, 'f', -1, 64)
	}

	_ = table.Append([]string{propertyLabel("rps"), rps})

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func outputConfigUpdateResult(w io.Writer, key, value string) error {
	result := map[string]string{
		"action": "set",
		"key":    key,
		"value":  value,
	}

	return renderValue(w, viper.GetString("output"), result, func(w io.Writer) error {
		table := tablewriter.NewWriter(w)
		table.Header("Property", "Value")
		_ = table.Append([]string{"Action", "set"})
		_ = table.Append([]string{"Key", key})
		_ = table.Append([]string{"Value", value})

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render update results table: %w", err)
		}

		return nil
	})
}
