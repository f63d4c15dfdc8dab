package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/airrecord-go/airrecord/internal/constants"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		apiKey string
		base   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key",
		Long:  "Prompt for an Airtable API key and store it, with an optional default base, in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if apiKey == "" {
				prompted, err := promptAPIKey(cmd.ErrOrStderr())
				if err != nil {
					return err
				}

				apiKey = prompted
			}

			config := readConfigFile()

			err := storeCredentials(config, apiKey, base)
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "API key saved")

			return nil
		},
	}

	cmd.Flags().StringVar(&apiKey, "key", "", "API key (prompted when omitted)")
	cmd.Flags().StringVar(&base, "base-id", "", "default base id to store")

	return cmd
}

// promptAPIKey reads the key without echo from a terminal, or as a line
// from piped stdin.
func promptAPIKey(prompt io.Writer) (string, error) {
	_, _ = fmt.Fprint(prompt, "API key: ")

	fd := int(os.Stdin.Fd())

	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(prompt)

		if err != nil {
			return "", fmt.Errorf("failed to read API key: %w", err)
		}

		return strings.TrimSpace(string(raw)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read API key: %w", err)
	}

	return strings.TrimSpace(line), nil
}

func storeCredentials(config *Config, apiKey, base string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return constants.ErrEmptyAPIKey
	}

	config.APIKey = apiKey

	if base != "" {
		config.Base = base
	}

	return nil
}
