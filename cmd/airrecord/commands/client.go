package commands

import (
	"fmt"
	"io"

	"github.com/airrecord-go/airrecord/internal/constants"
	"github.com/airrecord-go/airrecord/pkg/airrecord"
	"github.com/airrecord-go/airrecord/pkg/records"
	"github.com/spf13/viper"
)

// session is the registry built for one command run.
type session struct {
	registry *records.Registry
	metrics  *airrecord.MetricsCollector
	logger   *airrecord.ZapLogger
	output   string
}

// newSession builds a registry from the effective configuration. A base is
// required for every records command.
func newSession() (*session, error) {
	config := loadConfig()

	if config.APIKey == "" {
		return nil, constants.ErrNoAPIKey
	}

	if config.Base == "" {
		return nil, constants.ErrNoBaseID
	}

	output := config.Output
	if output == "" {
		output = constants.FormatTable
	}

	err := validateOutputFormat(output)
	if err != nil {
		return nil, err
	}

	logger, err := newCLILogger(viper.GetBool("verbose"))
	if err != nil {
		return nil, err
	}

	var metrics *airrecord.MetricsCollector
	if viper.GetBool("stats") {
		metrics = airrecord.NewMetricsCollector()
	}

	registry, err := records.NewRegistry(&airrecord.Config{
		APIKey:            config.APIKey,
		BaseID:            config.Base,
		BaseURL:           config.Endpoint,
		UserAgent:         "airrecord-cli/" + constants.Version,
		DisableThrottle:   config.NoThrottle,
		RequestsPerSecond: config.RequestsPerSecond,
		Debug:             viper.GetBool("verbose"),
		Logger:            logger,
		Metrics:           metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	return &session{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
		output:   output,
	}, nil
}

// newCLILogger logs warnings to stderr, or everything down to debug with
// verbose set.
func newCLILogger(verbose bool) (*airrecord.ZapLogger, error) {
	cfg := airrecord.LogConfig{Level: "warn"}
	if verbose {
		cfg = airrecord.LogConfig{Level: "debug", Development: true}
	}

	logger, err := airrecord.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	return airrecord.NewZapLogger(logger.Named("airrecord")), nil
}

func (s *session) table(name string) *records.Table {
	return s.registry.Table("", name)
}

// close prints request statistics when enabled and flushes the logger.
func (s *session) close(w io.Writer) error {
	defer func() { _ = s.logger.Sync() }()

	if s.metrics == nil {
		return nil
	}

	_, _ = fmt.Fprintln(w)

	return renderMetrics(w, s.output, s.metrics)
}
