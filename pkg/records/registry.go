package records

import (
	"sync"

	"github.com/airrecord-go/airrecord/internal/constants"
	arhttp "github.com/airrecord-go/airrecord/internal/http"
	"github.com/airrecord-go/airrecord/pkg/airrecord"
)

// Registry owns the API clients and the defaults every table descriptor
// falls back to. Tables sharing an API key share one client and therefore
// one rate limiter.
type Registry struct {
	config *airrecord.Config

	mu      sync.Mutex
	clients map[string]*arhttp.Client
}

// NewRegistry creates a registry from config.
func NewRegistry(config *airrecord.Config) (*Registry, error) {
	if config == nil {
		return nil, airrecord.ErrRegistryConfigNeeded
	}

	return &Registry{
		config:  config,
		clients: make(map[string]*arhttp.Client),
	}, nil
}

// Config returns the registry configuration.
func (r *Registry) Config() *airrecord.Config {
	return r.config
}

// Table returns a descriptor for tableName in baseID using the default API
// key. An empty baseID uses the default base.
func (r *Registry) Table(baseID, tableName string) *Table {
	return r.NewTable(TableConfig{BaseID: baseID, TableName: tableName})
}

// NewTable creates a descriptor from cfg.
func (r *Registry) NewTable(cfg TableConfig) *Table {
	return &Table{
		registry:  r,
		name:      cfg.Name,
		baseID:    cfg.BaseID,
		tableName: cfg.TableName,
		apiKey:    cfg.APIKey,
		parent:    cfg.Parent,
	}
}

// Client returns the API client for apiKey, creating it on first use.
func (r *Registry) Client(apiKey string) *arhttp.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[apiKey]; ok {
		return client
	}

	client := arhttp.NewClient(r.config.EndpointURL(), apiKey, r.clientOptions()...)
	r.clients[apiKey] = client

	if r.config.Logger != nil {
		r.config.Logger.Debug("created API client", map[string]interface{}{
			"endpoint":  client.BaseURL(),
			"throttled": r.config.Throttle(),
		})
	}

	return client
}

func (r *Registry) clientOptions() []arhttp.Option {
	cfg := r.config

	waitMin := cfg.RetryWaitMin
	if waitMin == 0 {
		waitMin = constants.DefaultRetryWaitMin
	}

	waitMax := cfg.RetryWaitMax
	if waitMax == 0 {
		waitMax = constants.DefaultRetryWaitMax
	}

	opts := []arhttp.Option{
		arhttp.WithUserAgent(cfg.EffectiveUserAgent()),
		arhttp.WithRetryConfig(cfg.RetryMax, waitMin, waitMax),
		arhttp.WithDebug(cfg.Debug),
	}

	if cfg.HTTPTimeout > 0 {
		opts = append(opts, arhttp.WithTimeout(cfg.HTTPTimeout))
	}

	if cfg.Logger != nil {
		opts = append(opts, arhttp.WithLogger(cfg.Logger))
	}

	if cfg.Metrics != nil {
		opts = append(opts, arhttp.WithMetrics(cfg.Metrics))
	}

	if cfg.Throttle() {
		opts = append(opts, arhttp.WithRateLimiter(airrecord.NewRateLimiter(cfg.RateLimit())))
	}

	return opts
}
