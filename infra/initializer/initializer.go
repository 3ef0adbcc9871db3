// Package initializer wires configuration into the running dependencies of
// the converter.
package initializer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"

	"github.com/amirasaad/fxconvert/infra/metrics"
	infra_provider "github.com/amirasaad/fxconvert/infra/provider"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/amirasaad/fxconvert/pkg/service/conversion"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Deps groups everything a front end needs.
type Deps struct {
	Logger     *slog.Logger
	Registry   *prometheus.Registry
	Metrics    *metrics.Metrics
	RateClient provider.RateClient
	Service    *conversion.Service

	// InitialLoad is the currency load started during initialization.
	InitialLoad *conversion.Task
}

// Option customizes InitializeDependencies.
type Option func(*options)

type options struct {
	logOutput io.Writer
	client    provider.RateClient
}

// WithLogOutput sends log output to w instead of stdout.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOutput = w }
}

// WithRateClient replaces the Frankfurter client.
func WithRateClient(c provider.RateClient) Option {
	return func(o *options) { o.client = c }
}

// InitializeDependencies initializes all the application dependencies and
// starts loading the currency table. It does not wait for the load.
func InitializeDependencies(cfg *config.App, opts ...Option) (*Deps, error) {
	o := options{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(&o)
	}
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if o.client == nil {
		if _, err := url.ParseRequestURI(cfg.Frankfurter.BaseURL); err != nil {
			return nil, fmt.Errorf("invalid FRANKFURTER_BASE_URL: %w", err)
		}
	}

	deps := &Deps{}
	deps.Logger = setupLogger(cfg.Log, o.logOutput)

	deps.Registry = prometheus.NewRegistry()
	deps.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	deps.Metrics = metrics.New(deps.Registry)

	deps.RateClient = o.client
	if deps.RateClient == nil {
		deps.RateClient = infra_provider.NewFrankfurterProvider(cfg.Frankfurter, deps.Logger, deps.Metrics)
	}

	deps.Service = conversion.NewService(deps.RateClient, deps.Logger, deps.Metrics)
	deps.InitialLoad = deps.Service.LoadCurrencies()

	deps.Logger.Info("Dependencies initialized",
		"env", cfg.Env,
		"upstream", cfg.Frankfurter.BaseURL,
	)
	return deps, nil
}

// Close stops the conversion service.
func (d *Deps) Close() {
	if d.Service != nil {
		d.Service.Close()
	}
}
