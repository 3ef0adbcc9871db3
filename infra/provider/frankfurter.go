package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amirasaad/fxconvert/infra/metrics"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	opCurrencies = "currencies"
	opLatest     = "latest"

	maxBodyBytes    = 1 << 20
	maxErrorExcerpt = 256
)

// FrankfurterProvider implements provider.RateClient against the Frankfurter API
// (https://www.frankfurter.app). The API needs no key.
type FrankfurterProvider struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewFrankfurterProvider creates a Frankfurter client from config. The
// transport is instrumented with otelhttp; spans are recorded only when a
// tracer provider is installed.
func NewFrankfurterProvider(cfg config.Frankfurter, logger *slog.Logger, m *metrics.Metrics) *FrankfurterProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrankfurterProvider{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:  logger.With("provider", "frankfurter"),
		metrics: m,
	}
}

// ListCurrencies fetches the code -> name table from the currencies resource.
func (p *FrankfurterProvider) ListCurrencies(ctx context.Context) (currency.Table, error) {
	var table currency.Table
	if err := p.get(ctx, opCurrencies, nil, &table); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, &provider.DecodeError{Op: opCurrencies, Err: errors.New("response is not a currency object")}
	}
	p.logger.Debug("Currencies fetched", "count", len(table))
	return table, nil
}

// GetLatestRate converts amount between two currencies using the latest resource.
func (p *FrankfurterProvider) GetLatestRate(
	ctx context.Context,
	amount float64,
	from, to string,
) (*provider.ConversionResponse, error) {
	query := url.Values{}
	query.Set("amount", currency.FormatAmount(amount))
	query.Set("from", from)
	query.Set("to", to)

	var resp provider.ConversionResponse
	if err := p.get(ctx, opLatest, query, &resp); err != nil {
		return nil, err
	}
	// null, {} and error objects decode without complaint; only a missing
	// code inside a present rates object means "no rate".
	if resp.Rates == nil {
		return nil, &provider.DecodeError{Op: opLatest, Err: errors.New("response has no rates object")}
	}
	p.logger.Debug("Latest rate fetched",
		"from", from,
		"to", to,
		"amount", amount,
		"date", resp.Date,
		"rates", len(resp.Rates),
	)
	return &resp, nil
}

func (p *FrankfurterProvider) get(ctx context.Context, op string, query url.Values, out any) (err error) {
	start := time.Now()
	defer func() {
		p.metrics.ObserveUpstream(op, start, err)
		if err != nil {
			p.logger.Warn("Exchange-rate request failed", "op", op, "error", err)
		}
	}()

	endpoint := p.baseURL + "/" + op
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	p.logger.Debug("Requesting exchange-rate API", "op", op, "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &provider.TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return &provider.TransportError{Op: op, Err: fmt.Errorf("failed to make request: %w", err)}
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &provider.TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &provider.TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       excerpt(body),
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &provider.DecodeError{Op: op, Err: err}
	}
	return nil
}

func excerpt(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorExcerpt {
		s = s[:maxErrorExcerpt] + "..."
	}
	return s
}

var _ provider.RateClient = (*FrankfurterProvider)(nil)
