package provider

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/infra/metrics"
	fixturescurrency "github.com/amirasaad/fxconvert/internal/fixtures/currency"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) (*FrankfurterProvider, *metrics.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m := metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Frankfurter{
		BaseURL:     srv.URL + "/",
		HTTPTimeout: 2 * time.Second,
		UserAgent:   "fxconvert-test",
	}
	return NewFrankfurterProvider(cfg, logger, m), m
}

func TestFrankfurterProvider_ListCurrencies(t *testing.T) {
	p, m := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/currencies", r.URL.Path)
		assert.Equal(t, "fxconvert-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"BRL":"Brazilian Real","EUR":"Euro","USD":"United States Dollar"}`)
	})

	table, err := p.ListCurrencies(context.Background())
	require.NoError(t, err)
	assert.Len(t, table, 3)
	assert.Equal(t, "Brazilian Real", table["BRL"])
	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("currencies", "ok")), 0)
}

func TestFrankfurterProvider_ListCurrencies_FullTable(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(fixturescurrency.RawTable())
	})

	table, err := p.ListCurrencies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, fixturescurrency.MustLoadTable(), table)

	order := table.DisplayOrder(0)
	assert.Equal(t, currency.PriorityCodes, order[:len(currency.PriorityCodes)])
	assert.Equal(t, "BGN", order[len(currency.PriorityCodes)])
	assert.Len(t, table.DisplayOrder(currency.DefaultDisplayLimit), len(table))
}

func TestFrankfurterProvider_GetLatestRate(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("amount"))
		assert.Equal(t, "USD", r.URL.Query().Get("from"))
		assert.Equal(t, "BRL", r.URL.Query().Get("to"))
		_, _ = io.WriteString(w, `{"amount":100.0,"base":"USD","date":"2024-05-17","rates":{"BRL":512.34}}`)
	})

	resp, err := p.GetLatestRate(context.Background(), 100, "USD", "BRL")
	require.NoError(t, err)
	assert.InDelta(t, 100.0, resp.Amount, 1e-9)
	assert.Equal(t, "USD", resp.Base)
	assert.Equal(t, "2024-05-17", resp.Date)

	rate, ok := resp.Rate("BRL")
	assert.True(t, ok)
	assert.InDelta(t, 512.34, rate, 1e-9)
}

func TestFrankfurterProvider_FractionalAmountQuery(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "0.1", r.URL.Query().Get("amount"))
		_, _ = io.WriteString(w, `{"amount":0.1,"base":"EUR","date":"2024-05-17","rates":{"USD":0.108}}`)
	})

	_, err := p.GetLatestRate(context.Background(), 0.1, "EUR", "USD")
	require.NoError(t, err)
}

func TestFrankfurterProvider_EmptyRatesIsNotAnError(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"amount":1.0,"base":"USD","date":"2024-05-17","rates":{}}`)
	})

	resp, err := p.GetLatestRate(context.Background(), 1, "USD", "XAU")
	require.NoError(t, err)
	_, ok := resp.Rate("XAU")
	assert.False(t, ok)
}

func TestFrankfurterProvider_NonSuccessStatus(t *testing.T) {
	p, m := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"not found"}`)
	})

	_, err := p.GetLatestRate(context.Background(), 10, "USD", "XXX")
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrTransport)

	var te *provider.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
	assert.Equal(t, `{"message":"not found"}`, te.Body)
	assert.InDelta(t, 1, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("latest", "error")), 0)
}

func TestFrankfurterProvider_MalformedBody(t *testing.T) {
	testCases := []struct {
		desc string
		body string
		call func(p *FrankfurterProvider) error
	}{
		{
			desc: "currencies truncated",
			body: `{"USD":`,
			call: func(p *FrankfurterProvider) error {
				_, err := p.ListCurrencies(context.Background())
				return err
			},
		},
		{
			desc: "currencies null",
			body: `null`,
			call: func(p *FrankfurterProvider) error {
				_, err := p.ListCurrencies(context.Background())
				return err
			},
		},
		{
			desc: "latest wrong shape",
			body: `{"rates":{"BRL":"lots"}}`,
			call: func(p *FrankfurterProvider) error {
				_, err := p.GetLatestRate(context.Background(), 1, "USD", "BRL")
				return err
			},
		},
		{
			desc: "latest null",
			body: `null`,
			call: func(p *FrankfurterProvider) error {
				_, err := p.GetLatestRate(context.Background(), 100, "USD", "BRL")
				return err
			},
		},
		{
			desc: "latest empty object",
			body: `{}`,
			call: func(p *FrankfurterProvider) error {
				_, err := p.GetLatestRate(context.Background(), 100, "USD", "BRL")
				return err
			},
		},
		{
			desc: "latest error object",
			body: `{"message":"not found"}`,
			call: func(p *FrankfurterProvider) error {
				_, err := p.GetLatestRate(context.Background(), 100, "USD", "BRL")
				return err
			},
		},
		{
			desc: "latest rates null",
			body: `{"amount":1,"base":"USD","rates":null}`,
			call: func(p *FrankfurterProvider) error {
				_, err := p.GetLatestRate(context.Background(), 100, "USD", "BRL")
				return err
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tc.body)
			})
			err := tc.call(p)
			require.Error(t, err)
			assert.ErrorIs(t, err, provider.ErrDecode)
			assert.False(t, provider.IsTransportError(err))
		})
	}
}

func TestFrankfurterProvider_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewFrankfurterProvider(config.Frankfurter{BaseURL: url, HTTPTimeout: time.Second}, nil, nil)
	_, err := p.ListCurrencies(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrTransport)
}

func TestFrankfurterProvider_ContextCanceled(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ListCurrencies(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, provider.ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}
