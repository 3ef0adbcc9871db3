package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/infra/initializer"
	"github.com/amirasaad/fxconvert/internal/fixtures/mocks"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestServe_GracefulShutdown(t *testing.T) {
	client := mocks.NewMockRateClient()
	client.On("ListCurrencies", mock.Anything).Return(currency.Table{"USD": "United States Dollar"}, nil).Maybe()

	cfg := &config.App{
		Env:       "test",
		RateLimit: config.RateLimit{MaxRequests: 100, Window: time.Second},
		Currency:  config.Currency{DisplayLimit: 50},
	}
	deps, err := initializer.InitializeDependencies(cfg,
		initializer.WithLogOutput(io.Discard),
		initializer.WithRateClient(client),
	)
	require.NoError(t, err)
	defer deps.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, ln, deps, cfg) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + ln.Addr().String() + "/health")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
