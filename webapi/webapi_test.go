package webapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/amirasaad/fxconvert/infra/initializer"
	"github.com/amirasaad/fxconvert/internal/fixtures/mocks"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/currency"
	"github.com/amirasaad/fxconvert/pkg/provider"
	"github.com/amirasaad/fxconvert/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type WebAPITestSuite struct {
	suite.Suite
	app    *fiber.App
	deps   *initializer.Deps
	client *mocks.MockRateClient
}

func (s *WebAPITestSuite) SetupTest() {
	cfg := &config.App{
		Env:       "test",
		RateLimit: config.RateLimit{MaxRequests: 5, Window: time.Minute},
		Currency:  config.Currency{DisplayLimit: 50},
	}

	s.client = mocks.NewMockRateClient()
	s.client.On("ListCurrencies", mock.Anything).Return(currency.Table{
		"USD": "United States Dollar",
		"BRL": "Brazilian Real",
	}, nil).Maybe()

	deps, err := initializer.InitializeDependencies(cfg,
		initializer.WithLogOutput(io.Discard),
		initializer.WithRateClient(s.client),
	)
	s.Require().NoError(err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Require().NoError(deps.InitialLoad.Wait(ctx))

	s.deps = deps
	s.app = SetupApp(deps, cfg)
}

func (s *WebAPITestSuite) TearDownTest() {
	s.deps.Close()
}

func (s *WebAPITestSuite) get(path string, header ...string) (*http.Response, []byte) {
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	defer resp.Body.Close() //nolint: errcheck
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	return resp, raw
}

func (s *WebAPITestSuite) TestRoot() {
	resp, raw := s.get("/")
	s.Equal(fiber.StatusOK, resp.StatusCode)
	s.Contains(string(raw), "fxconvert API is running")
}

func (s *WebAPITestSuite) TestHealth() {
	resp, raw := s.get("/health")
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var body struct {
		Data struct {
			CurrenciesLoaded int  `json:"currencies_loaded"`
			IsLoading        bool `json:"is_loading"`
		} `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(raw, &body))
	s.Equal(2, body.Data.CurrenciesLoaded)
	s.False(body.Data.IsLoading)
}

func (s *WebAPITestSuite) TestMetrics() {
	s.client.On("GetLatestRate", mock.Anything, 1.0, "USD", "BRL").Return(&provider.ConversionResponse{
		Rates: map[string]float64{"BRL": 5.1},
	}, nil).Once()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s.Require().NoError(s.deps.Service.Convert(1, "USD", "BRL").Wait(ctx))

	resp, raw := s.get("/metrics")
	s.Equal(fiber.StatusOK, resp.StatusCode)
	body := string(raw)
	s.Contains(body, `fxconvert_conversions_total{outcome="success"} 1`)
	s.Contains(body, `fxconvert_currency_loads_total{outcome="success"} 1`)
	s.Contains(body, "go_goroutines")
}

func (s *WebAPITestSuite) TestSwaggerDoc() {
	resp, raw := s.get("/swagger/doc.json")
	s.Equal(fiber.StatusOK, resp.StatusCode)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]map[string]any `json:"paths"`
	}
	s.Require().NoError(json.Unmarshal(raw, &doc))
	s.Equal("fxconvert API", doc.Info.Title)
	for path, method := range map[string]string{
		"/health":                "get",
		"/api/currencies":        "get",
		"/api/currencies/reload": "post",
		"/api/state":             "get",
		"/api/state/stream":      "get",
		"/api/convert":           "post",
	} {
		s.Contains(doc.Paths[path], method, "missing %s %s", method, path)
	}

	resp, _ = s.get("/swagger/index.html")
	s.Equal(fiber.StatusOK, resp.StatusCode)
}

func (s *WebAPITestSuite) TestNotFoundIsProblem() {
	resp, raw := s.get("/nope")
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
	s.Equal(common.ContentTypeProblem, resp.Header.Get("Content-Type"))

	var pd common.ProblemDetails
	s.Require().NoError(json.Unmarshal(raw, &pd))
	s.Equal("Not Found", pd.Title)
	s.Equal(fiber.StatusNotFound, pd.Status)
}

func (s *WebAPITestSuite) TestRateLimit() {
	for i := range 6 {
		resp, _ := s.get("/", "X-Forwarded-For", "203.0.113.7, 10.0.0.1")
		if i < 5 {
			s.Equal(fiber.StatusOK, resp.StatusCode, "Expected OK for request %d", i+1)
		} else {
			s.Equal(fiber.StatusTooManyRequests, resp.StatusCode, "Expected Too Many Requests for request %d", i+1)
			s.Equal(common.ContentTypeProblem, resp.Header.Get("Content-Type"))
		}
	}

	// Another client is counted separately.
	resp, _ := s.get("/", "X-Real-IP", "198.51.100.9")
	s.Equal(fiber.StatusOK, resp.StatusCode)

	// Scrapes are never limited.
	resp, _ = s.get("/metrics", "X-Forwarded-For", "203.0.113.7")
	s.Equal(fiber.StatusOK, resp.StatusCode)
}

func TestWebAPITestSuite(t *testing.T) {
	suite.Run(t, new(WebAPITestSuite))
}
