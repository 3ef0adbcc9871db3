// Package webapi provides the HTTP surface of the converter:
//   - conversion: currency list, state snapshot and stream, convert
//   - health and Prometheus metrics
//   - swagger: OpenAPI docs
package webapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	_ "github.com/amirasaad/fxconvert/cmd/server/swagger"
	"github.com/amirasaad/fxconvert/infra/initializer"
	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/middleware"
	convsvc "github.com/amirasaad/fxconvert/pkg/service/conversion"
	"github.com/amirasaad/fxconvert/webapi/common"
	conversionweb "github.com/amirasaad/fxconvert/webapi/conversion"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupApp Initialize Fiber with custom configuration
func SetupApp(deps *initializer.Deps, cfg *config.App) *fiber.App {
	fiberApp := fiber.New(fiber.Config{
		AppName:               "fxconvert",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return common.ProblemDetailsJSON(c, http.StatusText(common.ErrorToStatusCode(err)), err)
		},
	})

	fiberApp.Get("/swagger/*", swagger.New(swagger.Config{
		TryItOutEnabled: true,
	}))

	fiberApp.Use(middleware.RequestLogger(deps.Logger))

	// Per-IP limit on the local API. Uses X-Forwarded-For when behind a
	// proxy, then X-Real-IP, then the peer address.
	fiberApp.Use(limiter.New(limiter.Config{
		Max:        cfg.RateLimit.MaxRequests,
		Expiration: cfg.RateLimit.Window,
		Next: func(c *fiber.Ctx) bool {
			// Scrapes are not client traffic.
			return c.Path() == "/metrics"
		},
		KeyGenerator: clientKey,
		LimitReached: func(c *fiber.Ctx) error {
			return common.ProblemDetailsJSON(
				c,
				"Too Many Requests",
				errors.New("rate limit exceeded"),
				fiber.StatusTooManyRequests,
			)
		},
	}))
	fiberApp.Use(recover.New())

	fiberApp.Get(
		"/",
		func(c *fiber.Ctx) error {
			return c.SendString("fxconvert API is running! 🚀")
		},
	)
	fiberApp.Get("/health", Health(deps.Service, time.Now()))
	fiberApp.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}),
	))

	conversionweb.Routes(fiberApp, deps.Service, cfg.Currency)
	return fiberApp
}

func clientKey(c *fiber.Ctx) string {
	if forwardedFor := c.Get("X-Forwarded-For"); forwardedFor != "" {
		// Take the first IP in the chain
		first, _, _ := strings.Cut(forwardedFor, ",")
		return strings.TrimSpace(first)
	}
	if realIP := c.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.IP()
}

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	UptimeSeconds    int  `json:"uptime_seconds"`
	CurrenciesLoaded int  `json:"currencies_loaded"`
	IsLoading        bool `json:"is_loading"`
}

// Health reports uptime and whether the currency table is loaded.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} common.Response{data=HealthStatus}
// @Router /health [get]
func Health(svc *convsvc.Service, started time.Time) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st := svc.Snapshot()
		return common.SuccessResponseJSON(c, fiber.StatusOK, "ok", HealthStatus{
			UptimeSeconds:    int(time.Since(started).Seconds()),
			CurrenciesLoaded: len(st.Currencies),
			IsLoading:        st.IsLoading,
		})
	}
}
