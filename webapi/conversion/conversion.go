// Package conversion exposes the converter state and its two operations over
// HTTP.
package conversion

import (
	"errors"
	"strconv"

	"github.com/amirasaad/fxconvert/pkg/config"
	"github.com/amirasaad/fxconvert/pkg/currency"
	convsvc "github.com/amirasaad/fxconvert/pkg/service/conversion"
	"github.com/amirasaad/fxconvert/webapi/common"
	"github.com/gofiber/fiber/v2"
)

// Routes registers the converter endpoints under /api.
func Routes(app *fiber.App, svc *convsvc.Service, cfg config.Currency) {
	api := app.Group("/api")

	api.Get("/currencies", ListCurrencies(svc, cfg))
	api.Post("/currencies/reload", ReloadCurrencies(svc, cfg))
	api.Get("/state", GetState(svc, cfg))
	api.Get("/state/stream", StreamState(svc, cfg))
	api.Post("/convert", Convert(svc, cfg))
}

// ListCurrencies returns the loaded currencies in display order.
// The optional limit query parameter overrides the configured display limit;
// zero or a negative value lists everything.
// @Summary List currencies
// @Description List the loaded currencies, priority codes first
// @Tags currencies
// @Produce json
// @Param limit query int false "Maximum number of entries"
// @Success 200 {object} common.Response{data=[]currency.Entry}
// @Failure 400 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Router /api/currencies [get]
func ListCurrencies(svc *convsvc.Service, cfg config.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := displayLimit(c, cfg)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid limit", err, fiber.StatusBadRequest)
		}
		return common.SuccessResponseJSON(
			c,
			fiber.StatusOK,
			"Currencies fetched successfully",
			svc.Snapshot().Currencies.Entries(limit),
		)
	}
}

// ReloadCurrencies fetches the currency table again and returns the settled
// state. A failed reload is reported in the state, not as an HTTP error.
// @Summary Reload currencies
// @Description Fetch the currency table from Frankfurter again
// @Tags currencies
// @Produce json
// @Success 200 {object} common.Response{data=StateResponse}
// @Failure 429 {object} common.ProblemDetails
// @Failure 503 {object} common.ProblemDetails
// @Router /api/currencies/reload [post]
func ReloadCurrencies(svc *convsvc.Service, cfg config.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := svc.LoadCurrencies().Wait(c.UserContext())
		if errors.Is(err, convsvc.ErrClosed) {
			return common.ProblemDetailsJSON(c, "Service unavailable", err)
		}
		return common.SuccessResponseJSON(
			c,
			fiber.StatusOK,
			"Currencies reloaded",
			ToStateResponse(svc.Snapshot(), cfg.DisplayLimit, ""),
		)
	}
}

// GetState returns the current state snapshot.
// @Summary Get converter state
// @Tags state
// @Produce json
// @Success 200 {object} common.Response{data=StateResponse}
// @Failure 429 {object} common.ProblemDetails
// @Router /api/state [get]
func GetState(svc *convsvc.Service, cfg config.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return common.SuccessResponseJSON(
			c,
			fiber.StatusOK,
			"State fetched successfully",
			ToStateResponse(svc.Snapshot(), cfg.DisplayLimit, ""),
		)
	}
}

// Convert starts a conversion, waits for it to settle and returns the
// resulting state. Upstream failures are answered with 502 and carry the
// state in the problem's errors member.
// @Summary Convert an amount
// @Description Convert an amount between two currencies at the latest rate
// @Tags conversion
// @Accept json
// @Produce json
// @Param request body ConvertRequest true "Conversion request"
// @Success 200 {object} common.Response{data=StateResponse}
// @Failure 400 {object} common.ProblemDetails
// @Failure 429 {object} common.ProblemDetails
// @Failure 502 {object} common.ProblemDetails
// @Failure 503 {object} common.ProblemDetails
// @Router /api/convert [post]
func Convert(svc *convsvc.Service, cfg config.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, err := common.BindAndValidate[ConvertRequest](c)
		if err != nil {
			return nil // problem already written
		}

		err = svc.Convert(req.Amount, req.From, req.To).Wait(c.UserContext())
		st := ToStateResponse(svc.Snapshot(), cfg.DisplayLimit, req.To)
		switch {
		case err == nil:
			return common.SuccessResponseJSON(c, fiber.StatusOK, "Conversion completed", st)
		case errors.Is(err, currency.ErrInvalidAmount):
			return common.ProblemDetailsJSON(c, "Invalid amount", err)
		case errors.Is(err, convsvc.ErrClosed):
			return common.ProblemDetailsJSON(c, "Service unavailable", err)
		default:
			return common.ProblemDetailsJSON(c, "Conversion failed", err, st.Error, st)
		}
	}
}

func displayLimit(c *fiber.Ctx, cfg config.Currency) (int, error) {
	raw := c.Query("limit")
	if raw == "" {
		return cfg.DisplayLimit, nil
	}
	return strconv.Atoi(raw)
}
