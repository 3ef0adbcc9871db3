package conversion

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirasaad/fxconvert/pkg/config"
	convsvc "github.com/amirasaad/fxconvert/pkg/service/conversion"
	"github.com/gofiber/fiber/v2"
)

// HeartbeatInterval is how often an idle stream sends a comment line so
// proxies keep the connection open.
var HeartbeatInterval = 15 * time.Second

// StreamState streams state snapshots as server-sent events. Each snapshot is
// an event named "state" whose data is the JSON StateResponse. The stream
// ends when the client goes away or the service closes.
// @Summary Stream converter state
// @Description Server-sent events carrying a StateResponse on every change
// @Tags state
// @Produce text/event-stream
// @Success 200 {object} StateResponse
// @Router /api/state/stream [get]
func StreamState(svc *convsvc.Service, cfg config.Currency) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		updates, unsubscribe := svc.Subscribe()
		limit := cfg.DisplayLimit

		// c must not be touched inside the writer; it runs after the handler
		// has returned.
		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer unsubscribe()

			ticker := time.NewTicker(HeartbeatInterval)
			defer ticker.Stop()

			for {
				select {
				case st, ok := <-updates:
					if !ok {
						return
					}
					if err := writeEvent(w, "state", ToStateResponse(st, limit, "")); err != nil {
						return
					}
				case <-ticker.C:
					if _, err := w.WriteString(": ping\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				}
			}
		})
		return nil
	}
}

func writeEvent(w *bufio.Writer, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	return w.Flush()
}
