// server/http/events.go
package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vinizap/notesync/server/auth"
)

const keepAliveInterval = 25 * time.Second

// HandleEvents streams the caller's note and folder changes as server-sent events.
func (s *Server) HandleEvents(c *fiber.Ctx) error {
	owner := auth.OwnerID(c)
	sub := s.hub.Subscribe(owner)
	if sub == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "event stream unavailable")
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	log := s.log.With().Str("owner_id", owner).Logger()
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.hub.Unsubscribe(sub)

		fmt.Fprint(w, "event: ready\ndata: {}\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-sub.C():
				if !ok {
					return
				}
				data, err := json.Marshal(msg)
				if err != nil {
					log.Error().Err(err).Str("type", msg.Type).Msg("encode event")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				log.Debug().Err(err).Msg("event stream closed")
				return
			}
		}
	})
	return nil
}
