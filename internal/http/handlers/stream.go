package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/ltrain-backend/internal/events"
	"github.com/tbourn/ltrain-backend/internal/http/middleware"
)

// liveFeed describes one server-sent event stream. The subscription must be
// opened before the snapshot is read so no row falls between the two.
type liveFeed[T any] struct {
	name     string // metrics label
	sub      events.Subscription
	snapshot []T
	itemType string          // decoded into T and de-duplicated by id
	relay    map[string]bool // forwarded verbatim
	id       func(T) string
	at       func(T) time.Time
}

// serveLive writes a "snapshot" event with the current feed, then one event
// per new item until the client goes away. Items are merged by id so a row
// that arrives both in the snapshot and on the bus is sent once.
func serveLive[T any](h *Handlers, c *gin.Context, f liveFeed[T]) {
	defer f.sub.Close()

	flusher, canFlush := c.Writer.(http.Flusher)
	if !canFlush {
		fail(c, http.StatusInternalServerError, ErrCodeStreamUnsupported, "streaming unsupported")
		return
	}
	defer middleware.TrackStream(f.name)()

	feed := events.NewFeed(h.feedWindow, f.id, f.at)
	feed.Merge(f.snapshot...)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	write := func(event string, payload any) bool {
		b, err := json.Marshal(payload)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("event", event).Msg("stream marshal failed")
			return true
		}
		if _, err := fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, b); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	snap := feed.Items()
	if snap == nil {
		snap = []T{}
	}
	if !write("snapshot", snap) {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	incoming := make(chan events.Event)
	go func() {
		defer close(incoming)
		for {
			e, err := f.sub.Next(ctx)
			if err != nil {
				return
			}
			select {
			case incoming <- e:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(h.streamPing)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			if !write("ping", gin.H{"ts": time.Now().Unix()}) {
				return
			}

		case e, open := <-incoming:
			if !open {
				return
			}
			switch {
			case e.Type == f.itemType:
				var item T
				if err := e.Decode(&item); err != nil {
					middleware.LoggerFrom(c).Warn().Err(err).Str("event_id", e.ID).Msg("stream decode failed")
					continue
				}
				for _, it := range feed.Merge(item) {
					if !write(e.Type, it) {
						return
					}
				}
			case f.relay[e.Type]:
				if !write(e.Type, e.Payload) {
					return
				}
			}
		}
	}
}
