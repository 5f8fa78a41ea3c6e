package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"rental-marketplace/internal/common/metrics"
	"rental-marketplace/internal/search"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait   = 5 * time.Second
	liveReadLimit   = 4096
	liveIdleTimeout = 2 * time.Minute
)

type liveInput struct {
	Text    string         `json:"text"`
	Filters search.Filters `json:"filters"`
}

func (h *handlers) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(h.origins) == 0 {
				return true
			}
			for _, o := range h.origins {
				if o == "*" || strings.TrimRight(o, "/") == origin {
					return true
				}
			}
			return false
		},
	}
}

// liveSearch runs search-as-you-type over a websocket. Every client message
// is one keystroke state; only the latest debounced state is searched and
// responses for superseded input never reach the client.
func (h *handlers) liveSearch(c *gin.Context) {
	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the response.
		_ = c.Error(err)
		return
	}
	defer conn.Close()

	metrics.LiveSearchSessions.Inc()
	defer metrics.LiveSearchSessions.Dec()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	log := h.deps.Logger.WithContext(ctx)
	session := search.NewLiveSession(ctx, h.deps.Search, h.debounce, func(u search.Update) {
		_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(u); err != nil {
			log.Debug("live search write failed", map[string]interface{}{"error": err.Error()})
			cancel()
		}
	})
	defer session.Close()

	conn.SetReadLimit(liveReadLimit)
	for {
		_ = conn.SetReadDeadline(time.Now().Add(liveIdleTimeout))
		var in liveInput
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug("live search closed", map[string]interface{}{"error": err.Error()})
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		session.Input(strings.TrimSpace(in.Text), in.Filters)
	}
}
