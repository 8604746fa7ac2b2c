package handlers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MrSnakeDoc/pulse/internal/domain"
	"github.com/MrSnakeDoc/pulse/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulse/internal/logger"
	"github.com/MrSnakeDoc/pulse/internal/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// StreamMessage is one frame of the latest-cards stream.
type StreamMessage struct {
	Type      string               `json:"type"` // "cards" or "error"
	Cards     []domain.ServiceCard `json:"cards,omitempty"`
	Summary   *domain.Summary      `json:"summary,omitempty"`
	Error     string               `json:"error,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

// Stream upgrades to a websocket and pushes the latest visible cards on
// connect, then after every coalesced repository change. view=history
// streams the history view instead. The optional filter query parameter
// applies to every frame.
func Stream(d deps.Deps) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     sameOrigin(d.AllowedHosts),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		filter := r.URL.Query().Get("filter")
		history := r.URL.Query().Get("view") == "history"
		log := d.Logger.With(logger.String("remote_ip", utils.ClientIP(r, d.TrustProxy)))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("failed to upgrade to websocket", logger.Error(err))
			return
		}
		defer utils.Close(conn)

		log.Debug("card stream opened")
		start := time.Now()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go readPump(conn, cancel)

		var updates <-chan []domain.ServiceCard
		if history {
			updates = d.Cards.WatchHistoryVisibleCards(ctx)
		} else {
			updates = d.Cards.WatchLatestVisibleCards(ctx)
		}
		err = writePump(ctx, conn, updates, filter, !history, d.Now)
		log.Debug("card stream closed",
			logger.Duration("duration", time.Since(start)),
			logger.Error(err))
	}
}

// readPump drains client frames so control messages are processed, and
// cancels the stream when the client goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump sends every update as a frame; the summary is attached to
// latest-view frames only.
func writePump(ctx context.Context, conn *websocket.Conn, updates <-chan []domain.ServiceCard, filter string, summarize bool, now func() time.Time) error {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case cards, ok := <-updates:
			if !ok {
				return nil
			}
			msg := StreamMessage{
				Type:      "cards",
				Cards:     nonNil(domain.ApplyFilter(filter, cards)),
				Timestamp: now(),
			}
			if summarize {
				summary := domain.Summarize(cards)
				msg.Summary = &summary
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return err
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

// sameOrigin accepts requests without an Origin header (non-browser
// clients), same-host origins, and origins listed in allowedHosts.
func sameOrigin(allowedHosts []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		host := originHost(origin)
		if host == r.Host {
			return true
		}
		for _, h := range allowedHosts {
			if h == host {
				return true
			}
		}
		return false
	}
}

func originHost(origin string) string {
	u, err := url.Parse(origin)
	if err != nil {
		return ""
	}
	return u.Host
}
