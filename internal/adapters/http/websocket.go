package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/geolocator/internal/adapters/nats"
	"github.com/samirrijal/geolocator/internal/pkg/metrics"
)

// wsMessage is sent from client to subscribe/unsubscribe to feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe"
	Channel string `json:"channel"` // "highscores" | "guesses"
}

// wsChannels maps feed names to event subjects.
var wsChannels = map[string]string{
	"highscores": natsadapter.SubjectHighScoreChanged,
	"guesses":    natsadapter.SubjectGuessScored,
}

// WebSocketHandler returns a handler that upgrades to WebSocket and relays
// game events from NATS, transcoded to JSON.
// Clients send JSON: {"action":"subscribe","channel":"guesses"}
// Every connection starts subscribed to "highscores".
func WebSocketHandler(nc *nats.Conn) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		defer c.Close()

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		remoteAddr := c.RemoteAddr().String()
		slog.Info("ws client connected", "remote", remoteAddr)

		var mu sync.Mutex
		subs := make(map[string]*nats.Subscription) // channel -> subscription

		// Helper: thread-safe write
		writeRaw := func(data []byte) error {
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}
		writeJSON := func(v interface{}) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			return writeRaw(data)
		}
		relay := func(msg *nats.Msg) {
			data, err := natsadapter.ToJSON(msg.Data)
			if err != nil {
				slog.Warn("ws: undecodable event", "subject", msg.Subject, "error", err)
				return
			}
			_ = writeRaw(data)
		}

		subscribe := func(channel string) error {
			s, err := nc.Subscribe(wsChannels[channel], relay)
			if err != nil {
				return err
			}
			subs[channel] = s
			return nil
		}

		if err := subscribe("highscores"); err != nil {
			slog.Error("ws default subscribe error", "error", err)
			return
		}

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		// Read client messages for subscribe/unsubscribe
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}
			if _, ok := wsChannels[m.Channel]; !ok {
				_ = writeJSON(map[string]string{"error": "unknown channel: " + m.Channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[m.Channel]; exists {
					_ = writeJSON(map[string]string{"status": "already subscribed", "channel": m.Channel})
					continue
				}
				if err := subscribe(m.Channel); err != nil {
					_ = writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				_ = writeJSON(map[string]string{"status": "subscribed", "channel": m.Channel})

			case "unsubscribe":
				if s, exists := subs[m.Channel]; exists {
					_ = s.Unsubscribe()
					delete(subs, m.Channel)
					_ = writeJSON(map[string]string{"status": "unsubscribed", "channel": m.Channel})
				} else {
					_ = writeJSON(map[string]string{"error": "not subscribed to " + m.Channel})
				}

			default:
				_ = writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		// Cleanup
		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "remote", remoteAddr)
	}
}
