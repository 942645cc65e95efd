package http

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/olaizola/maplabel/internal/pkg/metrics"
)

// Registry tracks live WebSocket connections by id. It is owned by the
// router, not a package global, so tests can run servers side by side.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*clientConn
}

type clientConn struct {
	id string
	mu sync.Mutex
	ws *websocket.Conn
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*clientConn)}
}

func (r *Registry) add(c *clientConn) {
	r.mu.Lock()
	r.conns[c.id] = c
	r.mu.Unlock()
	metrics.ActiveWebSockets.Inc()
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	delete(r.conns, id)
	r.mu.Unlock()
	metrics.ActiveWebSockets.Dec()
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (c *clientConn) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// wsMessage is sent from client to subscribe/unsubscribe to event feeds.
type wsMessage struct {
	Action  string `json:"action"`  // "subscribe" | "unsubscribe" | "presence"
	Dataset string `json:"dataset"` // dataset id filter (optional, "" = all)
	Channel string `json:"channel"` // "boxes" | "exports" (default: boxes)
}

// WebSocketHandler relays labeling events from NATS to connected clients.
// Clients send JSON: {"action":"subscribe","dataset":"<id>","channel":"boxes"}.
// An empty dataset means all datasets. Default channel is "boxes".
func WebSocketHandler(nc *nats.Conn, registry *Registry) func(*websocket.Conn) {
	return func(ws *websocket.Conn) {
		defer ws.Close()

		client := &clientConn{id: uuid.NewString(), ws: ws}
		registry.add(client)
		defer registry.remove(client.id)

		slog.Info("ws client connected", "conn_id", client.id, "remote", ws.RemoteAddr().String())

		subs := make(map[string]*nats.Subscription) // subject -> subscription

		// Auto-subscribe to all box events by default.
		defaultSubject := "label.box.>"
		sub, err := nc.Subscribe(defaultSubject, func(msg *nats.Msg) {
			_ = client.writeJSON(json.RawMessage(msg.Data))
		})
		if err != nil {
			slog.Error("ws default subscribe failed", "conn_id", client.id, "error", err)
			return
		}
		subs[defaultSubject] = sub

		// Keep-alive ping
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(30 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					client.mu.Lock()
					err := ws.WriteMessage(websocket.PingMessage, nil)
					client.mu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				_ = client.writeJSON(map[string]string{"error": "invalid JSON"})
				continue
			}

			if m.Action == "presence" {
				_ = client.writeJSON(map[string]interface{}{
					"conn_id":     client.id,
					"connections": registry.Count(),
				})
				continue
			}

			channel := m.Channel
			if channel == "" {
				channel = "boxes"
			}

			var subject string
			switch channel {
			case "boxes":
				if m.Dataset != "" {
					subject = "label.box.*." + m.Dataset
				} else {
					subject = "label.box.>"
				}
			case "exports":
				subject = "label.export.progress"
			default:
				_ = client.writeJSON(map[string]string{"error": "unknown channel: " + channel})
				continue
			}

			switch m.Action {
			case "subscribe":
				if _, exists := subs[subject]; exists {
					_ = client.writeJSON(map[string]string{"status": "already subscribed", "subject": subject})
					continue
				}
				s, err := nc.Subscribe(subject, func(msg *nats.Msg) {
					_ = client.writeJSON(json.RawMessage(msg.Data))
				})
				if err != nil {
					_ = client.writeJSON(map[string]string{"error": "subscribe failed: " + err.Error()})
					continue
				}
				subs[subject] = s
				_ = client.writeJSON(map[string]string{"status": "subscribed", "subject": subject})

			case "unsubscribe":
				if s, exists := subs[subject]; exists {
					_ = s.Unsubscribe()
					delete(subs, subject)
					_ = client.writeJSON(map[string]string{"status": "unsubscribed", "subject": subject})
				} else {
					_ = client.writeJSON(map[string]string{"error": "not subscribed to " + subject})
				}

			default:
				_ = client.writeJSON(map[string]string{"error": "unknown action: " + m.Action})
			}
		}

		close(done)
		for _, s := range subs {
			_ = s.Unsubscribe()
		}
		slog.Info("ws client disconnected", "conn_id", client.id)
	}
}
