package feed

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

const writeWait = 10 * time.Second

// Hub subscribes to the feed stream and fans each message out to every
// connected WebSocket client.
type Hub struct {
	sub      message.Subscriber
	topic    string
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}

	// Stats (protected by mu)
	messageCount  uint64
	lastMessageAt time.Time
}

// NewHub creates a new Hub. The subscriber reads without a consumer
// group so every API instance sees every message.
func NewHub(redisClient redis.UniversalClient, topic string) (*Hub, error) {
	logger := watermill.NewSlogLogger(nil)

	sub, err := redisstream.NewSubscriber(
		redisstream.SubscriberConfig{
			Client: redisClient,
		},
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &Hub{
		sub:     sub,
		topic:   topic,
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}, nil
}

// Run starts the fanout loop. It blocks until the context is cancelled.
func (h *Hub) Run(ctx context.Context) error {
	messages, err := h.sub.Subscribe(ctx, h.topic)
	if err != nil {
		return err
	}

	slog.Info("feed hub started", "topic", h.topic)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			h.broadcast(msg.Payload)
			msg.Ack()
		}
	}
}

// broadcast writes the payload to every client, dropping the ones whose
// writes fail.
func (h *Hub) broadcast(payload []byte) {
	h.mu.Lock()
	h.messageCount++
	h.lastMessageAt = time.Now()

	var dead []*websocket.Conn
	for conn := range h.clients {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			dead = append(dead, conn)
		}
	}
	for _, conn := range dead {
		delete(h.clients, conn)
		_ = conn.Close()
	}
	h.mu.Unlock()

	if len(dead) > 0 {
		slog.Debug("feed hub dropped clients", "dropped", len(dead))
	}
}

// HandleWS upgrades the request and registers the connection. The read
// loop exists only to notice the client going away.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}

	h.mu.Lock()
	h.clients[conn] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	slog.Info("websocket client connected", "clients", count)

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			_ = conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes the subscriber and every client connection.
func (h *Hub) Close() error {
	h.mu.Lock()
	for conn := range h.clients {
		_ = conn.Close()
	}
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()

	return h.sub.Close()
}
