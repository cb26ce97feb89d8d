package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/eventhub/eventhub-api/internal/pkg/logger"
	"github.com/eventhub/eventhub-api/internal/pkg/metrics"
)

// EventType for WebSocket messages
type EventType string

const (
	EventTransactionStatus EventType = "transaction_status"
)

// userEventsChannel carries events for users connected to any instance.
const userEventsChannel = "ws:user_events"

// Event is what clients receive.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// TransactionStatus is the data of a transaction_status event.
type TransactionStatus struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

type userEventMessage struct {
	UserID           int64           `json:"user_id"`
	Payload          json.RawMessage `json:"payload"`
	SenderInstanceID string          `json:"sender_instance_id"`
}

// Connection represents a WebSocket connection
type Connection struct {
	UserID int64
	Conn   *websocket.Conn
	Send   chan []byte
}

// Hub tracks the connections of this instance and fans user events out
// to the other instances over Redis Pub/Sub.
type Hub struct {
	connections map[int64]map[*Connection]bool
	mu          sync.RWMutex

	redis  *redis.Client
	pubsub *redis.PubSub

	register   chan *Connection
	unregister chan *Connection

	ctx    context.Context
	cancel context.CancelFunc

	instanceID string
}

// NewHub creates a hub. Without Redis, events reach local connections only.
func NewHub(redisClient *redis.Client) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	h := &Hub{
		connections: make(map[int64]map[*Connection]bool),
		redis:       redisClient,
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		ctx:         ctx,
		cancel:      cancel,
		instanceID:  uuid.NewString(),
	}
	if redisClient != nil {
		h.pubsub = redisClient.Subscribe(ctx, userEventsChannel)
	}
	return h
}

// Run starts the hub (call in goroutine)
func (h *Hub) Run() {
	if h.pubsub != nil {
		go h.runRedisSubscriber()
	}

	for {
		select {
		case <-h.ctx.Done():
			return

		case conn := <-h.register:
			h.mu.Lock()
			if h.connections[conn.UserID] == nil {
				h.connections[conn.UserID] = make(map[*Connection]bool)
			}
			h.connections[conn.UserID][conn] = true
			h.mu.Unlock()
			metrics.AddWSConnections(1)
			log.Debug().Int64("user_id", conn.UserID).Msg("User connected to WebSocket")

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.connections[conn.UserID]; ok {
				if _, exists := conns[conn]; exists {
					delete(conns, conn)
					close(conn.Send)
					metrics.AddWSConnections(-1)
				}
				if len(conns) == 0 {
					delete(h.connections, conn.UserID)
				}
			}
			h.mu.Unlock()
			log.Debug().Int64("user_id", conn.UserID).Msg("User disconnected from WebSocket")
		}
	}
}

func (h *Hub) runRedisSubscriber() {
	ch := h.pubsub.Channel()

	for {
		select {
		case <-h.ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.handleUserEventPayload(msg.Payload)
		}
	}
}

func (h *Hub) handleUserEventPayload(payload string) {
	var event userEventMessage
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return
	}
	// Already delivered locally by the sender.
	if event.SenderInstanceID == h.instanceID {
		return
	}
	h.sendLocal(event.UserID, event.Payload)
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// SendToUser delivers event to every connection of userID on any instance.
func (h *Hub) SendToUser(userID int64, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.sendLocal(userID, data)
	if h.redis == nil {
		return nil
	}

	payload, err := json.Marshal(userEventMessage{
		UserID:           userID,
		Payload:          data,
		SenderInstanceID: h.instanceID,
	})
	if err != nil {
		return err
	}
	return h.redis.Publish(h.ctx, userEventsChannel, payload).Err()
}

// PublishTransactionStatus tells the buyer their transaction changed status.
func (h *Hub) PublishTransactionStatus(ctx context.Context, userID, transactionID int64, status string) {
	err := h.SendToUser(userID, &Event{
		Type: EventTransactionStatus,
		Data: TransactionStatus{ID: transactionID, Status: status},
	})
	if err != nil {
		logger.FromContext(ctx).Warn().Err(err).Int64("user_id", userID).Msg("Failed to publish transaction status")
	}
}

func (h *Hub) sendLocal(userID int64, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.connections[userID] {
		select {
		case conn.Send <- data:
			metrics.IncWSEvent(true)
		default:
			// Buffer full
			metrics.IncWSEvent(false)
			log.Warn().Int64("user_id", userID).Msg("WebSocket send buffer full")
		}
	}
}

// ConnectionCount returns number of local connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.connections {
		total += len(conns)
	}
	return total
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown() {
	h.cancel()
	if h.pubsub != nil {
		h.pubsub.Close()
	}
}
