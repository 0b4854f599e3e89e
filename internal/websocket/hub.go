package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans Redis pub/sub traffic out to connected browsers. Each employee
// gets a private channel for job updates; the shared company_feed channel
// carries announcements, reactions, comments, and shout-outs to everyone.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	redisClient *redis.Client
	jwtSecret   []byte
	cancelFuncs map[uuid.UUID]context.CancelFunc
	feedCancel  context.CancelFunc
}

func NewHub(redisClient *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		redisClient: redisClient,
		jwtSecret:   []byte(jwtSecret),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

// Start begins the shared company feed subscription. Per-employee
// subscriptions are created lazily on first connection.
func (h *Hub) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	h.feedCancel = cancel
	go h.subscribeCompanyFeed(ctx)
}

func (h *Hub) Stop() {
	if h.feedCancel != nil {
		h.feedCancel()
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	employeeIDStr, _ := claims["user_id"].(string)
	employeeID, err := uuid.Parse(employeeIDStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.registerConnection(employeeID, conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregisterConnection(employeeID, conn)
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				break
			}
		}
	}()
}

func (h *Hub) registerConnection(employeeID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[employeeID] = append(h.connections[employeeID], conn)

	// Start pub/sub subscription if this is the first connection for this employee
	if len(h.connections[employeeID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[employeeID] = cancel
		go h.subscribeToPubSub(ctx, employeeID)
	}

	log.Printf("WebSocket connected: employee %s (total: %d)", employeeID, len(h.connections[employeeID]))
}

func (h *Hub) unregisterConnection(employeeID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	conns := h.connections[employeeID]
	for i, c := range conns {
		if c == conn {
			h.connections[employeeID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	// If no more connections, cancel pub/sub
	if len(h.connections[employeeID]) == 0 {
		delete(h.connections, employeeID)
		if cancel, ok := h.cancelFuncs[employeeID]; ok {
			cancel()
			delete(h.cancelFuncs, employeeID)
		}
	}

	log.Printf("WebSocket disconnected: employee %s", employeeID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, employeeID uuid.UUID) {
	channel := "user_updates:" + employeeID.String()
	pubsub := h.redisClient.Subscribe(ctx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(employeeID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) subscribeCompanyFeed(ctx context.Context) {
	pubsub := h.redisClient.Subscribe(ctx, "company_feed")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcastAll([]byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(employeeID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[employeeID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

func (h *Hub) broadcastAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conns := range h.connections {
		for _, conn := range conns {
			conn.WriteMessage(websocket.TextMessage, data)
		}
	}
}

// SendToEmployee sends a message directly to one employee (for use outside pub/sub)
func (h *Hub) SendToEmployee(employeeID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(employeeID, data)
}
