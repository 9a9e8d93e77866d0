package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/venturelink/backend/internal/redisc"
)

const defaultRingTimeout = 30 * time.Second

// Hub owns the connection registry and the pending call timers. One active
// connection per user: a second connection from the same user replaces the
// first (last-connect-wins).
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	callTimers map[string]*time.Timer
	timerMu    sync.Mutex

	// RingTimeout is how long an unanswered call rings before it is
	// marked missed. Shortened in tests.
	RingTimeout time.Duration

	store Store
	redis *redis.Client
}

func NewHub(store Store, redisClient *redis.Client) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		callTimers:  make(map[string]*time.Timer),
		RingTimeout: defaultRingTimeout,
		store:       store,
		redis:       redisClient,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	if old, ok := h.clients[client.UserID]; ok {
		close(old.send)
	}
	h.clients[client.UserID] = client
	h.mu.Unlock()

	slog.Info("client connected", "user_id", client.UserID, "role", client.Role)
	h.setOnline(client, true)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	existing, ok := h.clients[client.UserID]
	if ok && existing == client {
		delete(h.clients, client.UserID)
		close(client.send)
	}
	h.mu.Unlock()
	if !ok || existing != client {
		return
	}

	slog.Info("client disconnected", "user_id", client.UserID)
	h.setOnline(client, false)
}

// setOnline flips the persisted flag and the advisory Redis set. The
// disconnect handler cannot respond to the client, so failures are logged
// and swallowed.
func (h *Hub) setOnline(client *Client, online bool) {
	if err := h.store.SetOnline(client.UserID, client.Role, online); err != nil {
		slog.Error("failed to set online status", "error", err, "user_id", client.UserID)
	}
	if h.redis == nil {
		return
	}
	var err error
	if online {
		err = redisc.SetOnline(h.redis, client.UserID)
	} else {
		err = redisc.SetOffline(h.redis, client.UserID)
	}
	if err != nil {
		slog.Error("failed to update presence set", "error", err, "user_id", client.UserID)
	}
}

// Lookup returns the user's active connection, or nil.
func (h *Hub) Lookup(userID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

// SendToUser pushes data to the user's active connection if present. Offline
// users are skipped; there is no queued delivery. The send happens under the
// read lock so the channel cannot be closed out from under it.
func (h *Hub) SendToUser(userID string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if client, ok := h.clients[userID]; ok {
		select {
		case client.send <- data:
		default:
		}
	}
}

func (h *Hub) Shutdown() {
	h.mu.Lock()
	for _, client := range h.clients {
		close(client.send)
	}
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	h.timerMu.Lock()
	for id, t := range h.callTimers {
		t.Stop()
		delete(h.callTimers, id)
	}
	h.timerMu.Unlock()
}
