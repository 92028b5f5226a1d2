package websocket

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/thereayou/securechat/internal/logging"
)

// membership is a register or removal request handled by the Run loop.
// done is closed once the change is applied.
type membership struct {
	client   *Client
	identity string
	done     chan struct{}
}

// Hub maps each identity to its single live connection and fans out
// broadcasts. Every mutation runs on the Run goroutine, so a producer's
// broadcasts reach all clients in the order it submitted them.
type Hub struct {
	clients map[string]*Client

	register   chan membership
	unregister chan membership
	leave      chan membership
	broadcast  chan Envelope

	// mu guards clients for readers outside the Run loop
	mu sync.RWMutex

	logger logging.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewHub(logger logging.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan membership),
		unregister: make(chan membership),
		leave:      make(chan membership),
		broadcast:  make(chan Envelope),
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Stop is called or ctx
// is done. It must run in its own goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			h.cancel()
			return

		case <-h.ctx.Done():
			return

		case m := <-h.register:
			h.registerClient(m.client)
			close(m.done)

		case m := <-h.unregister:
			h.unregisterIdentity(m.identity)
			close(m.done)

		case m := <-h.leave:
			h.removeClient(m.client)
			close(m.done)

		case env := <-h.broadcast:
			h.broadcastEnvelope(env)
		}
	}
}

// Stop ends the Run loop and closes every registered connection.
func (h *Hub) Stop() {
	h.cancel()
	<-h.done
}

// Register makes client the connection for its identity. A previous
// connection under the same identity is evicted and closed.
func (h *Hub) Register(client *Client) error {
	return h.submit(h.register, membership{client: client})
}

// Unregister drops whatever connection is registered under identity and
// closes it. Unknown identities are ignored.
func (h *Hub) Unregister(identity string) error {
	return h.submit(h.unregister, membership{identity: identity})
}

// Broadcast queues {sender, text} for every registered connection,
// including the sender's own.
func (h *Hub) Broadcast(sender, text string) error {
	select {
	case h.broadcast <- Envelope{Sender: sender, Text: text}:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// Online returns the identities with a registered connection, sorted.
func (h *Hub) Online() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for identity := range h.clients {
		users = append(users, identity)
	}
	sort.Strings(users)
	return users
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// IsRegistered reports whether client is the live connection for its
// identity.
func (h *Hub) IsRegistered(client *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[client.Identity] == client
}

// remove detaches client when it disconnects on its own. It is a no-op
// if another connection has already replaced it.
func (h *Hub) remove(client *Client) {
	_ = h.submit(h.leave, membership{client: client})
}

func (h *Hub) submit(ch chan membership, m membership) error {
	m.done = make(chan struct{})
	select {
	case ch <- m:
	case <-h.ctx.Done():
		return ErrHubClosed
	}
	select {
	case <-m.done:
		return nil
	case <-h.done:
		return ErrHubClosed
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	old := h.clients[client.Identity]
	h.clients[client.Identity] = client
	count := len(h.clients)
	h.mu.Unlock()

	if old != nil && old != client {
		h.closeClient(old)
		h.logger.Info(h.ctx, "client replaced", "identity", client.Identity, "old_id", old.ID, "new_id", client.ID)
	}
	h.logger.Info(h.ctx, "client registered", "identity", client.Identity, "id", client.ID, "clients", count)
}

func (h *Hub) unregisterIdentity(identity string) {
	h.mu.Lock()
	client, ok := h.clients[identity]
	if ok {
		delete(h.clients, identity)
	}
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.closeClient(client)
		h.logger.Info(h.ctx, "client unregistered", "identity", identity, "id", client.ID, "clients", count)
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.Identity]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.Identity)
	count := len(h.clients)
	h.mu.Unlock()

	h.closeClient(client)
	h.logger.Info(h.ctx, "client disconnected", "identity", client.Identity, "id", client.ID, "clients", count)
}

func (h *Hub) broadcastEnvelope(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error(h.ctx, "cannot encode envelope", "error", err)
		return
	}

	h.mu.RLock()
	var slow []*Client
	for _, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.logger.Warn(h.ctx, "client send queue full, evicting", "identity", client.Identity, "id", client.ID)
		h.removeClient(client)
	}
}

// closeClient closes the send queue; the write pump then sends a close
// frame and shuts the connection. Only the Run loop calls it, and only
// for a client it has just removed, so each queue is closed once.
func (h *Hub) closeClient(client *Client) {
	close(client.Send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, client := range clients {
		h.closeClient(client)
	}
}
