// Package server coordinates client registration, frame broadcast, and
// connection cleanup for one WebSocket namespace via the Hub type.
package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lounge-chat/lounge-server/internal/protocol"
)

// Hub manages the WebSocket client connections of one namespace and fans
// outbound frames to them. Each registered client carries a joined flag:
// broadcasts reach only clients that entered the room, while direct
// responses always go straight to the requesting connection.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan BroadcastMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
	log        zerolog.Logger
}

// NewHub creates and initializes a new Hub instance with all necessary
// channels and client map. The returned Hub is ready to manage WebSocket
// connections once Run is started.
func NewHub(logger zerolog.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan BroadcastMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		log:        logger,
	}
}

// GetRegisterChan returns the channel used for registering new clients to the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from the hub.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// Join marks the connection as a room member. Membership takes effect
// before Join returns, so a broadcast issued right after includes it.
func (h *Hub) Join(conn protocol.Conn) {
	client, ok := conn.(*Client)
	if !ok {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, registered := h.clients[client]; registered {
		h.clients[client] = true
	}
}

// JoinedCount reports how many live connections are currently in the room.
func (h *Hub) JoinedCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	count := 0
	for _, joined := range h.clients {
		if joined {
			count++
		}
	}
	return count
}

// Broadcast fans the frame out to the room through the hub loop. The
// sender is excluded unless includeSender is set.
func (h *Hub) Broadcast(sender protocol.Conn, payload []byte, includeSender bool) {
	select {
	case h.broadcast <- BroadcastMessage{Sender: sender, Payload: payload, IncludeSender: includeSender}:
	case <-h.ctx.Done():
	}
}

// Unicast delivers the frame to a single connection, dropping it silently
// when the target is already gone.
func (h *Hub) Unicast(target protocol.Conn, payload []byte) {
	client, ok := target.(*Client)
	if !ok {
		return
	}
	h.safeSend(client, payload)
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Warn().Any("panic", r).Msg("recovered from panic in safeSend")
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	// The send channel may be closed concurrently, hence the recover above.
	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop, handling client registration,
// unregistration, and frame broadcasting. This method should be called in a
// separate goroutine as it runs indefinitely.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				h.log.Warn().Msg("received nil client registration, skipping")
				continue
			}

			h.mutex.Lock()
			client.closed = false
			h.clients[client] = false
			clientCount := len(h.clients)
			h.mutex.Unlock()
			h.log.Info().Str("addr", client.addr).Int("clients", clientCount).Msg("client registered")

			h.wg.Add(2)
			go func() {
				defer h.wg.Done()
				client.writePump()
			}()
			go func() {
				defer h.wg.Done()
				client.readPump()
			}()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closed = true
				clientCount := len(h.clients)
				h.mutex.Unlock()
				// Close the channel after releasing the lock
				close(client.send)
				h.log.Info().Str("addr", client.addr).Int("clients", clientCount).Msg("client unregistered")
			} else {
				h.mutex.Unlock()
			}

		case broadcastMsg := <-h.broadcast:
			h.handleBroadcast(broadcastMsg)
		}
	}
}

// handleBroadcast sends a frame to every room member, honoring the sender
// exclusion rule, and drops members whose send buffers are full.
func (h *Hub) handleBroadcast(broadcastMsg BroadcastMessage) {
	members := h.getMemberSnapshot()

	var clientsToRemove []*Client
	for _, client := range members {
		if !broadcastMsg.IncludeSender && broadcastMsg.Sender == client {
			continue
		}
		if !h.safeSend(client, broadcastMsg.Payload) {
			clientsToRemove = append(clientsToRemove, client)
		}
	}

	h.removeFailedClients(clientsToRemove)
}

// getMemberSnapshot returns a thread-safe snapshot of the clients that
// joined the room.
func (h *Hub) getMemberSnapshot() []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	members := make([]*Client, 0, len(h.clients))
	for client, joined := range h.clients {
		if joined {
			members = append(members, client)
		}
	}
	return members
}

// removeFailedClients removes clients that failed to receive frames and closes their channels
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			h.log.Warn().Str("addr", client.addr).Msg("client removed due to full send buffer")
		}
	}
	h.mutex.Unlock()

	// Close channels after releasing the lock
	for _, ch := range channelsToClose {
		close(ch)
	}
}

// shutdownClients gracefully closes all active client connections
func (h *Hub) shutdownClients() {
	h.log.Info().Msg("shutting down all client connections")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					h.log.Error().Err(err).Str("addr", client.addr).Msg("error closing client connection")
				}
			}
		}
	}

	h.log.Info().Int("clients", len(clients)).Msg("closed client connections")
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines to complete.
// It returns after all client connections are closed and goroutines have finished,
// or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info().Msg("initiating hub shutdown")

	// Signal shutdown
	h.cancel()

	// Wait for Run() to complete
	<-h.done

	// Wait for all client goroutines to finish with timeout
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info().Msg("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.log.Warn().Msg("hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
