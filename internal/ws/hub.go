// Package ws is the outbound notification channel: a hub of player
// connections the matchmaking core pushes matched/abandoned events through.
// Delivery is best effort; slow consumers get dropped messages, not a
// blocked matching pass.
package ws

import "sync"

type Hub struct {
	clients    map[string]*Client // playerId -> client
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastReq
	sendOne    chan sendReq
	incoming   chan IncomingMessage
	OnIncoming func(IncomingMessage)
	quit       chan struct{}
	mu         sync.RWMutex
}

type broadcastReq struct {
	PlayerIDs []string
	Message   OutgoingMessage
}

type sendReq struct {
	PlayerID string
	Message  OutgoingMessage
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastReq),
		sendOne:    make(chan sendReq),
		incoming:   make(chan IncomingMessage),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.PlayerID] = c
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.PlayerID]; ok {
				delete(h.clients, c.PlayerID)
				close(c.Send)
			}
			h.mu.Unlock()

		case req := <-h.broadcast:
			h.mu.RLock()
			for _, id := range req.PlayerIDs {
				if client, ok := h.clients[id]; ok {
					select {
					case client.Send <- req.Message:
					default:
						// Slow consumer; drop rather than stall the hub.
					}
				}
			}
			h.mu.RUnlock()

		case req := <-h.sendOne:
			h.mu.RLock()
			if client, ok := h.clients[req.PlayerID]; ok {
				select {
				case client.Send <- req.Message:
				default:
				}
			}
			h.mu.RUnlock()

		case msg := <-h.incoming:
			if h.OnIncoming != nil {
				h.OnIncoming(msg)
			}

		case <-h.quit:
			h.mu.Lock()
			for _, c := range h.clients {
				close(c.Send)
			}
			h.clients = make(map[string]*Client)
			h.mu.Unlock()
			return
		}
	}
}

// BroadcastToPlayers pushes msg to every listed player with a connection.
func (h *Hub) BroadcastToPlayers(playerIDs []string, msg OutgoingMessage) {
	h.broadcast <- broadcastReq{PlayerIDs: playerIDs, Message: msg}
}

// SendToPlayer pushes msg to one player.
func (h *Hub) SendToPlayer(playerID string, msg OutgoingMessage) {
	h.sendOne <- sendReq{PlayerID: playerID, Message: msg}
}

func (h *Hub) Close() {
	close(h.quit)
}
