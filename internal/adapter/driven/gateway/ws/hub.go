package ws

import (
	"context"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/rs/zerolog/log"
)

const broadcastBuffer = 256

type subscription struct {
	callID domain.CallID
	client Client
}

// Hub pushes call events to the clients subscribed to that call.
// implements port.RealTimeGateway
type Hub struct {
	clients    map[domain.CallID]map[Client]bool
	broadcast  chan domain.CallEvent
	register   chan subscription
	unregister chan subscription
	quit       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[domain.CallID]map[Client]bool),
		broadcast:  make(chan domain.CallEvent, broadcastBuffer),
		register:   make(chan subscription),
		unregister: make(chan subscription),
		quit:       make(chan struct{}),
	}
}

func (h *Hub) Publish(ctx context.Context, event domain.CallEvent) error {
	select {
	case h.broadcast <- event:
	default:
		log.Warn().Str("call_id", event.CallID.String()).Msg("Broadcast channel full, dropping event")
	}
	return nil
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.quit:
			for callID, clients := range h.clients {
				for client := range clients {
					client.Close()
				}
				delete(h.clients, callID)
			}
			return

		case sub := <-h.register:
			clients, ok := h.clients[sub.callID]
			if !ok {
				clients = make(map[Client]bool)
				h.clients[sub.callID] = clients
			}
			clients[sub.client] = true
			log.Info().Str("client_id", sub.client.ID()).Str("call_id", sub.callID.String()).Msg("Client subscribed")

		case sub := <-h.unregister:
			h.drop(sub.callID, sub.client)

		case event := <-h.broadcast:
			for client := range h.clients[event.CallID] {
				if err := client.SendEvent(event); err != nil {
					log.Error().Err(err).Str("client_id", client.ID()).Msg("Error sending event")
					h.drop(event.CallID, client)
				}
			}
		}
	}
}

func (h *Hub) drop(callID domain.CallID, client Client) {
	clients, ok := h.clients[callID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.clients, callID)
	}
	client.Close()
	log.Info().Str("client_id", client.ID()).Str("call_id", callID.String()).Msg("Client unsubscribed")
}

func (h *Hub) Register(callID domain.CallID, c Client) {
	select {
	case h.register <- subscription{callID: callID, client: c}:
	case <-h.quit:
	}
}

func (h *Hub) Unregister(callID domain.CallID, c Client) {
	select {
	case h.unregister <- subscription{callID: callID, client: c}:
	case <-h.quit:
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}
