package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Wyydra/voicetext/internal/adapter/driven/gateway"
	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// TODO: restrict to the UI origin once it is served from a fixed host
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSClient is written to by the hub and by the read loop, so writes are
// serialized. Events that arrive before the first snapshot is written are
// held back, and message events already covered by a snapshot are skipped.
type WSClient struct {
	id   string
	conn *websocket.Conn

	mu      sync.Mutex
	synced  bool
	pending []domain.CallEvent
	lastSeq uint64
}

func (c *WSClient) ID() string {
	return c.id
}

func (c *WSClient) SendEvent(event domain.CallEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.synced {
		c.pending = append(c.pending, event)
		return nil
	}
	return c.deliverLocked(event)
}

func (c *WSClient) Close() error {
	return c.conn.Close()
}

func (c *WSClient) deliverLocked(event domain.CallEvent) error {
	switch event.Type {
	case domain.EventMessage:
		if event.Message != nil {
			if event.Message.Seq <= c.lastSeq {
				return nil
			}
			c.lastSeq = event.Message.Seq
		}
	case domain.EventStatus:
		// an evicted call comes back with a fresh sequence
		if event.Status == domain.StatusIdle {
			c.lastSeq = 0
		}
	}
	return c.writeJSONLocked(gateway.NewEventDTO(event))
}

// sync writes a snapshot and then the events held back before it.
func (c *WSClient) sync(snap snapshotDTO) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeJSONLocked(snap); err != nil {
		return err
	}
	for _, m := range snap.Messages {
		c.lastSeq = max(c.lastSeq, m.Seq)
	}
	if c.synced {
		return nil
	}
	c.synced = true
	pending := c.pending
	c.pending = nil
	for _, ev := range pending {
		if err := c.deliverLocked(ev); err != nil {
			return err
		}
	}
	return nil
}

func (c *WSClient) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeJSONLocked(v)
}

func (c *WSClient) writeJSONLocked(v any) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

type snapshotDTO struct {
	Type     string               `json:"type"`
	Call     callDTO              `json:"call"`
	Messages []gateway.MessageDTO `json:"messages"`
}

type wsErrorDTO struct {
	Type  string    `json:"type"`
	Error errorBody `json:"error"`
}

// ServeWS subscribes the connection to one call's events. The client may
// also send messages and hang up over the same socket.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	callID, err := callIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if _, err := h.CallService.GetStatus(r.Context(), callID); err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Error while upgrading ws")
		return
	}

	client := &WSClient{
		id:   uuid.New().String(),
		conn: conn,
	}

	l := log.With().Str("client_id", client.id).Str("call_id", callID.String()).Logger()
	l.Info().Msg("New client connected")

	// Subscribe before taking the snapshot; the client holds events back
	// until the snapshot is out.
	h.Hub.Register(callID, client)

	defer func() {
		l.Info().Msg("Client disconnected")
		h.Hub.Unregister(callID, client)
		conn.Close()
	}()

	ctx := context.WithoutCancel(r.Context())
	if err := h.sendSnapshot(ctx, client, callID); err != nil {
		l.Error().Err(err).Msg("Failed to send snapshot")
		return
	}

	// listening for browser
	for {
		type incomingDTO struct {
			Type      string `json:"type"`
			Text      string `json:"text"`
			Translate bool   `json:"translate"`
		}

		var req incomingDTO
		err := conn.ReadJSON(&req)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				l.Error().Err(err).Msg("Unexpected close error")
			}
			break
		}

		switch req.Type {
		case "message":
			_, err = h.CallService.SendMessage(ctx, callID, req.Text, req.Translate)
		case "end":
			_, err = h.CallService.EndCall(ctx, callID)
		case "snapshot":
			err = h.sendSnapshot(ctx, client, callID)
		default:
			err = domain.ErrInvalidInput
		}
		if err != nil {
			l.Debug().Err(err).Str("type", req.Type).Msg("Failed to process ws request")
			_, code := statusFromError(err)
			if werr := client.writeJSON(wsErrorDTO{Type: "error", Error: errorBody{Code: code, Message: err.Error()}}); werr != nil {
				break
			}
		}
	}
}

func (h *Handler) sendSnapshot(ctx context.Context, client *WSClient, callID domain.CallID) error {
	info, err := h.CallService.GetStatus(ctx, callID)
	if err != nil {
		return err
	}
	msgs, err := h.CallService.GetTimeline(ctx, callID)
	if err != nil {
		return err
	}
	out := make([]gateway.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, gateway.NewMessageDTO(m))
	}
	return client.sync(snapshotDTO{Type: "snapshot", Call: newCallDTO(info), Messages: out})
}
