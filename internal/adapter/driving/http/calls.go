package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/Wyydra/voicetext/internal/adapter/driven/gateway"
	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/Wyydra/voicetext/internal/core/service"
	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 64 << 10

type callDTO struct {
	CallID      string     `json:"call_id"`
	Status      string     `json:"status"`
	PhoneNumber string     `json:"phone_number,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

func newCallDTO(info domain.CallInfo) callDTO {
	dto := callDTO{
		CallID:      info.ID.String(),
		Status:      info.Status.String(),
		PhoneNumber: info.PhoneNumber,
	}
	if !info.StartedAt.IsZero() {
		started := info.StartedAt
		dto.StartedAt = &started
	}
	return dto
}

type callRecordDTO struct {
	CallID      string    `json:"call_id"`
	PhoneNumber string    `json:"phone_number"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
	DurationMS  int64     `json:"duration_ms"`
	Messages    int       `json:"messages"`
	LastStatus  string    `json:"last_status"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func callIDParam(r *http.Request) (domain.CallID, error) {
	raw := chi.URLParam(r, "callID")
	id, err := domain.ParseCallID(raw)
	if err != nil {
		return domain.CallID{}, fmt.Errorf("%w: %s", domain.ErrNotFound, raw)
	}
	return id, nil
}

func (h *Handler) startCall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phone_number"`
		CallID      string `json:"call_id"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	start := service.StartCallRequest{PhoneNumber: req.PhoneNumber}
	if req.CallID != "" {
		id, err := domain.ParseCallID(req.CallID)
		if err != nil {
			writeError(w, fmt.Errorf("%w: malformed call_id", domain.ErrInvalidInput))
			return
		}
		start.CallID = id
	}

	info, err := h.CallService.StartCall(r.Context(), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCallDTO(info))
}

func (h *Handler) listCalls(w http.ResponseWriter, r *http.Request) {
	calls := h.CallService.ListCalls(r.Context())
	out := make([]callDTO, 0, len(calls))
	for _, c := range calls {
		out = append(out, newCallDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getCall(w http.ResponseWriter, r *http.Request) {
	id, err := callIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	info, err := h.CallService.GetStatus(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newCallDTO(info))
}

func (h *Handler) endCall(w http.ResponseWriter, r *http.Request) {
	id, err := callIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.CallService.EndCall(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"call_id":     res.CallID.String(),
		"duration_ms": res.Duration.Milliseconds(),
	})
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := callIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req struct {
		Text      string `json:"text"`
		Translate bool   `json:"translate"`
	}
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.CallService.SendMessage(r.Context(), id, req.Text, req.Translate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message_id":              res.Message.ID.String(),
		"status":                  res.Status.String(),
		"message":                 gateway.NewMessageDTO(res.Message),
		"translation_unavailable": res.TranslationUnavailable,
	})
}

func (h *Handler) getTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := callIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	msgs, err := h.CallService.GetTimeline(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]gateway.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, gateway.NewMessageDTO(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) clearTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := callIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.CallService.ClearTimeline(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.CallService.History(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]callRecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, callRecordDTO{
			CallID:      rec.ID.String(),
			PhoneNumber: rec.PhoneNumber,
			StartedAt:   rec.StartedAt,
			EndedAt:     rec.EndedAt,
			DurationMS:  rec.Duration.Milliseconds(),
			Messages:    rec.Messages,
			LastStatus:  rec.LastStatus.String(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
