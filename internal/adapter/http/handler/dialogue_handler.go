package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/dto"
	"github.com/AnnaArgentina/family-budget-bot/internal/adapter/http/middleware"
	"github.com/AnnaArgentina/family-budget-bot/internal/dialogue"
	"github.com/AnnaArgentina/family-budget-bot/internal/domain"
)

const maxSessionKeyLength = 128

// DialogueEngine defines the behavior needed by DialogueHandler.
type DialogueEngine interface {
	Handle(ctx context.Context, actor domain.Actor, sessionKey, text string) (*dialogue.Reply, error)
}

// DialogueHandler relays chat messages to the dialogue engine.
type DialogueHandler struct {
	engine DialogueEngine
}

// NewDialogueHandler creates a new DialogueHandler.
func NewDialogueHandler(engine DialogueEngine) *DialogueHandler {
	return &DialogueHandler{engine: engine}
}

// Message feeds one message into the session named in the path.
func (h *DialogueHandler) Message(w http.ResponseWriter, r *http.Request) {
	session := strings.TrimSpace(chi.URLParam(r, "session"))
	if session == "" || len(session) > maxSessionKeyLength {
		writeError(w, http.StatusBadRequest, "invalid session", "")
		return
	}

	var req dto.DialogueRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	reply, err := h.engine.Handle(r.Context(), middleware.ActorFromContext(r.Context()), session, req.Text)
	if err != nil {
		writeDomainError(w, "dialogue failed", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DialogueFromReply(reply))
}
