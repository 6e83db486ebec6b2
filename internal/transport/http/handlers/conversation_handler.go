package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/vedran77/relay/internal/domain"
	"github.com/vedran77/relay/internal/service"
	"github.com/vedran77/relay/internal/transport/http/middleware"
	"go.uber.org/zap"
)

type ConversationHandler struct {
	conversations *service.ConversationService
	logger        *zap.Logger
}

func NewConversationHandler(conversations *service.ConversationService, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, logger: logger}
}

// Create makes a new conversation with the caller plus the given
// participants. Two resolved participants make a direct conversation;
// racing direct creates converge on the same conversation.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		ParticipantIDs []uuid.UUID `json:"participant_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}

	conv, err := h.conversations.Create(r.Context(), userID, input.ParticipantIDs)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTooFewParticipants):
			writeError(w, http.StatusBadRequest, "VALIDATION", "A conversation needs at least 2 participants")
		case errors.Is(err, service.ErrParticipantNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Participant user not found")
		default:
			h.logger.Error("create conversation", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	convs, err := h.conversations.ListForUser(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list conversations", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, convs)
}
