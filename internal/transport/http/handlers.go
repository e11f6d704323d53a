package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/store"
)

// StoreHandler exposes a ConversationStore as JSON resources.
type StoreHandler struct {
	store    store.ConversationStore
	validate *validator.Validate
}

func NewStoreHandler(s store.ConversationStore) *StoreHandler {
	return &StoreHandler{store: s, validate: validator.New()}
}

type createConversationRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// decode reads the body into v and runs struct validation on it.
func (h *StoreHandler) decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidInput)
	}
	if err := h.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

// ListMessages returns every message, unfiltered and unordered by contract.
func (h *StoreHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.store.ListMessages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (h *StoreHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var req domain.NewMessage
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.store.CreateMessage(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

// UpdateMessage applies a partial update. A false is_read never clears a read message.
func (h *StoreHandler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	var patch domain.MessagePatch
	if err := h.decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	msg, err := h.store.UpdateMessage(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, msg)
}

func (h *StoreHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	convs, err := h.store.ListConversations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *StoreHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var req createConversationRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	conv, err := h.store.CreateConversation(r.Context(), domain.ParticipantInfo{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conv)
}

func (h *StoreHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	conv, err := h.store.GetConversation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (h *StoreHandler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	var patch domain.ConversationPatch
	if err := h.decode(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}

	conv, err := h.store.UpdateConversation(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conv)
}
