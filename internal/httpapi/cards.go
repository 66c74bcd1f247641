package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/cardbuddy/cardbuddy/internal/auth"
	"github.com/cardbuddy/cardbuddy/internal/flashcard"
	"github.com/cardbuddy/cardbuddy/pkg/logger"
)

func (h *handlers) listFlashcards(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	cards, err := h.flashcards.List(r.Context(), id.UID)
	if err != nil {
		h.log.ErrorContext(r.Context(), "flashcard listing failed",
			logger.UserID(id.UID), logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "flashcards unavailable")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success    bool             `json:"success"`
		Flashcards []flashcard.Card `json:"flashcards"`
	}{true, cards})
}

func (h *handlers) createFlashcard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Front    string `json:"front"`
		Back     string `json:"back"`
		Category string `json:"category"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidPayload, "malformed request body")
		return
	}

	card, err := h.flashcards.Create(r.Context(), id.UID, req.Front, req.Back, req.Category)
	if errors.Is(err, flashcard.ErrMissingCardSides) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "flashcard creation failed",
			logger.UserID(id.UID), logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "could not save flashcard")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success   bool            `json:"success"`
		Flashcard *flashcard.Card `json:"flashcard"`
	}{true, card})
}

func (h *handlers) generateFlashcards(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidPayload, "malformed request body")
		return
	}

	cards, err := h.flashcards.GenerateFromText(r.Context(), id.UID, req.Text)
	if errors.Is(err, flashcard.ErrTextTooShort) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "flashcard generation failed",
			logger.UserID(id.UID), logger.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeStoreUnavailable, "could not save generated flashcards")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success    bool             `json:"success"`
		Flashcards []flashcard.Card `json:"flashcards"`
		Message    string           `json:"message"`
	}{true, cards, fmt.Sprintf("Generated %d flashcards successfully", len(cards))})
}

// explain serves authenticated and anonymous callers alike; only the
// former get a history entry.
func (h *handlers) explain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text   string `json:"text"`
		Source string `json:"source"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidPayload, "malformed request body")
		return
	}
	if req.Source == "" {
		req.Source = "extension"
	}

	var userID string
	if id, ok := auth.GetIdentity(r.Context()); ok {
		userID = id.UID
	}

	explanation, textLen, err := h.flashcards.Explain(r.Context(), userID, req.Text, req.Source)
	if errors.Is(err, flashcard.ErrTextTooShort) {
		writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "explanation failed", logger.Error(err))
		writeError(w, http.StatusInternalServerError, codeStoreUnavailable, "could not generate explanation")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Explanation        string `json:"explanation"`
		OriginalTextLength int    `json:"original_text_length"`
	}{explanation, textLen})
}
