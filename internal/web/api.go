package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/letterbox/internal/apperr"
	"github.com/starford/letterbox/internal/checksum"
	"github.com/starford/letterbox/internal/countdown"
	"github.com/starford/letterbox/internal/form"
)

// ListLetters handles GET /api/letters. An optional q parameter filters the
// letters by fuzzy match, best first. The ETag is the SHA-256 of the
// serialized list; a matching If-None-Match yields 304.
func (h *Handler) ListLetters(w http.ResponseWriter, r *http.Request) {
	list := h.site.Letters.Search(r.URL.Query().Get("q"))
	etag, err := checksum.ETag(list)
	if err != nil {
		slog.Error("letters etag failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, LetterListResponse{Letters: list, Count: len(list)})
}

// CreateLetter handles POST /api/letters.
func (h *Handler) CreateLetter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	var req CreateLetterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	c := h.controller()
	c.Input(form.Fields(req))
	letter, _, err := c.Submit()
	if err != nil {
		var verr *apperr.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusUnprocessableEntity, errResponse{Error: verr.Error(), Fields: verr.Fields})
		case errors.Is(err, apperr.ErrStorage):
			writeJSON(w, http.StatusServiceUnavailable, errorBody("storage unavailable"))
		default:
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, letter)
}

// RemoveLetter handles DELETE /api/letters/{id}. The request itself is the
// confirmation.
func (h *Handler) RemoveLetter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	_, _, err := h.controller().Delete(id, form.ConfirmFunc(func(string) bool { return true }))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
		case errors.Is(err, apperr.ErrStorage):
			writeJSON(w, http.StatusServiceUnavailable, errorBody("storage unavailable"))
		default:
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Countdown handles GET /api/countdown.
func (h *Handler) Countdown(w http.ResponseWriter, _ *http.Request) {
	now := h.site.Now()
	writeJSON(w, http.StatusOK, CountdownResponse{
		Target:    h.site.Target.Next(now),
		Remaining: countdown.Until(now, h.site.Target),
	})
}
