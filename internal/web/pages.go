package web

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/starford/letterbox/internal/apperr"
	"github.com/starford/letterbox/internal/countdown"
	"github.com/starford/letterbox/internal/form"
	"github.com/starford/letterbox/internal/render"
	"github.com/starford/letterbox/internal/sse"
)

const maxFormBytes = 1 << 20

// page assembles the page model for tab.
func (h *Handler) page(tab string) render.Page {
	return render.Page{
		Title:      h.site.Title,
		Tab:        tab,
		Letters:    h.site.Letters.List(),
		Countdown:  countdown.Until(h.site.Now(), h.site.Target),
		Target:     fmt.Sprintf("%s %d", h.site.Target.Month, h.site.Target.Day),
		Track:      h.site.Track,
		Cards:      h.site.Cards,
		ConfettiOn: h.site.Confetti != nil && h.site.Confetti.Enabled(),
	}
}

func (h *Handler) writePage(w http.ResponseWriter, status int, p render.Page) {
	var buf bytes.Buffer
	if err := h.site.View.WritePage(&buf, p); err != nil {
		slog.Error("render page failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, status, &buf)
}

func writeHTML(w http.ResponseWriter, status int, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect sends the browser back to the page after a form action.
func redirect(w http.ResponseWriter, r *http.Request, tab, notice string) {
	q := url.Values{}
	q.Set("tab", render.NormalizeTab(tab))
	if notice != "" {
		q.Set("notice", notice)
	}
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

// Page handles GET /.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := h.page(q.Get("tab"))
	if n, ok := form.NoticeFor(q.Get("notice")); ok {
		p.Notice = n
	}
	h.writePage(w, http.StatusOK, p)
}

// SubmitLetter handles POST /letters.
func (h *Handler) SubmitLetter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	c := h.controller()
	c.Input(form.Fields{
		Title:   r.PostForm.Get("title"),
		Content: r.PostForm.Get("content"),
		Author:  r.PostForm.Get("author"),
	})
	_, notice, err := c.Submit()
	if err == nil {
		redirect(w, r, "letters", notice.Key)
		return
	}

	status := http.StatusServiceUnavailable
	if errors.Is(err, apperr.ErrValidation) {
		status = http.StatusUnprocessableEntity
	}
	p := h.page("letters")
	p.Form = c.Fields()
	p.Notice = notice
	h.writePage(w, status, p)
}

// ClearForm handles POST /letters/clear.
func (h *Handler) ClearForm(w http.ResponseWriter, r *http.Request) {
	redirect(w, r, "letters", "")
}

// LetterList handles GET /letters/list.
func (h *Handler) LetterList(w http.ResponseWriter, _ *http.Request) {
	var buf bytes.Buffer
	if err := h.site.View.WriteLetters(&buf, h.site.Letters.List()); err != nil {
		slog.Error("render letters failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeHTML(w, http.StatusOK, &buf)
}

// ConfirmDelete handles GET /letters/{id}/delete.
func (h *Handler) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	l, ok := h.site.Letters.Get(chi.URLParam(r, "id"))
	if !ok {
		redirect(w, r, "letters", form.NoticeNotFound.Key)
		return
	}
	var buf bytes.Buffer
	if err := h.site.View.WriteConfirmDelete(&buf, l); err != nil {
		slog.Error("render confirm failed", slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeHTML(w, http.StatusOK, &buf)
}

// DeleteLetter handles POST /letters/{id}/delete. Only confirm=yes deletes.
func (h *Handler) DeleteLetter(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	approved := r.PostForm.Get("confirm") == "yes"

	_, notice, _ := h.controller().Delete(chi.URLParam(r, "id"), form.ConfirmFunc(func(string) bool {
		return approved
	}))
	redirect(w, r, "letters", notice.Key)
}

// ToggleConfetti handles POST /confetti/toggle.
func (h *Handler) ToggleConfetti(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	_ = r.ParseForm()
	if h.site.Confetti != nil {
		on := h.site.Confetti.Toggle()
		if h.site.Events != nil {
			h.site.Events.Publish(sse.Event{Type: sse.TypeConfettiToggled, Data: map[string]bool{"enabled": on}})
		}
	}
	redirect(w, r, r.PostForm.Get("tab"), "")
}
