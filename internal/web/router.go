// Package web serves the letterbox page, its form actions and the JSON API
// using chi.
package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/letterbox/internal/countdown"
	"github.com/starford/letterbox/internal/effects"
	"github.com/starford/letterbox/internal/form"
	"github.com/starford/letterbox/internal/models"
	"github.com/starford/letterbox/internal/player"
	"github.com/starford/letterbox/internal/render"
	"github.com/starford/letterbox/internal/sse"
)

// Letters is the part of the letter repository the handlers use.
type Letters interface {
	form.Store
	List() []models.Letter
	Search(query string) []models.Letter
	Count() int
	Get(id string) (models.Letter, bool)
}

// Site is the state and content the handlers read from. Events and Confetti
// may be nil.
type Site struct {
	Title    string
	Letters  Letters
	View     *render.Renderer
	Events   *sse.Broker
	Confetti *effects.Spawner
	Target   countdown.Target
	Track    player.Track
	Cards    []render.Card
	Now      func() time.Time
}

// NewRouter creates a chi router with the page, form, event and API routes.
// authEnabled controls whether Bearer token auth is enforced on /api.
func NewRouter(site Site, authEnabled bool, token string) chi.Router {
	h := NewHandler(site)

	r := chi.NewRouter()

	r.Get("/", h.Page)
	r.Post("/letters", h.SubmitLetter)
	r.Post("/letters/clear", h.ClearForm)
	r.Get("/letters/list", h.LetterList)
	r.Get("/letters/{id}/delete", h.ConfirmDelete)
	r.Post("/letters/{id}/delete", h.DeleteLetter)
	r.Post("/confetti/toggle", h.ToggleConfetti)

	if site.Events != nil {
		r.Get("/events", site.Events.ServeHTTP)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(render.Static())))

	r.Route("/api", func(api chi.Router) {
		api.Use(AuthMiddleware(authEnabled, token))
		api.Get("/letters", h.ListLetters)
		api.Post("/letters", h.CreateLetter)
		api.Delete("/letters/{id}", h.RemoveLetter)
		api.Get("/countdown", h.Countdown)
	})

	return r
}

// Handler holds the route handlers.
type Handler struct {
	site Site
}

// NewHandler creates a new Handler.
func NewHandler(site Site) *Handler {
	if site.Now == nil {
		site.Now = time.Now
	}
	return &Handler{site: site}
}

// controller returns a form controller whose changes are pushed to the
// event stream.
func (h *Handler) controller() *form.Controller {
	c := form.NewController(h.site.Letters)
	c.OnChange = func(kind, id string) {
		if h.site.Events != nil {
			h.site.Events.PublishLetterEvent(kind, id, h.site.Letters.Count())
		}
	}
	return c
}
