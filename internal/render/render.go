// Package render turns application state into HTML. All user text goes
// through html/template, which escapes it for the context it lands in.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"github.com/starford/letterbox/internal/countdown"
	"github.com/starford/letterbox/internal/form"
	"github.com/starford/letterbox/internal/models"
	"github.com/starford/letterbox/internal/player"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// EmptyLetters is shown instead of the list when there are no letters.
const EmptyLetters = "No letters saved yet. Write the first birthday message!"

// Tab is one entry of the navigation shell.
type Tab struct {
	ID    string
	Label string
}

// Tabs lists the page sections in display order.
var Tabs = []Tab{
	{ID: "celebrate", Label: "Celebrate"},
	{ID: "music", Label: "Music"},
	{ID: "letters", Label: "Letters"},
	{ID: "countdown", Label: "Countdown"},
}

// NormalizeTab returns id when it names a known tab, otherwise the first tab.
func NormalizeTab(id string) string {
	for _, t := range Tabs {
		if t.ID == id {
			return id
		}
	}
	return Tabs[0].ID
}

// Card is a flip card with a front and a back side.
type Card struct {
	Front string
	Back  string
}

// Page is everything the main page shows.
type Page struct {
	Title      string
	Tab        string
	Letters    []models.Letter
	Form       form.Fields
	Notice     form.Notice
	Countdown  countdown.Remaining
	Target     string
	Track      player.Track
	Cards      []Card
	ConfettiOn bool
}

// Renderer holds the parsed templates.
type Renderer struct {
	t *template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"formatTime": player.FormatTime,
		"tabs":       func() []Tab { return Tabs },
		"emptyText":  func() string { return EmptyLetters },
	}).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("render: parse templates: %w", err)
	}
	return &Renderer{t: t}, nil
}

// Static returns the embedded stylesheet and script.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Letters renders the letter list fragment to a string.
func (r *Renderer) Letters(letters []models.Letter) (string, error) {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, "letters", letters); err != nil {
		return "", fmt.Errorf("render: letters: %w", err)
	}
	return buf.String(), nil
}

// WriteLetters writes the letter list fragment.
func (r *Renderer) WriteLetters(w io.Writer, letters []models.Letter) error {
	return r.execute(w, "letters", letters)
}

// WritePage writes the full page.
func (r *Renderer) WritePage(w io.Writer, p Page) error {
	p.Tab = NormalizeTab(p.Tab)
	return r.execute(w, "page", p)
}

// WriteConfirmDelete writes the delete confirmation page for l.
func (r *Renderer) WriteConfirmDelete(w io.Writer, l models.Letter) error {
	return r.execute(w, "confirm", struct {
		Letter models.Letter
		Prompt string
	}{l, form.DeletePrompt})
}

// execute renders into a buffer first so a failing template never leaves a
// half-written response.
func (r *Renderer) execute(w io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render: %s: %w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}
