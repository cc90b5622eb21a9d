// Package form implements the letter writer: input, submit, clear and
// confirmed deletion, with the notices each outcome shows the user.
package form

import (
	"errors"
	"log/slog"

	"github.com/starford/letterbox/internal/apperr"
	"github.com/starford/letterbox/internal/letters"
	"github.com/starford/letterbox/internal/models"
)

// State of the form.
type State int

const (
	// Idle means all fields are cleared.
	Idle State = iota
	// Editing means the fields may hold partial input.
	Editing
)

func (s State) String() string {
	if s == Editing {
		return "editing"
	}
	return "idle"
}

// Fields are the three inputs of the letter writer.
type Fields struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Store is the slice of the repository the controller needs.
type Store interface {
	Add(title, content, author string) (models.Letter, error)
	Remove(id string) (bool, error)
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// DeletePrompt is the question shown before a letter is removed.
const DeletePrompt = "Are you sure you want to delete this letter?"

// Controller drives one letter form.
type Controller struct {
	store  Store
	fields Fields
	state  State

	// OnChange runs after every successful add or remove, with the event
	// kind ("created" or "deleted") and the letter id.
	OnChange func(kind, id string)
}

// NewController returns an idle controller.
func NewController(store Store) *Controller {
	return &Controller{store: store}
}

// State reports the current state.
func (c *Controller) State() State { return c.state }

// Fields returns the current field values.
func (c *Controller) Fields() Fields { return c.fields }

// Input stores user input and enters Editing.
func (c *Controller) Input(f Fields) {
	c.fields = f
	c.state = Editing
}

// Clear empties every field and returns to Idle.
func (c *Controller) Clear() {
	c.fields = Fields{}
	c.state = Idle
}

// Submit saves the current fields as a letter. On a validation failure the
// repository is not touched, the fields are kept and the blocking
// NoticeMissingFields is returned with the error. On a storage failure the
// fields are kept as well so the user can retry.
func (c *Controller) Submit() (models.Letter, Notice, error) {
	if _, _, _, err := letters.Validate(c.fields.Title, c.fields.Content, c.fields.Author); err != nil {
		c.state = Editing
		return models.Letter{}, NoticeMissingFields, err
	}

	l, err := c.store.Add(c.fields.Title, c.fields.Content, c.fields.Author)
	if err != nil {
		c.state = Editing
		if errors.Is(err, apperr.ErrValidation) {
			return models.Letter{}, NoticeMissingFields, err
		}
		slog.Error("save letter failed", slog.String("error", err.Error()))
		return models.Letter{}, NoticeSaveFailed, err
	}

	c.Clear()
	c.changed("created", l.ID)
	return l, NoticeSaved, nil
}

// Delete removes the letter with id once confirm approves. A declined
// confirmation returns (false, zero Notice, nil). Deleting an id that no
// longer exists is reported with ErrNotFound.
func (c *Controller) Delete(id string, confirm Confirmer) (bool, Notice, error) {
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		return false, Notice{}, nil
	}
	removed, err := c.store.Remove(id)
	if err != nil {
		slog.Error("delete letter failed", slog.String("id", id), slog.String("error", err.Error()))
		return false, NoticeDeleteFailed, err
	}
	if !removed {
		return false, NoticeNotFound, apperr.ErrNotFound
	}
	c.changed("deleted", id)
	return true, NoticeDeleted, nil
}

func (c *Controller) changed(kind, id string) {
	if c.OnChange != nil {
		c.OnChange(kind, id)
	}
}
