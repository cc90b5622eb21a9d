// Package letters owns the authoritative in-memory letter list and routes
// every change through the storage adapter.
package letters

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/letterbox/internal/apperr"
	"github.com/starford/letterbox/internal/models"
)

// DefaultDateLayout renders creation dates like a US short date (8/8/2026).
const DefaultDateLayout = "1/2/2006"

// Adapter is the persistence boundary of the repository. Update applies fn
// to the list currently stored, which may include letters written by another
// process sharing the store.
type Adapter interface {
	Load() ([]models.Letter, error)
	Update(fn func([]models.Letter) ([]models.Letter, error)) error
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source used for creation dates.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

// WithIDGenerator overrides how letter ids are minted.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(r *Repository) {
		r.newID = gen
	}
}

// WithDateLayout sets the time layout of the Date field.
func WithDateLayout(layout string) Option {
	return func(r *Repository) {
		if layout != "" {
			r.layout = layout
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// Repository holds letters in insertion order. Every mutation is applied to
// the list the store holds at that moment and re-serializes it in full; on
// success the in-memory list becomes that result, on failure it is left as
// it was.
type Repository struct {
	mu      sync.RWMutex
	letters []models.Letter
	adapter Adapter

	now    func() time.Time
	newID  func() (string, error)
	layout string
	logger *slog.Logger
}

// New loads the current list from adapter.
func New(adapter Adapter, opts ...Option) (*Repository, error) {
	r := &Repository{
		adapter: adapter,
		now:     time.Now,
		newID:   timeOrderedID,
		layout:  DefaultDateLayout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	loaded, err := adapter.Load()
	if err != nil {
		return nil, err
	}
	r.letters = loaded
	return r, nil
}

// timeOrderedID returns a UUIDv7, whose leading bits are the creation time in
// Unix milliseconds.
func timeOrderedID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// Validate trims the three fields and reports the empty ones.
func Validate(title, content, author string) (string, string, string, error) {
	title, content, author = strings.TrimSpace(title), strings.TrimSpace(content), strings.TrimSpace(author)
	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if content == "" {
		missing = append(missing, "content")
	}
	if author == "" {
		missing = append(missing, "author")
	}
	if len(missing) > 0 {
		return "", "", "", &apperr.ValidationError{Fields: missing}
	}
	return title, content, author, nil
}

// Add validates, appends and persists a new letter.
func (r *Repository) Add(title, content, author string) (models.Letter, error) {
	title, content, author, err := Validate(title, content, author)
	if err != nil {
		return models.Letter{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		l     models.Letter
		saved []models.Letter
	)
	err = r.adapter.Update(func(current []models.Letter) ([]models.Letter, error) {
		id, err := r.uniqueID(current)
		if err != nil {
			return nil, fmt.Errorf("new id: %w", err)
		}
		l = models.Letter{
			ID:      id,
			Title:   title,
			Content: content,
			Author:  author,
			Date:    r.now().Format(r.layout),
		}
		saved = append(slices.Clip(current), l)
		return saved, nil
	})
	if err != nil {
		r.logger.Error("persist letter failed", slog.String("error", err.Error()))
		return models.Letter{}, fmt.Errorf("letters: add: %w", err)
	}
	r.letters = saved
	r.logger.Debug("letter added", slog.String("id", l.ID), slog.Int("count", len(saved)))
	return l, nil
}

func (r *Repository) uniqueID(current []models.Letter) (string, error) {
	for range 8 {
		id, err := r.newID()
		if err != nil {
			return "", err
		}
		if id != "" && indexOf(current, id) < 0 {
			return id, nil
		}
	}
	return "", fmt.Errorf("no unique id after retries")
}

var errAbsent = errors.New("letter not stored")

// Remove deletes the letter with id. An id the store does not hold returns
// false and writes nothing.
func (r *Repository) Remove(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var saved []models.Letter
	err := r.adapter.Update(func(current []models.Letter) ([]models.Letter, error) {
		i := indexOf(current, id)
		if i < 0 {
			saved = current
			return nil, errAbsent
		}
		saved = slices.Delete(slices.Clone(current), i, i+1)
		return saved, nil
	})
	switch {
	case errors.Is(err, errAbsent):
		r.letters = saved
		return false, nil
	case err != nil:
		r.logger.Error("persist removal failed", slog.String("id", id), slog.String("error", err.Error()))
		return false, fmt.Errorf("letters: remove: %w", err)
	}
	r.letters = saved
	r.logger.Debug("letter removed", slog.String("id", id), slog.Int("count", len(saved)))
	return true, nil
}

// Reload replaces the in-memory list with what the store currently holds.
func (r *Repository) Reload() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	loaded, err := r.adapter.Load()
	if err != nil {
		return fmt.Errorf("letters: reload: %w", err)
	}
	r.letters = loaded
	return nil
}

// List returns a copy of the letters, oldest first.
func (r *Repository) List() []models.Letter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.letters)
}

// Count returns the number of letters.
func (r *Repository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.letters)
}

// Get looks up a letter by id.
func (r *Repository) Get(id string) (models.Letter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := indexOf(r.letters, id); i >= 0 {
		return r.letters[i], true
	}
	return models.Letter{}, false
}

func indexOf(list []models.Letter, id string) int {
	return slices.IndexFunc(list, func(l models.Letter) bool { return l.ID == id })
}
