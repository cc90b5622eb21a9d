package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/letterbox/internal/apperr"
	"github.com/starford/letterbox/internal/models"
)

// DefaultLettersKey is the key the letter list is stored under.
const DefaultLettersKey = "birthday-letters"

// LetterAdapter serializes the whole letter list into a single Store key.
type LetterAdapter struct {
	store Store
	key   string
}

// NewLetterAdapter binds the adapter to key; an empty key selects DefaultLettersKey.
func NewLetterAdapter(store Store, key string) *LetterAdapter {
	if key == "" {
		key = DefaultLettersKey
	}
	return &LetterAdapter{store: store, key: key}
}

// Key returns the storage key in use.
func (a *LetterAdapter) Key() string {
	return a.key
}

// Load returns the stored letters. A missing key or a value that does not
// decode as a letter list yields an empty list and no error; only a failing
// backend is reported.
func (a *LetterAdapter) Load() ([]models.Letter, error) {
	raw, ok, err := a.store.GetItem(a.key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w: %w", a.key, apperr.ErrStorage, err)
	}
	return a.decode(raw, ok), nil
}

func (a *LetterAdapter) decode(raw string, ok bool) []models.Letter {
	if !ok {
		return []models.Letter{}
	}
	var out []models.Letter
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		slog.Warn("discarding malformed letter list",
			slog.String("key", a.key),
			slog.String("error", err.Error()))
		return []models.Letter{}
	}
	if out == nil {
		out = []models.Letter{}
	}
	return out
}

// Update stores fn applied to the list the store holds right now, so changes
// made by another writer since this process last loaded are kept. An error
// from fn is returned unwrapped and nothing is written.
func (a *LetterAdapter) Update(fn func([]models.Letter) ([]models.Letter, error)) error {
	var fnErr error
	err := Update(a.store, a.key, func(old string, ok bool) (string, error) {
		next, err := fn(a.decode(old, ok))
		if err != nil {
			fnErr = err
			return "", err
		}
		if next == nil {
			next = []models.Letter{}
		}
		data, err := json.Marshal(next)
		if err != nil {
			return "", err
		}
		return string(data), nil
	})
	switch {
	case err == nil:
		return nil
	case fnErr != nil:
		return fnErr
	}
	return fmt.Errorf("update %s: %w: %w", a.key, apperr.ErrStorage, err)
}

// Save replaces the stored list with letters.
func (a *LetterAdapter) Save(letters []models.Letter) error {
	if letters == nil {
		letters = []models.Letter{}
	}
	data, err := json.Marshal(letters)
	if err != nil {
		return fmt.Errorf("save %s: %w: %w", a.key, apperr.ErrStorage, err)
	}
	if err := a.store.SetItem(a.key, string(data)); err != nil {
		return fmt.Errorf("save %s: %w: %w", a.key, apperr.ErrStorage, err)
	}
	return nil
}
