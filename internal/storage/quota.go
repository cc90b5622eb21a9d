package storage

import (
	"fmt"

	"github.com/starford/letterbox/internal/apperr"
)

// Quota wraps a Store and rejects writes that would push the total size of
// all keys and values past limit bytes.
type Quota struct {
	Store
	limit int
}

// NewQuota returns s unchanged when limit <= 0.
func NewQuota(s Store, limit int) Store {
	if limit <= 0 {
		return s
	}
	return &Quota{Store: s, limit: limit}
}

// SetItem checks the projected usage before delegating.
func (q *Quota) SetItem(key, value string) error {
	used, err := q.usage(key)
	if err != nil {
		return err
	}
	if err := q.check(used, key, value); err != nil {
		return err
	}
	return q.Store.SetItem(key, value)
}

// Update applies the same limit to the value fn produces. Usage of the other
// keys is measured before the wrapped store is locked.
func (q *Quota) Update(key string, fn func(string, bool) (string, error)) error {
	used, err := q.usage(key)
	if err != nil {
		return err
	}
	return Update(q.Store, key, func(old string, ok bool) (string, error) {
		v, err := fn(old, ok)
		if err != nil {
			return "", err
		}
		if err := q.check(used, key, v); err != nil {
			return "", err
		}
		return v, nil
	})
}

func (q *Quota) check(used int, key, value string) error {
	if need := used + len(key) + len(value); need > q.limit {
		return fmt.Errorf("storage: set %s (%d of %d bytes): %w", key, need, q.limit, apperr.ErrQuotaExceeded)
	}
	return nil
}

// usage sums every stored key and value except skip.
func (q *Quota) usage(skip string) (int, error) {
	keys, err := q.Store.Keys()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, k := range keys {
		if k == skip {
			continue
		}
		v, ok, err := q.Store.GetItem(k)
		if err != nil {
			return 0, err
		}
		if ok {
			total += len(k) + len(v)
		}
	}
	return total, nil
}
