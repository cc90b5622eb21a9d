// Package storage implements the local key-value store the letter list is
// persisted to, and the adapter that serializes letters into it.
package storage

// Store is a string-keyed string store, the local counterpart of a browser's
// localStorage.
type Store interface {
	// GetItem returns the value stored under key. ok is false when the key is absent.
	GetItem(key string) (value string, ok bool, err error)
	// SetItem replaces the value stored under key.
	SetItem(key, value string) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(key string) error
	// Keys returns every stored key.
	Keys() ([]string, error)
}

// Verify the backends satisfy Store at compile time.
var (
	_ Store = (*FS)(nil)
	_ Store = (*Memory)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Quota)(nil)
)

// Updater is implemented by stores that can replace a value based on its
// current contents with no other writer landing in between.
type Updater interface {
	// Update calls fn with the current value of key and stores what it
	// returns. When fn fails nothing is written and its error is returned.
	Update(key string, fn func(old string, ok bool) (string, error)) error
}

var (
	_ Updater = (*FS)(nil)
	_ Updater = (*Memory)(nil)
	_ Updater = (*SQLite)(nil)
	_ Updater = (*Quota)(nil)
)

// Update performs a read-modify-write of key on s. Stores that are not an
// Updater get a plain get then set.
func Update(s Store, key string, fn func(old string, ok bool) (string, error)) error {
	if u, ok := s.(Updater); ok {
		return u.Update(key, fn)
	}
	old, ok, err := s.GetItem(key)
	if err != nil {
		return err
	}
	v, err := fn(old, ok)
	if err != nil {
		return err
	}
	return s.SetItem(key, v)
}
