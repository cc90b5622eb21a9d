// Package testutil provides shared test helpers for stores and letter repositories.
package testutil

import (
	"testing"
	"time"

	"github.com/starford/letterbox/internal/letters"
	"github.com/starford/letterbox/internal/storage"
)

// Clock is the fixed time TestRepo stamps letters with.
var Clock = time.Date(2026, time.March, 14, 15, 9, 26, 0, time.Local)

// TestStore creates a file-backed store in a temporary directory.
func TestStore(t *testing.T) (string, *storage.FS) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// TestRepo builds a repository over store under the default key, with the
// clock fixed at Clock. Extra options are applied after the defaults.
func TestRepo(t *testing.T, store storage.Store, opts ...letters.Option) *letters.Repository {
	t.Helper()
	all := append([]letters.Option{letters.WithClock(func() time.Time { return Clock })}, opts...)
	repo, err := letters.New(storage.NewLetterAdapter(store, storage.DefaultLettersKey), all...)
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

// Seed adds letters to repo, each given as title, content, author.
func Seed(t *testing.T, repo *letters.Repository, rows ...[3]string) {
	t.Helper()
	for _, row := range rows {
		if _, err := repo.Add(row[0], row[1], row[2]); err != nil {
			t.Fatal(err)
		}
	}
}
