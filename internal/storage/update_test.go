package storage

import (
	"errors"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

// increment runs perStore concurrent +1 updates of key through each store
// and returns the final value read back from the first one.
func increment(t *testing.T, stores []Store, perStore int) int {
	t.Helper()
	var wg sync.WaitGroup
	errs := make(chan error, len(stores)*perStore)
	for _, s := range stores {
		for range perStore {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- Update(s, "counter", func(old string, ok bool) (string, error) {
					n := 0
					if ok {
						var err error
						if n, err = strconv.Atoi(old); err != nil {
							return "", err
						}
					}
					return strconv.Itoa(n + 1), nil
				})
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	v, ok, err := stores[0].GetItem("counter")
	if err != nil || !ok {
		t.Fatalf("GetItem = %q, %v, %v", v, ok, err)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		t.Fatalf("counter %q: %v", v, err)
	}
	return n
}

func TestUpdate_FSHandlesShareDirectory(t *testing.T) {
	dir := t.TempDir()
	a, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}

	if got := increment(t, []Store{a, b}, 10); got != 20 {
		t.Errorf("counter = %d, want 20", got)
	}
}

func TestUpdate_SQLiteConnectionsShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letterbox.db")
	a, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	b, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { b.Close() })

	if got := increment(t, []Store{a, b}, 5); got != 10 {
		t.Errorf("counter = %d, want 10", got)
	}
}

func TestUpdate_MemoryAndQuota(t *testing.T) {
	m := NewMemory()
	if got := increment(t, []Store{m, NewQuota(m, 1024)}, 10); got != 20 {
		t.Errorf("counter = %d, want 20", got)
	}
}

func TestUpdate_FailingFnWritesNothing(t *testing.T) {
	stop := errors.New("stop")
	for name, s := range map[string]Store{
		"fs":     tempStore(t),
		"memory": NewMemory(),
		"quota":  NewQuota(NewMemory(), 1024),
	} {
		t.Run(name, func(t *testing.T) {
			_ = s.SetItem("k", "before")
			err := Update(s, "k", func(string, bool) (string, error) { return "", stop })
			if !errors.Is(err, stop) {
				t.Fatalf("Update err = %v, want %v", err, stop)
			}
			if v, _, _ := s.GetItem("k"); v != "before" {
				t.Errorf("value = %q after failed update", v)
			}
		})
	}
}

func TestUpdate_QuotaChecksNewValue(t *testing.T) {
	q := NewQuota(NewMemory(), 16)
	err := Update(q, "k", func(string, bool) (string, error) { return "0123456789abcdef", nil })
	if err == nil {
		t.Fatal("oversized update should fail")
	}
	if _, ok, _ := q.GetItem("k"); ok {
		t.Error("rejected update was written")
	}
}
