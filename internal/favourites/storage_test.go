package favourites

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/evcraddock/havenrise/internal/db"
)

// testStorage checks the behaviour every Storage shares.
func testStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "missing"); err != nil || found {
		t.Fatalf("Get(missing) = found %v, err %v", found, err)
	}

	if err := s.Set(ctx, "k", "one"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "k", "two"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found || v != "two" {
		t.Fatalf("Get(k) = %q, %v, %v; want two", v, found, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, found, err := s.Get(ctx, "k"); err != nil || found {
		t.Fatalf("Get after Delete = found %v, err %v", found, err)
	}

	// Deleting a missing key is not an error.
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestMemoryStorage(t *testing.T) {
	testStorage(t, NewMemoryStorage())
}

func TestSQLiteStorage(t *testing.T) {
	s, err := OpenSQLiteStorage(context.Background(), filepath.Join(t.TempDir(), "havenrise.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("close storage: %v", err)
		}
	})

	testStorage(t, s)
}

func TestSQLiteStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "havenrise.db")

	st1, err := OpenSQLiteStorage(ctx, path)
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	s1 := NewStore(st1, WithLogger(quietLogger()))
	if _, err := s1.Add(ctx, prop1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := st1.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	st2, err := OpenSQLiteStorage(ctx, path)
	if err != nil {
		t.Fatalf("reopen storage: %v", err)
	}
	defer func() { _ = st2.Close() }()

	s2 := newTestStore(t, st2)
	assertIDs(t, s2.List(), "prop1")
}

func TestPostgresStorage(t *testing.T) {
	url := os.Getenv("HR_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("HR_TEST_POSTGRES_URL not set")
	}

	pool, err := db.OpenPostgres(context.Background(), url)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(pool.Close)

	s, err := NewPostgresStorage(pool)
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}
	testStorage(t, s)
}

func TestNewPostgresStorageNilPool(t *testing.T) {
	if _, err := NewPostgresStorage(nil); err == nil {
		t.Fatal("expected error, got nil")
	}
}
