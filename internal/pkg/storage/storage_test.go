package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/authgate/internal/pkg/clock"
)

// exerciseStorage runs the behaviour every driver must share. advance moves
// the driver's notion of time forward.
func exerciseStorage(t *testing.T, s Storage, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	t.Run("MissingKey", func(t *testing.T) {
		if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SetGetOverwrite", func(t *testing.T) {
		// Arrange
		if err := s.Set(ctx, "auth-storage", []byte(`{"a":1}`), 0); err != nil {
			t.Fatalf("set: %v", err)
		}
		if err := s.Set(ctx, "auth-storage", []byte(`{"a":2}`), 0); err != nil {
			t.Fatalf("overwrite: %v", err)
		}

		// Act
		got, err := s.Get(ctx, "auth-storage")

		// Assert
		if err != nil || string(got) != `{"a":2}` {
			t.Fatalf("expected overwritten value, got %q err=%v", got, err)
		}
	})

	t.Run("DeleteMany", func(t *testing.T) {
		// Arrange
		_ = s.Set(ctx, "temp-auth", []byte("x"), 0)
		_ = s.Set(ctx, "token", []byte("y"), 0)

		// Act
		err := s.Delete(ctx, "temp-auth", "token", "temp-auth", "never-set")

		// Assert
		if err != nil {
			t.Fatalf("delete: %v", err)
		}
		for _, k := range []string{"temp-auth", "token"} {
			if _, err := s.Get(ctx, k); !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected %s removed, got %v", k, err)
			}
		}
	})

	t.Run("TTLExpires", func(t *testing.T) {
		// Arrange
		if err := s.Set(ctx, "short", []byte("v"), 2*time.Second); err != nil {
			t.Fatalf("set: %v", err)
		}
		if _, err := s.Get(ctx, "short"); err != nil {
			t.Fatalf("expected value before expiry, got %v", err)
		}

		// Act
		advance(3 * time.Second)

		// Assert
		if _, err := s.Get(ctx, "short"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected expiry, got %v", err)
		}
	})
}

func TestMemory(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
	s := NewMemory(MemoryOptions{Clock: fake})
	defer s.Close()

	exerciseStorage(t, s, fake.Advance)
}

func TestSQLite(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
	s, err := NewSQLite(context.Background(), SQLiteOptions{
		Path:  filepath.Join(t.TempDir(), "authgate.db"),
		Clock: fake,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()

	exerciseStorage(t, s, fake.Advance)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	// Arrange
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "authgate.db")
	first, err := NewSQLite(ctx, SQLiteOptions{Path: path})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := first.Set(ctx, "auth-storage", []byte("persisted"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	first.Close()

	// Act
	second, err := NewSQLite(ctx, SQLiteOptions{Path: path})
	if err != nil {
		t.Fatalf("reopen sqlite: %v", err)
	}
	defer second.Close()
	got, err := second.Get(ctx, "auth-storage")

	// Assert
	if err != nil || string(got) != "persisted" {
		t.Fatalf("expected persisted value, got %q err=%v", got, err)
	}
}

func TestRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	s, err := NewRedis(context.Background(), RedisOptions{Client: client, Prefix: "authgate:"})
	if err != nil {
		t.Fatalf("new redis: %v", err)
	}
	defer s.Close()

	exerciseStorage(t, s, mr.FastForward)

	if !mr.Exists("authgate:auth-storage") {
		t.Fatalf("expected keys to be namespaced by prefix")
	}
}

func TestNewFromDriver(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		s, err := NewFromDriver(context.Background(), " Memory ", FactoryOptions{})
		if err != nil {
			t.Fatalf("expected memory driver, got %v", err)
		}
		_ = s.Close()
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := NewFromDriver(context.Background(), "s3", FactoryOptions{})
		if !errors.Is(err, ErrUnknownDriver) {
			t.Fatalf("expected ErrUnknownDriver, got %v", err)
		}
	})
}

func TestExpiredPurgeKeepsRewrittenKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Memory", func(t *testing.T) {
		// Arrange
		fake := clock.NewFake(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
		s := NewMemory(MemoryOptions{Clock: fake})
		defer s.Close()
		if err := s.Set(ctx, "temp-auth", []byte("old"), time.Second); err != nil {
			t.Fatalf("set: %v", err)
		}
		fake.Advance(time.Second)
		if err := s.Set(ctx, "temp-auth", []byte("new"), time.Minute); err != nil {
			t.Fatalf("rewrite: %v", err)
		}

		// Act
		s.purgeExpired("temp-auth")

		// Assert
		got, err := s.Get(ctx, "temp-auth")
		if err != nil || string(got) != "new" {
			t.Fatalf("rewritten key must survive a stale purge, got %q %v", got, err)
		}
	})

	t.Run("SQLite", func(t *testing.T) {
		// Arrange
		fake := clock.NewFake(time.Date(2026, 2, 7, 10, 0, 0, 0, time.UTC))
		s, err := NewSQLite(ctx, SQLiteOptions{Path: filepath.Join(t.TempDir(), "authgate.db"), Clock: fake})
		if err != nil {
			t.Fatalf("open sqlite: %v", err)
		}
		defer s.Close()
		if err := s.Set(ctx, "temp-auth", []byte("old"), time.Second); err != nil {
			t.Fatalf("set: %v", err)
		}
		fake.Advance(time.Second)
		if err := s.Set(ctx, "temp-auth", []byte("new"), time.Minute); err != nil {
			t.Fatalf("rewrite: %v", err)
		}

		// Act
		if err := s.purgeExpired(ctx, "temp-auth", fake.Now().UnixMilli()); err != nil {
			t.Fatalf("purge: %v", err)
		}

		// Assert
		got, err := s.Get(ctx, "temp-auth")
		if err != nil || string(got) != "new" {
			t.Fatalf("rewritten key must survive a stale purge, got %q %v", got, err)
		}
	})
}
