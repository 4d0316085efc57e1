package snapshot

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/opendv/site-config/internal/siteconfig"
)

func resolved(t *testing.T) *siteconfig.Resolved {
	t.Helper()
	cfg, err := siteconfig.Resolve(siteconfig.DefaultBase(), siteconfig.MapEnvironment{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return cfg
}

func TestGetBeforeSet(t *testing.T) {
	t.Parallel()

	if _, err := NewCell().Get(); !errors.Is(err, ErrNotResolved) {
		t.Fatalf("expected ErrNotResolved, got %v", err)
	}
}

func TestSetOnce(t *testing.T) {
	t.Parallel()

	cell := NewCell()
	first := resolved(t)
	if err := cell.Set(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cell.Set(resolved(t)); !errors.Is(err, ErrAlreadySet) {
		t.Fatalf("expected ErrAlreadySet, got %v", err)
	}

	got, err := cell.Get()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != first {
		t.Fatalf("expected first snapshot to be retained")
	}
}

func TestSetRejectsNil(t *testing.T) {
	t.Parallel()

	cell := NewCell()
	if err := cell.Set(nil); !errors.Is(err, ErrNilConfig) {
		t.Fatalf("expected ErrNilConfig, got %v", err)
	}
	if _, err := cell.Get(); !errors.Is(err, ErrNotResolved) {
		t.Fatalf("expected cell to stay empty, got %v", err)
	}
}

func TestConcurrentSetAndGet(t *testing.T) {
	cell := NewCell()
	cfg := resolved(t)
	var wg sync.WaitGroup
	var stored atomic.Int32

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			if err := cell.Set(cfg); err == nil {
				stored.Add(1)
			} else if !errors.Is(err, ErrAlreadySet) {
				t.Errorf("Set failed: %v", err)
			}
		}()

		go func() {
			defer wg.Done()
			if _, err := cell.Get(); err != nil && !errors.Is(err, ErrNotResolved) {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}

	wg.Wait()

	if n := stored.Load(); n != 1 {
		t.Fatalf("expected exactly one successful Set, got %d", n)
	}
	if _, err := cell.Get(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
