package service

import (
	"errors"
	"sync"
	"testing"

	"github.com/Wyydra/voicetext/internal/core/domain"
)

func TestSessionRegistryLifecycle(t *testing.T) {
	r := NewSessionRegistry()
	id := domain.NewCallID()

	if _, err := r.Get(id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get before Create: err=%v, want ErrNotFound", err)
	}
	s, err := r.Create(id)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.id != id || s.status != domain.StatusIdle {
		t.Fatalf("new session should be idle with the requested id")
	}
	if _, err := r.Create(id); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("second Create: err=%v, want ErrAlreadyExists", err)
	}
	got, err := r.Get(id)
	if err != nil || got != s {
		t.Fatalf("Get returned %p, %v; want %p", got, err, s)
	}

	r.Remove(id)
	r.Remove(id)
	if r.Len() != 0 {
		t.Fatalf("Len=%d after Remove, want 0", r.Len())
	}
}

func TestSessionRegistryConcurrentCreate(t *testing.T) {
	r := NewSessionRegistry()
	ids := make([]domain.CallID, 64)
	for i := range ids {
		ids[i] = domain.NewCallID()
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range ids {
				if _, err := r.Create(id); err == nil {
					mu.Lock()
					created++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if created != len(ids) {
		t.Fatalf("created=%d, want exactly %d", created, len(ids))
	}
	seen := 0
	r.Range(func(*CallSession) bool {
		seen++
		return true
	})
	if seen != len(ids) || r.Len() != len(ids) {
		t.Fatalf("Range saw %d, Len=%d, want %d", seen, r.Len(), len(ids))
	}
}
