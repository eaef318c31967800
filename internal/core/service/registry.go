package service

import (
	"fmt"
	"sync"

	"github.com/Wyydra/voicetext/internal/core/domain"
	"github.com/cespare/xxhash/v2"
)

const registryShards = 32

// SessionRegistry maps call ids to sessions. Ids are spread over shards so
// unrelated calls never wait on the same lock.
type SessionRegistry struct {
	shards [registryShards]registryShard
}

type registryShard struct {
	mu       sync.RWMutex
	sessions map[domain.CallID]*CallSession
}

func NewSessionRegistry() *SessionRegistry {
	r := &SessionRegistry{}
	for i := range r.shards {
		r.shards[i].sessions = make(map[domain.CallID]*CallSession)
	}
	return r
}

func (r *SessionRegistry) shard(id domain.CallID) *registryShard {
	return &r.shards[xxhash.Sum64String(id.String())%registryShards]
}

func (r *SessionRegistry) Get(id domain.CallID) (*CallSession, error) {
	sh := r.shard(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	s, ok := sh.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return s, nil
}

func (r *SessionRegistry) Create(id domain.CallID) (*CallSession, error) {
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, ok := sh.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, id)
	}
	s := newCallSession(id)
	sh.sessions[id] = s
	return s, nil
}

func (r *SessionRegistry) Remove(id domain.CallID) {
	sh := r.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.sessions, id)
}

func (r *SessionRegistry) Len() int {
	n := 0
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		n += len(sh.sessions)
		sh.mu.RUnlock()
	}
	return n
}

// Range calls fn for every registered session. No registry lock is held
// while fn runs, so fn may lock the session.
func (r *SessionRegistry) Range(fn func(*CallSession) bool) {
	for i := range r.shards {
		sh := &r.shards[i]
		sh.mu.RLock()
		batch := make([]*CallSession, 0, len(sh.sessions))
		for _, s := range sh.sessions {
			batch = append(batch, s)
		}
		sh.mu.RUnlock()

		for _, s := range batch {
			if !fn(s) {
				return
			}
		}
	}
}
