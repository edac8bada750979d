package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/trueque/marketplace/internal/core/ports"
)

const defaultSessionTTL = 24 * time.Hour

type sessionEntry struct {
	store   *SessionStore
	expires time.Time
}

// SessionRegistry hands out one SessionStore per session token, so every
// consumer of the same session observes the same state and the credential
// check runs once per page load instead of once per request.
//
// The registry caches only sessions worth sharing: entries are evicted once
// their store settles Anonymous (the token failed verification, nothing to
// share) and when they outlive the token TTL. Both happen lazily on the
// next For call, which bounds the map by the number of live sessions plus
// whatever is still resolving.
type SessionRegistry struct {
	mu       sync.Mutex
	stores   map[string]sessionEntry
	provider ports.IdentityProvider
	ttl      time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// NewSessionRegistry creates a registry whose cached stores expire after
// ttl, which should match the token TTL. A zero or negative ttl falls back
// to the default.
func NewSessionRegistry(provider ports.IdentityProvider, ttl time.Duration, logger zerolog.Logger) *SessionRegistry {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionRegistry{
		stores:   make(map[string]sessionEntry),
		provider: provider,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger,
	}
}

// For returns the store for token, creating it and starting resolution on
// first sight. The empty token always gets a fresh store, which resolves to
// Anonymous immediately and is not cached.
func (r *SessionRegistry) For(ctx context.Context, token string) *SessionStore {
	if token == "" {
		st := NewSessionStore(r.provider, "", r.logger)
		st.Resolve(ctx)
		return st
	}

	r.mu.Lock()
	r.evict()
	e, ok := r.stores[token]
	if !ok {
		e = sessionEntry{
			store:   NewSessionStore(r.provider, token, r.logger),
			expires: r.now().Add(r.ttl),
		}
		r.stores[token] = e
	}
	r.mu.Unlock()

	if !ok {
		go e.store.Resolve(context.WithoutCancel(ctx))
	}
	return e.store
}

// evict drops entries past their TTL and entries whose store settled
// Anonymous. Still-resolving stores are left alone. Caller holds the lock.
func (r *SessionRegistry) evict() {
	now := r.now()
	for token, e := range r.stores {
		if now.After(e.expires) {
			delete(r.stores, token)
			continue
		}
		snap := e.store.Snapshot()
		if !snap.Resolving && !snap.Authenticated {
			delete(r.stores, token)
		}
	}
}

// Fresh returns an uncached anonymous store for a sign-in/sign-up attempt.
func (r *SessionRegistry) Fresh(ctx context.Context) *SessionStore {
	st := NewSessionStore(r.provider, "", r.logger)
	st.Resolve(ctx)
	return st
}

// Drop forgets the store for token, typically after sign-out.
func (r *SessionRegistry) Drop(token string) {
	if token == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, token)
}
