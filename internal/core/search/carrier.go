package search

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const defaultHandoffTTL = 2 * time.Minute

// Carrier hands an Intent from the surface that produced it to the results
// view that consumes it, exactly once. It replaces the history-state side
// channel the browser app used: Post returns an opaque token, Consume
// returns the intent and clears it, and a second Consume of the same token
// (a re-render) yields the zero intent so stale filters are never re-applied.
//
// Entries expire after a TTL; a hard refresh therefore always lands on the
// unfiltered view instead of resurrecting an old search.
type Carrier struct {
	mu      sync.Mutex
	pending map[string]handoff
	ttl     time.Duration
	now     func() time.Time
	newID   func() string
	log     zerolog.Logger
}

type handoff struct {
	intent  Intent
	expires time.Time
}

// NewCarrier creates a Carrier with the given token generator. A zero or
// negative ttl falls back to the default.
func NewCarrier(newID func() string, ttl time.Duration, log zerolog.Logger) *Carrier {
	if ttl <= 0 {
		ttl = defaultHandoffTTL
	}
	return &Carrier{
		pending: make(map[string]handoff),
		ttl:     ttl,
		now:     time.Now,
		newID:   newID,
		log:     log,
	}
}

// Post registers an intent for one consumption and returns its token.
// Empty intents are not carried: the caller navigates unfiltered instead.
func (c *Carrier) Post(intent Intent) (string, bool) {
	if intent.Empty() {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.sweep()
	token := c.newID()
	c.pending[token] = handoff{intent: intent, expires: c.now().Add(c.ttl)}
	return token, true
}

// Consume returns the intent posted under token and discards it. Unknown,
// already-consumed, or expired tokens return the zero intent and false.
func (c *Carrier) Consume(token string) (Intent, bool) {
	if token == "" {
		return Intent{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	h, ok := c.pending[token]
	if !ok {
		return Intent{}, false
	}
	delete(c.pending, token)

	if c.now().After(h.expires) {
		c.log.Debug().Str("token", token).Msg("search handoff expired before consumption")
		return Intent{}, false
	}
	return h.intent, true
}

// sweep drops expired handoffs. Caller holds the lock.
func (c *Carrier) sweep() {
	now := c.now()
	for token, h := range c.pending {
		if now.After(h.expires) {
			delete(c.pending, token)
		}
	}
}
