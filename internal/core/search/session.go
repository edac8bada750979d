package search

import "github.com/trueque/marketplace/internal/core/domain"

// Session is the per-results-view filter state: the current intent plus the
// "search applied" flag. The flag is what makes removing the last active
// filter return to "show everything" instead of "show nothing", while
// landing with zero filters shows everything too.
type Session struct {
	intent  Intent
	applied bool
}

// NewSession returns a session in the unfiltered browse state.
func NewSession() *Session {
	return &Session{}
}

// Resume rebuilds a session from a previously returned intent and flag, so a
// stateless caller can carry the state across requests.
func Resume(intent Intent, applied bool) *Session {
	if intent.Empty() {
		applied = false
	}
	return &Session{intent: intent, applied: applied}
}

// Apply installs an intent. An empty intent is a no-op: producers that have
// nothing set navigate to the unfiltered view instead of applying.
func (s *Session) Apply(intent Intent) {
	if intent.Empty() {
		return
	}
	s.intent = intent
	s.applied = true
}

// RemoveFilter clears exactly one field. When the last field goes empty the
// applied flag resets, returning the view to unfiltered browse.
func (s *Session) RemoveFilter(kind FilterKind) {
	s.intent = s.intent.Remove(kind)
	if s.intent.Empty() {
		s.applied = false
	}
}

// Reset clears every filter and the applied flag.
func (s *Session) Reset() {
	s.intent = Intent{}
	s.applied = false
}

// Intent returns the current intent.
func (s *Session) Intent() Intent { return s.intent }

// Applied reports whether a search has been applied this view lifetime.
func (s *Session) Applied() bool { return s.applied }

// Visible runs the filter engine over listings with the session's state.
// When no search has been applied the full collection is returned unmodified.
func (s *Session) Visible(listings []domain.Listing, ref Resolver) []domain.Listing {
	if !s.applied {
		return listings
	}
	return Filter(listings, s.intent, ref)
}
