package service

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
)

// SessionStore holds one client's authentication state. It starts Resolving
// and settles exactly once: no token means an immediate Anonymous with no
// verify round trip; a token is verified against the identity provider and
// any failure lands on Anonymous. After that only SignUp/SignIn/SignOut move
// the state. All transitions are visible to every consumer as soon as the
// mutating call returns.
type SessionStore struct {
	mu       sync.Mutex
	user     *domain.User
	token    string
	phase    domain.SessionPhase
	errs     []string
	provider ports.IdentityProvider
	resolve  sync.Once
	done     chan struct{}
	logger   zerolog.Logger
}

func NewSessionStore(provider ports.IdentityProvider, token string, logger zerolog.Logger) *SessionStore {
	return &SessionStore{
		phase:    domain.SessionResolving,
		token:    token,
		provider: provider,
		done:     make(chan struct{}),
		logger:   logger,
	}
}

// Resolve settles the initial state. Safe to call concurrently; only the
// first call does work.
func (s *SessionStore) Resolve(ctx context.Context) {
	s.resolve.Do(func() {
		defer close(s.done)

		if s.token == "" {
			s.settle(nil)
			return
		}

		user, err := s.provider.Verify(ctx, s.token)
		if err != nil {
			s.logger.Debug().Err(err).Msg("session token did not verify")
			s.settle(nil)
			return
		}
		s.settle(user)
	})
}

// Await blocks until the session has settled or ctx expires. It returns the
// snapshot either way; callers check Resolving to tell the two apart.
func (s *SessionStore) Await(ctx context.Context) domain.SessionSnapshot {
	select {
	case <-s.done:
	case <-ctx.Done():
	}
	return s.Snapshot()
}

// SignUp submits a registration. On failure the provider's messages are
// recorded and the state is left where it was; the error list is cleared at
// the start of every attempt.
func (s *SessionStore) SignUp(ctx context.Context, input ports.RegisterInput) bool {
	s.clearErrors()
	user, token, err := s.provider.Register(ctx, input)
	if err != nil {
		s.recordFailure(err)
		return false
	}
	s.signedIn(user, token)
	return true
}

// SignIn has the same contract as SignUp against the login endpoint.
func (s *SessionStore) SignIn(ctx context.Context, creds ports.Credentials) bool {
	s.clearErrors()
	user, token, err := s.provider.Login(ctx, creds)
	if err != nil {
		s.recordFailure(err)
		return false
	}
	s.signedIn(user, token)
	return true
}

// SignOut invalidates the session with the provider (best effort) and always
// transitions to Anonymous.
func (s *SessionStore) SignOut(ctx context.Context) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if err := s.provider.Logout(ctx, token); err != nil {
		s.logger.Warn().Err(err).Msg("sign-out invalidation failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.token = ""
	s.phase = domain.SessionAnonymous
}

// Token returns the live session token, empty when anonymous.
func (s *SessionStore) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Snapshot returns an immutable view of the current state.
func (s *SessionStore) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *domain.User
	if s.user != nil {
		clone := *s.user
		user = &clone
	}

	errs := make([]string, len(s.errs))
	copy(errs, s.errs)

	return domain.SessionSnapshot{
		Phase:         s.phase,
		User:          user,
		Authenticated: s.phase == domain.SessionAuthenticated,
		Resolving:     s.phase == domain.SessionResolving,
		Errors:        errs,
	}
}

func (s *SessionStore) settle(user *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user == nil {
		s.phase = domain.SessionAnonymous
		s.token = ""
		return
	}
	s.user = user
	s.phase = domain.SessionAuthenticated
}

func (s *SessionStore) signedIn(user *domain.User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
	s.token = token
	s.phase = domain.SessionAuthenticated
	s.errs = nil
}

func (s *SessionStore) clearErrors() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = nil
}

func (s *SessionStore) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fields *FieldErrors
	if errors.As(err, &fields) {
		s.errs = fields.Messages
		return
	}
	s.errs = []string{err.Error()}
}

// FieldErrors carries the provider's field-level validation messages so the
// initiating form can render them one by one.
type FieldErrors struct {
	Messages []string
}

func (e *FieldErrors) Error() string {
	if len(e.Messages) == 0 {
		return "validation failed"
	}
	return e.Messages[0]
}
