package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/trueque/marketplace/internal/core/domain"
	"github.com/trueque/marketplace/internal/core/ports"
)

type stubIdentity struct {
	registerUser *domain.User
	registerErr  error
	loginUser    *domain.User
	loginErr     error
	verifyUser   *domain.User
	verifyErr    error
	verifyCalls  int
	logoutCalls  int
	logoutErr    error
	verifyGate   chan struct{}
}

func (p *stubIdentity) Register(_ context.Context, _ ports.RegisterInput) (*domain.User, string, error) {
	if p.registerErr != nil {
		return nil, "", p.registerErr
	}
	return p.registerUser, "tok-reg", nil
}

func (p *stubIdentity) Login(_ context.Context, _ ports.Credentials) (*domain.User, string, error) {
	if p.loginErr != nil {
		return nil, "", p.loginErr
	}
	return p.loginUser, "tok-login", nil
}

func (p *stubIdentity) Logout(_ context.Context, _ string) error {
	p.logoutCalls++
	return p.logoutErr
}

func (p *stubIdentity) Verify(_ context.Context, _ string) (*domain.User, error) {
	p.verifyCalls++
	if p.verifyGate != nil {
		<-p.verifyGate
	}
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	return p.verifyUser, nil
}

func checkInvariant(t *testing.T, snap domain.SessionSnapshot) {
	t.Helper()
	if snap.Authenticated && snap.User == nil {
		t.Fatalf("invariant violated: authenticated without user")
	}
}

func TestSessionStore_NoTokenResolvesAnonymousWithoutVerify(t *testing.T) {
	provider := &stubIdentity{}
	st := NewSessionStore(provider, "", zerolog.Nop())

	snap := st.Snapshot()
	if !snap.Resolving {
		t.Fatalf("store must start resolving")
	}

	st.Resolve(context.Background())
	snap = st.Snapshot()
	if snap.Resolving || snap.Authenticated || snap.User != nil {
		t.Fatalf("expected settled anonymous, got %+v", snap)
	}
	if provider.verifyCalls != 0 {
		t.Fatalf("verify must not be called without a token, got %d calls", provider.verifyCalls)
	}
	checkInvariant(t, snap)
}

func TestSessionStore_TokenVerifiesToAuthenticated(t *testing.T) {
	user := &domain.User{ID: "u1", Name: "Ana", Email: "ana@example.com"}
	provider := &stubIdentity{verifyUser: user}
	st := NewSessionStore(provider, "tok", zerolog.Nop())

	st.Resolve(context.Background())
	snap := st.Snapshot()
	if !snap.Authenticated || snap.User == nil || snap.User.ID != "u1" {
		t.Fatalf("expected authenticated u1, got %+v", snap)
	}
	checkInvariant(t, snap)
}

func TestSessionStore_VerifyFailureFallsToAnonymous(t *testing.T) {
	provider := &stubIdentity{verifyErr: domain.ErrInvalidCredentials}
	st := NewSessionStore(provider, "stale", zerolog.Nop())

	st.Resolve(context.Background())
	snap := st.Snapshot()
	if snap.Authenticated || snap.User != nil || snap.Resolving {
		t.Fatalf("expected anonymous after failed verify, got %+v", snap)
	}
	checkInvariant(t, snap)
}

func TestSessionStore_ResolveRunsOnce(t *testing.T) {
	provider := &stubIdentity{verifyUser: &domain.User{ID: "u1"}}
	st := NewSessionStore(provider, "tok", zerolog.Nop())

	st.Resolve(context.Background())
	st.Resolve(context.Background())
	if provider.verifyCalls != 1 {
		t.Fatalf("expected exactly one verify call, got %d", provider.verifyCalls)
	}
}

func TestSessionStore_AwaitBlocksUntilSettled(t *testing.T) {
	gate := make(chan struct{})
	provider := &stubIdentity{verifyUser: &domain.User{ID: "u1"}, verifyGate: gate}
	st := NewSessionStore(provider, "tok", zerolog.Nop())
	go st.Resolve(context.Background())

	// Still resolving while the verify call is held open.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	snap := st.Await(ctx)
	cancel()
	if !snap.Resolving {
		t.Fatalf("expected resolving while verify pending, got %+v", snap)
	}

	close(gate)
	snap = st.Await(context.Background())
	if snap.Resolving || !snap.Authenticated {
		t.Fatalf("expected settled authenticated, got %+v", snap)
	}
}

func TestSessionStore_SignInFailureKeepsStateAndRecordsErrors(t *testing.T) {
	provider := &stubIdentity{loginErr: &FieldErrors{Messages: []string{"email no registrado"}}}
	st := NewSessionStore(provider, "", zerolog.Nop())
	st.Resolve(context.Background())

	if ok := st.SignIn(context.Background(), ports.Credentials{Email: "x@y.z", Password: "nope"}); ok {
		t.Fatalf("sign-in should have failed")
	}

	snap := st.Snapshot()
	if snap.Authenticated {
		t.Fatalf("failed sign-in must not authenticate")
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != "email no registrado" {
		t.Fatalf("unexpected errors: %v", snap.Errors)
	}
	checkInvariant(t, snap)
}

func TestSessionStore_ErrorsClearedAtStartOfNextAttempt(t *testing.T) {
	provider := &stubIdentity{loginErr: domain.ErrInvalidCredentials}
	st := NewSessionStore(provider, "", zerolog.Nop())
	st.Resolve(context.Background())

	st.SignIn(context.Background(), ports.Credentials{Email: "a@b.c", Password: "bad"})
	if len(st.Snapshot().Errors) == 0 {
		t.Fatalf("expected recorded error")
	}

	provider.loginErr = nil
	provider.loginUser = &domain.User{ID: "u2", Name: "Luis"}
	if ok := st.SignIn(context.Background(), ports.Credentials{Email: "a@b.c", Password: "good"}); !ok {
		t.Fatalf("second sign-in should succeed")
	}

	snap := st.Snapshot()
	if len(snap.Errors) != 0 {
		t.Fatalf("errors not cleared: %v", snap.Errors)
	}
	if !snap.Authenticated || snap.User == nil {
		t.Fatalf("expected authenticated after retry, got %+v", snap)
	}
	checkInvariant(t, snap)
}

func TestSessionStore_SignUpTransitionsToAuthenticated(t *testing.T) {
	provider := &stubIdentity{registerUser: &domain.User{ID: "u3", Name: "Marta"}}
	st := NewSessionStore(provider, "", zerolog.Nop())
	st.Resolve(context.Background())

	if ok := st.SignUp(context.Background(), ports.RegisterInput{Name: "Marta", Email: "m@x.es", Password: "pw"}); !ok {
		t.Fatalf("sign-up failed")
	}
	snap := st.Snapshot()
	if !snap.Authenticated || snap.User.ID != "u3" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if st.Token() != "tok-reg" {
		t.Fatalf("token not installed")
	}
	checkInvariant(t, snap)
}

func TestSessionStore_SignOutAlwaysLandsAnonymous(t *testing.T) {
	provider := &stubIdentity{verifyUser: &domain.User{ID: "u1"}, logoutErr: context.DeadlineExceeded}
	st := NewSessionStore(provider, "tok", zerolog.Nop())
	st.Resolve(context.Background())

	st.SignOut(context.Background())
	snap := st.Snapshot()
	if snap.Authenticated || snap.User != nil {
		t.Fatalf("sign-out must clear the session even when revocation fails, got %+v", snap)
	}
	if provider.logoutCalls != 1 {
		t.Fatalf("expected one logout call, got %d", provider.logoutCalls)
	}
	if st.Token() != "" {
		t.Fatalf("token not cleared")
	}
	checkInvariant(t, snap)
}

func TestSessionRegistry_SameTokenSharesStore(t *testing.T) {
	provider := &stubIdentity{verifyUser: &domain.User{ID: "u1"}}
	reg := NewSessionRegistry(provider, time.Hour, zerolog.Nop())

	a := reg.For(context.Background(), "tok")
	b := reg.For(context.Background(), "tok")
	if a != b {
		t.Fatalf("expected shared store per token")
	}

	a.Await(context.Background())
	if provider.verifyCalls != 1 {
		t.Fatalf("expected single verification per token, got %d", provider.verifyCalls)
	}

	reg.Drop("tok")
	c := reg.For(context.Background(), "tok")
	if c == a {
		t.Fatalf("dropped token must get a fresh store")
	}
}

func TestSessionRegistry_EmptyTokenIsImmediateAnonymous(t *testing.T) {
	provider := &stubIdentity{}
	reg := NewSessionRegistry(provider, time.Hour, zerolog.Nop())

	snap := reg.For(context.Background(), "").Snapshot()
	if snap.Resolving || snap.Authenticated {
		t.Fatalf("expected settled anonymous, got %+v", snap)
	}
	if provider.verifyCalls != 0 {
		t.Fatalf("no verify expected for the empty token")
	}
}

func (r *SessionRegistry) cachedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}

func TestSessionRegistry_EvictsTokensThatSettleAnonymous(t *testing.T) {
	provider := &stubIdentity{verifyErr: domain.ErrInvalidCredentials}
	reg := NewSessionRegistry(provider, time.Hour, zerolog.Nop())

	first := reg.For(context.Background(), "junk-1")
	first.Await(context.Background())

	// The next lookup sweeps the settled-anonymous entry; only the new
	// token remains cached, so garbage cookies cannot grow the map.
	reg.For(context.Background(), "junk-2")
	if n := reg.cachedCount(); n != 1 {
		t.Fatalf("expected only the in-flight token cached, got %d", n)
	}

	again := reg.For(context.Background(), "junk-1")
	if again == first {
		t.Fatalf("evicted token must get a fresh store")
	}
}

func TestSessionRegistry_ExpiresStoresAfterTTL(t *testing.T) {
	provider := &stubIdentity{verifyUser: &domain.User{ID: "u1"}}
	reg := NewSessionRegistry(provider, time.Hour, zerolog.Nop())

	now := time.Now()
	reg.now = func() time.Time { return now }

	first := reg.For(context.Background(), "tok")
	first.Await(context.Background())
	if n := reg.cachedCount(); n != 1 {
		t.Fatalf("expected authenticated store cached, got %d", n)
	}

	now = now.Add(2 * time.Hour)
	second := reg.For(context.Background(), "tok")
	if second == first {
		t.Fatalf("expired entry must be replaced")
	}
	second.Await(context.Background())
	if provider.verifyCalls != 2 {
		t.Fatalf("expected re-verification after expiry, got %d calls", provider.verifyCalls)
	}
}
