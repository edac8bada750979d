package domain

// SessionPhase is the lifecycle state of a client session.
//
// A session always starts Resolving and settles exactly once into Anonymous
// or Authenticated; thereafter only explicit sign-in/sign-up/sign-out actions
// move it between the two settled phases.
type SessionPhase string

const (
	SessionResolving     SessionPhase = "resolving"
	SessionAnonymous     SessionPhase = "anonymous"
	SessionAuthenticated SessionPhase = "authenticated"
)

// SessionSnapshot is an immutable view of session state handed to consumers.
// Invariant: Authenticated is true only when User is non-nil.
type SessionSnapshot struct {
	Phase         SessionPhase `json:"phase"`
	User          *User        `json:"user,omitempty"`
	Authenticated bool         `json:"is_authenticated"`
	Resolving     bool         `json:"is_resolving"`
	Errors        []string     `json:"errors,omitempty"`
}
