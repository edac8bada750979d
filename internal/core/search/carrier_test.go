package search

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newTestCarrier(ttl time.Duration) *Carrier {
	n := 0
	return NewCarrier(func() string {
		n++
		return fmt.Sprintf("token-%d", n)
	}, ttl, zerolog.Nop())
}

func TestCarrier_ConsumeIsOneShot(t *testing.T) {
	c := newTestCarrier(time.Minute)
	intent := Intent{Term: "fontanero", ProvinceID: "prov_mad"}

	token, ok := c.Post(intent)
	if !ok || token == "" {
		t.Fatalf("expected token for non-empty intent")
	}

	got, ok := c.Consume(token)
	if !ok || got != intent {
		t.Fatalf("first consume: got %+v ok=%v", got, ok)
	}

	// A re-render reading the same token must not re-apply stale filters.
	got, ok = c.Consume(token)
	if ok || !got.Empty() {
		t.Fatalf("second consume must be empty, got %+v ok=%v", got, ok)
	}
}

func TestCarrier_EmptyIntentNotCarried(t *testing.T) {
	c := newTestCarrier(time.Minute)
	if token, ok := c.Post(Intent{}); ok || token != "" {
		t.Fatalf("empty intent must not produce a handoff")
	}
}

func TestCarrier_UnknownToken(t *testing.T) {
	c := newTestCarrier(time.Minute)
	if _, ok := c.Consume("nope"); ok {
		t.Fatalf("unknown token must not yield an intent")
	}
	if _, ok := c.Consume(""); ok {
		t.Fatalf("blank token must not yield an intent")
	}
}

func TestCarrier_ExpiredHandoffDiscarded(t *testing.T) {
	c := newTestCarrier(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	token, _ := c.Post(Intent{Term: "yoga"})

	now = now.Add(2 * time.Minute)
	if _, ok := c.Consume(token); ok {
		t.Fatalf("expired handoff must not be consumable")
	}
}
