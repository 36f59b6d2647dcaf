package session

import (
	"testing"
	"time"
)

func TestClaimKicksPreviousConnection(t *testing.T) {
	m := NewConnManager()

	if kicked := m.Claim("alice", "conn-1"); kicked != "" {
		t.Fatalf("first claim should kick nobody, got %q", kicked)
	}
	if !m.Live("alice") {
		t.Fatalf("alice should be live after claim")
	}

	kicked := m.Claim("alice", "conn-2")
	if kicked != "conn-1" {
		t.Fatalf("want conn-1 kicked, got %q", kicked)
	}
	if a, ok := m.ActorFor("conn-2"); !ok || a != "alice" {
		t.Fatalf("conn-2 should map to alice")
	}
	if _, ok := m.ActorFor("conn-1"); ok {
		t.Fatalf("kicked connection must lose its actor mapping")
	}
}

func TestReleaseRecordsLastSeen(t *testing.T) {
	m := NewConnManager()
	m.Claim("alice", "conn-1")

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	actor, ok := m.Release("conn-1", now)
	if !ok || actor != "alice" {
		t.Fatalf("release: want alice, got %q ok=%v", actor, ok)
	}
	if m.Live("alice") {
		t.Fatalf("alice should not be live after release")
	}
	seen, ok := m.LastSeen("alice")
	if !ok || !seen.Equal(now) {
		t.Fatalf("last seen not recorded: %v ok=%v", seen, ok)
	}
}

func TestReleaseOfKickedConnDoesNotClobberNewClaim(t *testing.T) {
	m := NewConnManager()
	m.Claim("alice", "conn-1")
	m.Claim("alice", "conn-2")

	// The kicked connection's websocket teardown races the new claim; its
	// late release must not unseat the live connection.
	if _, ok := m.Release("conn-1", time.Now()); ok {
		t.Fatalf("kicked conn should already be unmapped")
	}
	if !m.Live("alice") {
		t.Fatalf("alice must stay live through the stale release")
	}
}

func TestClaimClearsLastSeen(t *testing.T) {
	m := NewConnManager()
	m.Claim("alice", "conn-1")
	m.Release("conn-1", time.Now())
	m.Claim("alice", "conn-2")
	if _, ok := m.LastSeen("alice"); ok {
		t.Fatalf("reconnected actor should have no last-seen marker")
	}
}
