package session

import "time"

// ConnManager enforces connection exclusivity: at most one live connection
// per actor at any instant. It is owned by the session actor, so no locking.
//
// The asymmetry that matters: an ordinary drop self-heals via reconnect, but
// a deliberate second login must not fight the first connection for
// reinstatement — the old connection gets a terminal kick, never a retryable
// error.
type ConnManager struct {
	byActor map[string]string
	actorOf map[string]string
	seen    map[string]time.Time
}

func NewConnManager() *ConnManager {
	return &ConnManager{
		byActor: make(map[string]string),
		actorOf: make(map[string]string),
		seen:    make(map[string]time.Time),
	}
}

// Claim installs connID as the live connection for actorID and returns the
// connection it displaced, if any. The caller owes the displaced connection a
// terminal kicked notice.
func (m *ConnManager) Claim(actorID, connID string) (kicked string) {
	if old, ok := m.byActor[actorID]; ok && old != connID {
		kicked = old
		delete(m.actorOf, old)
	}
	m.byActor[actorID] = connID
	m.actorOf[connID] = actorID
	delete(m.seen, actorID)
	return kicked
}

// Release drops a connection and records when its actor was last seen, which
// feeds the pause-after-grace decision for the active turn holder.
func (m *ConnManager) Release(connID string, now time.Time) (actorID string, ok bool) {
	actorID, ok = m.actorOf[connID]
	if !ok {
		return "", false
	}
	delete(m.actorOf, connID)
	if m.byActor[actorID] == connID {
		delete(m.byActor, actorID)
		m.seen[actorID] = now
	}
	return actorID, true
}

// ActorFor maps a live connection back to its actor.
func (m *ConnManager) ActorFor(connID string) (string, bool) {
	a, ok := m.actorOf[connID]
	return a, ok
}

// Live reports whether the actor currently holds a live connection.
func (m *ConnManager) Live(actorID string) bool {
	_, ok := m.byActor[actorID]
	return ok
}

// LastSeen returns when a currently-disconnected actor was last connected.
func (m *ConnManager) LastSeen(actorID string) (time.Time, bool) {
	t, ok := m.seen[actorID]
	return t, ok
}
