package engine

// Chess-clock semantics: each turn starts with a full grace window that does
// not draw from the actor's reserve. Only once grace hits zero does reserve
// deplete at real-time rate. The session actor feeds wall-clock deltas in at
// tick time; nothing here schedules callbacks.

// ConsumeTime charges elapsedMs against grace first, then reserve. The
// returned expired flag is true once reserve is exhausted.
func ConsumeTime(graceMs, reserveMs, elapsedMs int64) (int64, int64, bool) {
	if elapsedMs <= 0 {
		return graceMs, reserveMs, reserveMs <= 0
	}
	if graceMs >= elapsedMs {
		return graceMs - elapsedMs, reserveMs, false
	}
	elapsedMs -= graceMs
	reserveMs -= elapsedMs
	if reserveMs <= 0 {
		return 0, 0, true
	}
	return 0, reserveMs, false
}

// Tick advances the active turn's clock by elapsedMs and reports whether the
// acting actor's reserve ran out. It is a no-op outside the drafting phase,
// while paused, or when no round is active.
func Tick(s State, elapsedMs int64) (State, bool) {
	if s.Phase != PhaseDrafting || s.Paused {
		return s, false
	}
	r, ok := s.ActiveRound()
	if !ok {
		return s, false
	}
	actor, ok := s.Actors[r.ActorID]
	if !ok {
		return s, false
	}
	ns := s.clone()
	grace, reserve, expired := ConsumeTime(ns.GraceMs, actor.ReserveMs, elapsedMs)
	ns.GraceMs = grace
	actor.ReserveMs = reserve
	ns.Actors[actor.ID] = actor
	return ns, expired
}
