package engine

// Turn is the sequencer's answer to "who acts next, and how".
type Turn struct {
	ActorID string `json:"actor_id"`
	TeamID  string `json:"team_id,omitempty"`
	Action  Action `json:"action"`
}

// NextTurn reports the assignment of the active round. For captains-mode and
// snake drafts this is a plain template lookup; for shuffle drafts the active
// round itself was generated from live aggregates (see nextShuffleRound), so
// the lookup stays uniform across modes.
func NextTurn(s State) (Turn, bool) {
	r, ok := s.ActiveRound()
	if !ok {
		return Turn{}, false
	}
	return Turn{ActorID: r.ActorID, TeamID: r.TeamID, Action: r.Action}, true
}

// nextShuffleRound computes who picks next in a shuffle draft from current
// team aggregates: ascending aggregate, team-id tie-break. justPicked applies
// the double-pick rule: if the team that just picked is still strictly below
// the lowest other active team's aggregate, it keeps the turn. ok is false
// once every team is at capacity.
func nextShuffleRound(s State, justPicked string) (Round, bool) {
	active := activeTeams(s.Teams)
	if len(active) == 0 {
		return Round{}, false
	}

	var next Team
	if justPicked != "" {
		if t, i := s.team(justPicked); i >= 0 && !t.Full() {
			threshold, bounded := PickThreshold(s, justPicked)
			if !bounded || Aggregate(t, s.Ratings) < threshold {
				next = t
			}
		}
	}
	if next.ID == "" {
		next = Rank(active, s.Ratings)[0]
	}

	captain, _ := s.captainOfTeam(next.ID)
	return Round{
		Index:   len(s.Rounds),
		ActorID: captain.ID,
		TeamID:  next.ID,
		Action:  ActionPick,
		State:   RoundPending,
	}, true
}
