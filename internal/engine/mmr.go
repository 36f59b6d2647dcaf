package engine

import "slices"

// Aggregate is the sum of a team's member ratings. It is recomputed from the
// roster snapshot on every call; a cached aggregate would go stale the moment
// a pick or undo mutates the roster. A team with zero members aggregates 0,
// which puts it first in the pick order and is how a fresh draft seeds itself.
func Aggregate(t Team, ratings map[int]int) int {
	sum := 0
	for _, id := range t.Roster {
		sum += ratings[id]
	}
	return sum
}

// Rank orders teams by ascending aggregate rating, ties broken
// lexicographically by team id so the order is stable and deterministic.
func Rank(teams []Team, ratings map[int]int) []Team {
	out := slices.Clone(teams)
	slices.SortStableFunc(out, func(a, b Team) int {
		ra, rb := Aggregate(a, ratings), Aggregate(b, ratings)
		if ra != rb {
			return ra - rb
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out
}

// activeTeams filters out teams at full roster capacity; they are excluded
// from ordering entirely.
func activeTeams(teams []Team) []Team {
	var out []Team
	for _, t := range teams {
		if !t.Full() {
			out = append(out, t)
		}
	}
	return out
}

// PickThreshold returns the aggregate rating the acting team must stay
// strictly under after its pick to retain the turn: the lowest aggregate
// among the other active teams. ok is false when no other team is still
// drafting, in which case the acting team is always eligible to continue.
func PickThreshold(s State, teamID string) (int, bool) {
	best := 0
	found := false
	for _, t := range activeTeams(s.Teams) {
		if t.ID == teamID {
			continue
		}
		agg := Aggregate(t, s.Ratings)
		if !found || agg < best {
			best = agg
			found = true
		}
	}
	return best, found
}
