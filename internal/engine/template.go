package engine

// templateStep is one slot of a pre-generated round template, expressed in
// terms of the side/team holding first pick rather than a concrete side.
type templateStep struct {
	First  bool // true: first-pick party acts
	Action Action
}

// captainsTemplate is the standard captains-mode sequence: 7 bans and 5 picks
// per side across three ban phases and three pick phases, 24 rounds total.
var captainsTemplate = []templateStep{
	// Ban phase 1
	{true, ActionBan}, {false, ActionBan}, {true, ActionBan}, {false, ActionBan},
	// Pick phase 1
	{true, ActionPick}, {false, ActionPick}, {false, ActionPick}, {true, ActionPick},
	// Ban phase 2
	{false, ActionBan}, {true, ActionBan}, {false, ActionBan}, {true, ActionBan}, {false, ActionBan}, {true, ActionBan},
	// Pick phase 2
	{false, ActionPick}, {true, ActionPick}, {true, ActionPick}, {false, ActionPick},
	// Ban phase 3
	{true, ActionBan}, {false, ActionBan}, {true, ActionBan}, {false, ActionBan},
	// Pick phase 3
	{true, ActionPick}, {false, ActionPick},
}

// captainsRounds expands the template against the side that won first pick.
// Called exactly once, when both post-toss choices are in.
func captainsRounds(s State, firstPick Side) []Round {
	first, _ := s.captainOfSide(firstPick)
	second, _ := s.captainOfSide(firstPick.Opposite())
	rounds := make([]Round, 0, len(captainsTemplate))
	for i, step := range captainsTemplate {
		actor := second
		if step.First {
			actor = first
		}
		rounds = append(rounds, Round{
			Index:   i,
			ActorID: actor.ID,
			Action:  step.Action,
			State:   RoundPending,
		})
	}
	return rounds
}

// snakeRounds generates the full boustrophedon pick order: team registration
// order is the seed, reversed on every cycle (1,2,3,4,4,3,2,1,...). Teams
// that reach capacity drop out of later cycles.
func snakeRounds(s State) []Round {
	need := make(map[string]int, len(s.Teams))
	total := 0
	for _, t := range s.Teams {
		n := t.Capacity - len(t.Roster)
		need[t.ID] = n
		total += n
	}
	rounds := make([]Round, 0, total)
	forward := true
	for len(rounds) < total {
		order := make([]Team, len(s.Teams))
		copy(order, s.Teams)
		if !forward {
			for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
				order[i], order[j] = order[j], order[i]
			}
		}
		for _, t := range order {
			if need[t.ID] == 0 {
				continue
			}
			need[t.ID]--
			captain, _ := s.captainOfTeam(t.ID)
			rounds = append(rounds, Round{
				Index:   len(rounds),
				ActorID: captain.ID,
				TeamID:  t.ID,
				Action:  ActionPick,
				State:   RoundPending,
			})
		}
		forward = !forward
	}
	return rounds
}
