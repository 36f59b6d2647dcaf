package engine

import (
	"fmt"
	"maps"
	"slices"
)

type Mode string

const (
	ModeCaptains Mode = "captains-mode"
	ModeSnake    Mode = "snake"
	ModeShuffle  Mode = "shuffle"
)

type Side string

const (
	SideRadiant Side = "radiant"
	SideDire    Side = "dire"
)

func (s Side) Opposite() Side {
	if s == SideRadiant {
		return SideDire
	}
	return SideRadiant
}

type Action string

const (
	ActionBan  Action = "ban"
	ActionPick Action = "pick"
)

type Phase string

const (
	PhaseWaiting   Phase = "waiting_for_captains"
	PhaseRolling   Phase = "rolling"
	PhaseChoosing  Phase = "choosing"
	PhaseDrafting  Phase = "drafting"
	PhaseCompleted Phase = "completed"
	PhaseAbandoned Phase = "abandoned"
)

type RoundState string

const (
	RoundPending   RoundState = "pending"
	RoundActive    RoundState = "active"
	RoundCompleted RoundState = "completed"
	RoundSkipped   RoundState = "skipped"
)

// Round is one turn slot. Completed rounds are immutable; only the single
// active round accepts a resolving action (undo is the sanctioned exception).
type Round struct {
	Index     int        `json:"index"`
	ActorID   string     `json:"actor_id"`
	TeamID    string     `json:"team_id,omitempty"`
	Action    Action     `json:"action"`
	Selection int        `json:"selection,omitempty"` // 0 until resolved
	State     RoundState `json:"state"`
}

// Actor is a captain or drafting participant. ReserveMs is the chess-clock
// bank; it only depletes while the actor holds the active turn with the grace
// window exhausted.
type Actor struct {
	ID        string `json:"id"`
	Side      Side   `json:"side,omitempty"`    // captains-mode, assigned after choosing
	TeamID    string `json:"team_id,omitempty"` // player-draft modes
	Staff     bool   `json:"staff,omitempty"`
	Ready     bool   `json:"ready"`
	ReserveMs int64  `json:"reserve_ms"`
}

// Team participates in snake/shuffle player drafts. Roster holds picked item
// ids; aggregate rating is derived from Roster on demand, never cached.
type Team struct {
	ID       string `json:"id"`
	Capacity int    `json:"capacity"`
	Roster   []int  `json:"roster"`
}

func (t Team) Full() bool { return len(t.Roster) >= t.Capacity }

type TimeoutPolicy string

const (
	// AutoPickLowest resolves an expired pick with the lowest-index pool item.
	AutoPickLowest TimeoutPolicy = "auto_pick_lowest"
	// ForfeitRound skips the expired round without a selection.
	ForfeitRound TimeoutPolicy = "forfeit"
)

type Rules struct {
	ReserveMs     int64         `json:"reserve_ms"`
	GraceMs       int64         `json:"grace_ms"`
	TimeoutPolicy TimeoutPolicy `json:"timeout_policy"`
}

func DefaultRules() Rules {
	return Rules{ReserveMs: 90_000, GraceMs: 30_000, TimeoutPolicy: AutoPickLowest}
}

type ChoiceType string

const (
	ChoiceSide      ChoiceType = "side"
	ChoiceFirstPick ChoiceType = "first_pick"
)

// Toss records the coin-toss outcome. Draw is the raw server-side draw so the
// result is reproducible for audit, not re-rollable.
type Toss struct {
	Winner string `json:"winner"`
	Draw   int64  `json:"draw"`
}

type Choice struct {
	ActorID string     `json:"actor_id"`
	Type    ChoiceType `json:"type"`
	Value   string     `json:"value"`
}

// State is the full draft session state. It is a value: Apply never mutates
// its input, so callers can hold pre/post images side by side.
type State struct {
	Mode    Mode             `json:"mode"`
	Phase   Phase            `json:"phase"`
	Paused  bool             `json:"paused,omitempty"`
	Rounds  []Round          `json:"rounds"`
	Active  int              `json:"active"` // index into Rounds, -1 when none
	Pool    []int            `json:"pool"`
	Source  []int            `json:"source"` // original pool, closed-world reference
	Actors  map[string]Actor `json:"actors"`
	Teams   []Team           `json:"teams,omitempty"` // registration order seeds snake
	Ratings map[int]int      `json:"ratings,omitempty"`
	Toss    *Toss            `json:"toss,omitempty"`
	Choices []Choice         `json:"choices,omitempty"`
	GraceMs int64            `json:"grace_remaining_ms"`
	Rules   Rules            `json:"rules"`
}

// Definition is the external description a new draft session is built from.
// Rosters and ratings arrive as read-only snapshots; the engine never owns
// roster CRUD.
type Definition struct {
	Mode    Mode        `json:"mode"`
	Pool    []int       `json:"pool"`
	Actors  []Actor     `json:"actors"`
	Teams   []Team      `json:"teams,omitempty"`
	Ratings map[int]int `json:"ratings,omitempty"`
	Rules   *Rules      `json:"rules,omitempty"`
}

func NewState(def Definition) (State, error) {
	rules := DefaultRules()
	if def.Rules != nil {
		rules = *def.Rules
	}
	if len(def.Pool) == 0 {
		return State{}, fmt.Errorf("empty selection pool")
	}
	for _, id := range def.Pool {
		if id <= 0 {
			return State{}, fmt.Errorf("pool item ids must be positive, got %d", id)
		}
	}
	pool := slices.Clone(def.Pool)
	slices.Sort(pool)
	pool = slices.Compact(pool)

	actors := make(map[string]Actor, len(def.Actors))
	for _, a := range def.Actors {
		a.ReserveMs = rules.ReserveMs
		actors[a.ID] = a
	}

	s := State{
		Mode:    def.Mode,
		Phase:   PhaseWaiting,
		Active:  -1,
		Pool:    pool,
		Source:  slices.Clone(pool),
		Actors:  actors,
		Ratings: def.Ratings,
		Rules:   rules,
	}
	for _, t := range def.Teams {
		t.Roster = slices.Clone(t.Roster)
		s.Teams = append(s.Teams, t)
	}

	switch def.Mode {
	case ModeCaptains:
		if len(s.captains()) != 2 {
			return State{}, fmt.Errorf("captains-mode requires exactly two captains, got %d", len(s.captains()))
		}
	case ModeSnake, ModeShuffle:
		if len(s.Teams) < 2 {
			return State{}, fmt.Errorf("%s draft requires at least two teams", def.Mode)
		}
		need := 0
		for _, t := range s.Teams {
			if _, ok := s.captainOfTeam(t.ID); !ok {
				return State{}, fmt.Errorf("team %s has no captain actor", t.ID)
			}
			need += t.Capacity - len(t.Roster)
		}
		// A pool smaller than the open roster slots can never fill every
		// team, which would leave the draft generating rounds forever.
		if len(s.Pool) < need {
			return State{}, fmt.Errorf("pool of %d cannot fill %d open roster slots", len(s.Pool), need)
		}
	default:
		return State{}, fmt.Errorf("unknown draft mode %q", def.Mode)
	}
	return s, nil
}

// captains returns the non-staff actors in deterministic id order.
func (s State) captains() []Actor {
	var out []Actor
	for _, a := range s.Actors {
		if !a.Staff {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b Actor) int {
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

func (s State) captainOfSide(side Side) (Actor, bool) {
	for _, a := range s.captains() {
		if a.Side == side {
			return a, true
		}
	}
	return Actor{}, false
}

func (s State) captainOfTeam(teamID string) (Actor, bool) {
	for _, a := range s.captains() {
		if a.TeamID == teamID {
			return a, true
		}
	}
	return Actor{}, false
}

func (s State) team(id string) (Team, int) {
	for i, t := range s.Teams {
		if t.ID == id {
			return t, i
		}
	}
	return Team{}, -1
}

// ActiveRound returns the currently active round, if any.
func (s State) ActiveRound() (Round, bool) {
	if s.Active < 0 || s.Active >= len(s.Rounds) {
		return Round{}, false
	}
	return s.Rounds[s.Active], true
}

func (s State) clone() State {
	ns := s
	ns.Rounds = slices.Clone(s.Rounds)
	ns.Pool = slices.Clone(s.Pool)
	ns.Actors = maps.Clone(s.Actors)
	ns.Choices = slices.Clone(s.Choices)
	ns.Teams = make([]Team, len(s.Teams))
	for i, t := range s.Teams {
		t.Roster = slices.Clone(t.Roster)
		ns.Teams[i] = t
	}
	// Source and Ratings are read-only snapshots; sharing is fine.
	return ns
}
