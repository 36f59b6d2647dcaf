package engine

import (
	"fmt"
	"slices"
)

type CommandType string

const (
	CmdSetReady        CommandType = "SetReady"
	CmdTriggerRoll     CommandType = "TriggerRoll"
	CmdSubmitChoice    CommandType = "SubmitChoice"
	CmdSubmitSelection CommandType = "SubmitSelection"
	CmdUndoSelection   CommandType = "UndoLastSelection"
	CmdExpireTurn      CommandType = "ExpireTurn"
	CmdCancelDraft     CommandType = "CancelDraft"
	CmdPauseDraft      CommandType = "PauseDraft"
	CmdResumeDraft     CommandType = "ResumeDraft"
)

type Command struct {
	Type    CommandType
	ActorID string
	Choice  ChoiceType
	Value   string
	ItemID  int
	// Round is the submitter's view of the active round index; -1 skips the
	// check. A stale value means the submission lost a race against an
	// expiry or undo and is rejected with ErrRoundAlreadyResolved.
	Round int
}

type EventType string

const (
	EvtCaptainReady    EventType = "captain_ready"
	EvtRollResult      EventType = "roll_result"
	EvtChoiceMade      EventType = "choice_made"
	EvtDraftStarted    EventType = "draft_started"
	EvtHeroSelected    EventType = "hero_selected"
	EvtHeroBanned      EventType = "hero_banned"
	EvtTurnAdvanced    EventType = "turn_advanced"
	EvtTurnExpired     EventType = "turn_expired"
	EvtSelectionUndone EventType = "selection_undone"
	EvtDraftCompleted  EventType = "draft_completed"
	EvtDraftAbandoned  EventType = "draft_abandoned"
	EvtDraftPaused     EventType = "draft_paused"
	EvtDraftResumed    EventType = "draft_resumed"
)

type Event struct {
	Type    EventType `json:"type"`
	ActorID string    `json:"actor_id,omitempty"`
	ItemID  int       `json:"item_id,omitempty"`
	Value   string    `json:"value,omitempty"`
}

// Apply runs one command against the draft state and returns the emitted
// events plus the successor state. The input state is never mutated; on error
// it is returned unchanged.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdSetReady:
		return applyReady(s, cmd)
	case CmdTriggerRoll:
		return applyRoll(s, cmd)
	case CmdSubmitChoice:
		return applyChoice(s, cmd)
	case CmdSubmitSelection:
		return applySelection(s, cmd)
	case CmdUndoSelection:
		return applyUndo(s, cmd)
	case CmdExpireTurn:
		return applyExpire(s)
	case CmdCancelDraft:
		return applyCancel(s, cmd)
	case CmdPauseDraft:
		return applyPause(s, cmd)
	case CmdResumeDraft:
		return applyResume(s)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyReady(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseWaiting {
		return nil, s, ErrInvalidPhase
	}
	actor, ok := s.Actors[cmd.ActorID]
	if !ok || actor.Staff {
		return nil, s, ErrForbidden
	}
	ns := s.clone()
	actor.Ready = true
	ns.Actors[actor.ID] = actor
	events := []Event{{Type: EvtCaptainReady, ActorID: actor.ID}}

	for _, c := range ns.captains() {
		if !c.Ready {
			return events, ns, nil
		}
	}
	switch ns.Mode {
	case ModeCaptains:
		// Both captains ready; the toss still needs an explicit trigger.
		ns.Phase = PhaseRolling
	case ModeSnake:
		ns.Rounds = snakeRounds(ns)
		startDrafting(&ns)
		events = append(events, Event{Type: EvtDraftStarted})
	case ModeShuffle:
		if r, ok := nextShuffleRound(ns, ""); ok {
			ns.Rounds = append(ns.Rounds, r)
			startDrafting(&ns)
			events = append(events, Event{Type: EvtDraftStarted})
		}
	}
	return events, ns, nil
}

func applyRoll(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseRolling {
		return nil, s, ErrInvalidPhase
	}
	if _, ok := s.Actors[cmd.ActorID]; !ok {
		return nil, s, ErrForbidden
	}
	ns := s.clone()
	captains := ns.captains()
	draw := ((cmd.ItemID % 2) + 2) % 2 // ItemID carries the injected draw; may be negative
	winner := captains[draw]
	ns.Toss = &Toss{Winner: winner.ID, Draw: int64(cmd.ItemID)}
	ns.Phase = PhaseChoosing
	return []Event{{Type: EvtRollResult, ActorID: winner.ID}}, ns, nil
}

func applyChoice(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseChoosing {
		return nil, s, ErrInvalidPhase
	}
	actor, ok := s.Actors[cmd.ActorID]
	if !ok || actor.Staff {
		return nil, s, ErrForbidden
	}
	if err := validateChoiceValue(cmd.Choice, cmd.Value); err != nil {
		return nil, s, err
	}

	switch len(s.Choices) {
	case 0:
		if actor.ID != s.Toss.Winner {
			return nil, s, ErrNotYourTurn
		}
	case 1:
		prev := s.Choices[0]
		if actor.ID == prev.ActorID {
			return nil, s, ErrNotYourTurn
		}
		if cmd.Choice == prev.Type {
			// Loser is left only the complementary choice.
			return nil, s, ErrChoiceTaken
		}
	default:
		return nil, s, ErrInvalidPhase
	}

	ns := s.clone()
	ns.Choices = append(ns.Choices, Choice{ActorID: actor.ID, Type: cmd.Choice, Value: cmd.Value})
	events := []Event{{Type: EvtChoiceMade, ActorID: actor.ID, Value: string(cmd.Choice) + "=" + cmd.Value}}

	if len(ns.Choices) == 2 {
		assignSides(&ns)
		ns.Rounds = captainsRounds(ns, firstPickSide(ns))
		startDrafting(&ns)
		events = append(events, Event{Type: EvtDraftStarted})
	}
	return events, ns, nil
}

func validateChoiceValue(t ChoiceType, v string) error {
	switch t {
	case ChoiceSide:
		if v != string(SideRadiant) && v != string(SideDire) {
			return fmt.Errorf("%w: bad side %q", ErrUnsupportedCommand, v)
		}
	case ChoiceFirstPick:
		if v != "first" && v != "second" {
			return fmt.Errorf("%w: bad pick order %q", ErrUnsupportedCommand, v)
		}
	default:
		return fmt.Errorf("%w: bad choice type %q", ErrUnsupportedCommand, t)
	}
	return nil
}

// assignSides pins each captain's side from the recorded side choice.
func assignSides(ns *State) {
	for _, c := range ns.Choices {
		if c.Type != ChoiceSide {
			continue
		}
		chooser := ns.Actors[c.ActorID]
		chooser.Side = Side(c.Value)
		ns.Actors[chooser.ID] = chooser
		for _, other := range ns.captains() {
			if other.ID != chooser.ID {
				other.Side = chooser.Side.Opposite()
				ns.Actors[other.ID] = other
			}
		}
	}
}

func firstPickSide(s State) Side {
	for _, c := range s.Choices {
		if c.Type != ChoiceFirstPick {
			continue
		}
		chooser := s.Actors[c.ActorID]
		if c.Value == "first" {
			return chooser.Side
		}
		return chooser.Side.Opposite()
	}
	return SideRadiant // unreachable once both choices are in
}

func applySelection(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseDrafting {
		return nil, s, ErrInvalidPhase
	}
	if s.Paused {
		return nil, s, ErrDraftPaused
	}
	r, ok := s.ActiveRound()
	if !ok {
		return nil, s, ErrInvalidPhase
	}
	if cmd.Round >= 0 && cmd.Round != s.Active {
		return nil, s, ErrRoundAlreadyResolved
	}
	if cmd.ActorID != r.ActorID {
		return nil, s, ErrNotYourTurn
	}
	if !slices.Contains(s.Pool, cmd.ItemID) {
		return nil, s, ErrItemUnavailable
	}

	ns := s.clone()
	resolveActive(&ns, cmd.ItemID)
	events := []Event{{Type: selectionEvent(r.Action), ActorID: r.ActorID, ItemID: cmd.ItemID}}
	events = append(events, advance(&ns, r.TeamID)...)
	return events, ns, nil
}

func selectionEvent(a Action) EventType {
	if a == ActionBan {
		return EvtHeroBanned
	}
	return EvtHeroSelected
}

// applyExpire auto-resolves the active round once its actor's reserve hits
// zero. Bans are always skipped. Expired picks follow the timeout policy,
// except in shuffle drafts where forfeiting would leave the team below
// capacity forever and wedge the draft, so shuffle always auto-picks.
func applyExpire(s State) ([]Event, State, error) {
	if s.Phase != PhaseDrafting {
		return nil, s, ErrInvalidPhase
	}
	r, ok := s.ActiveRound()
	if !ok {
		return nil, s, ErrInvalidPhase
	}

	ns := s.clone()
	events := []Event{{Type: EvtTurnExpired, ActorID: r.ActorID}}

	autoPick := r.Action == ActionPick && len(ns.Pool) > 0 &&
		(ns.Rules.TimeoutPolicy == AutoPickLowest || ns.Mode == ModeShuffle)
	if autoPick {
		item := ns.Pool[0]
		resolveActive(&ns, item)
		events = append(events, Event{Type: selectionEvent(r.Action), ActorID: r.ActorID, ItemID: item})
	} else {
		ns.Rounds[ns.Active].State = RoundSkipped
	}
	events = append(events, advance(&ns, r.TeamID)...)
	return events, ns, nil
}

func applyUndo(s State, cmd Command) ([]Event, State, error) {
	actor, ok := s.Actors[cmd.ActorID]
	if !ok || !actor.Staff {
		return nil, s, ErrForbidden
	}
	if s.Phase != PhaseDrafting && s.Phase != PhaseCompleted {
		return nil, s, ErrInvalidPhase
	}

	// Most recently resolved round; the active round (if any) sits after it.
	target := -1
	for i := len(s.Rounds) - 1; i >= 0; i-- {
		if s.Rounds[i].State == RoundCompleted || s.Rounds[i].State == RoundSkipped {
			target = i
			break
		}
	}
	if target < 0 {
		return nil, s, ErrInvalidPhase
	}

	ns := s.clone()
	reverted := ns.Rounds[target]
	if reverted.Selection != 0 {
		poolInsert(&ns, reverted.Selection)
		if reverted.TeamID != "" {
			rosterRemove(&ns, reverted.TeamID, reverted.Selection)
		}
	}
	if ns.Active > target {
		ns.Rounds[ns.Active].State = RoundPending
	}
	if ns.Mode == ModeShuffle {
		// Rounds after the reverted one were generated from the now-stale
		// aggregates; drop them so the order is recomputed on the next pick.
		ns.Rounds = ns.Rounds[:target+1]
	}
	ns.Rounds[target].Selection = 0
	ns.Rounds[target].State = RoundPending
	ns.Phase = PhaseDrafting
	activateRound(&ns, target)
	// Clock state is deliberately not rewound: time spent is not refunded.
	return []Event{{Type: EvtSelectionUndone, ActorID: cmd.ActorID, ItemID: reverted.Selection}}, ns, nil
}

func applyCancel(s State, cmd Command) ([]Event, State, error) {
	actor, ok := s.Actors[cmd.ActorID]
	if !ok || !actor.Staff {
		return nil, s, ErrForbidden
	}
	if s.Phase == PhaseCompleted || s.Phase == PhaseAbandoned {
		return nil, s, ErrInvalidPhase
	}
	ns := s.clone()
	ns.Phase = PhaseAbandoned
	ns.Active = -1
	for i := range ns.Rounds {
		if ns.Rounds[i].State == RoundPending || ns.Rounds[i].State == RoundActive {
			ns.Rounds[i].State = RoundSkipped
		}
	}
	return []Event{{Type: EvtDraftAbandoned, ActorID: cmd.ActorID}}, ns, nil
}

func applyPause(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseDrafting || s.Paused {
		return nil, s, ErrInvalidPhase
	}
	ns := s.clone()
	ns.Paused = true
	return []Event{{Type: EvtDraftPaused, ActorID: cmd.ActorID, Value: cmd.Value}}, ns, nil
}

func applyResume(s State) ([]Event, State, error) {
	if s.Phase != PhaseDrafting || !s.Paused {
		return nil, s, ErrInvalidPhase
	}
	ns := s.clone()
	ns.Paused = false
	return []Event{{Type: EvtDraftResumed}}, ns, nil
}

func startDrafting(ns *State) {
	ns.Phase = PhaseDrafting
	activateRound(ns, 0)
}

func activateRound(ns *State, idx int) {
	ns.Active = idx
	ns.Rounds[idx].State = RoundActive
	ns.GraceMs = ns.Rules.GraceMs
}

// resolveActive completes the active round with item, moving it out of the
// pool and (for player drafts) onto the acting team's roster.
func resolveActive(ns *State, item int) {
	r := &ns.Rounds[ns.Active]
	r.Selection = item
	r.State = RoundCompleted
	poolRemove(ns, item)
	if r.TeamID != "" {
		if _, i := ns.team(r.TeamID); i >= 0 {
			ns.Teams[i].Roster = append(ns.Teams[i].Roster, item)
		}
	}
}

// advance activates the next round or completes the draft.
func advance(ns *State, justTeam string) []Event {
	if ns.Mode == ModeShuffle {
		// An exhausted pool ends the draft even with open roster slots;
		// generating rounds nobody can resolve would never terminate.
		r, ok := nextShuffleRound(*ns, justTeam)
		if !ok || len(ns.Pool) == 0 {
			ns.Active = -1
			ns.Phase = PhaseCompleted
			return []Event{{Type: EvtDraftCompleted}}
		}
		ns.Rounds = append(ns.Rounds, r)
		activateRound(ns, r.Index)
		return []Event{{Type: EvtTurnAdvanced, ActorID: r.ActorID}}
	}

	next := ns.Active + 1
	if next >= len(ns.Rounds) {
		ns.Active = -1
		ns.Phase = PhaseCompleted
		return []Event{{Type: EvtDraftCompleted}}
	}
	activateRound(ns, next)
	return []Event{{Type: EvtTurnAdvanced, ActorID: ns.Rounds[next].ActorID}}
}

func poolRemove(ns *State, item int) {
	if i, ok := slices.BinarySearch(ns.Pool, item); ok {
		ns.Pool = slices.Delete(ns.Pool, i, i+1)
	}
}

func poolInsert(ns *State, item int) {
	if i, ok := slices.BinarySearch(ns.Pool, item); !ok {
		ns.Pool = slices.Insert(ns.Pool, i, item)
	}
}

func rosterRemove(ns *State, teamID string, item int) {
	_, i := ns.team(teamID)
	if i < 0 {
		return
	}
	roster := ns.Teams[i].Roster
	for j := len(roster) - 1; j >= 0; j-- {
		if roster[j] == item {
			ns.Teams[i].Roster = slices.Delete(roster, j, j+1)
			return
		}
	}
}

// CheckAccounting verifies the closed-world pool invariant: the selections of
// completed rounds plus the remaining pool must equal the original pool with
// no duplicates. Violations are never corrected; the session fails closed.
func CheckAccounting(s State) error {
	seen := make(map[int]bool, len(s.Source))
	count := 0
	mark := func(item int) error {
		if seen[item] {
			return fmt.Errorf("%w: item %d counted twice", ErrInvariantViolated, item)
		}
		seen[item] = true
		count++
		return nil
	}
	for _, r := range s.Rounds {
		if r.State == RoundCompleted && r.Selection != 0 {
			if err := mark(r.Selection); err != nil {
				return err
			}
		}
	}
	for _, item := range s.Pool {
		if err := mark(item); err != nil {
			return err
		}
	}
	if count != len(s.Source) {
		return fmt.Errorf("%w: %d items accounted for, %d in original pool", ErrInvariantViolated, count, len(s.Source))
	}
	for _, item := range s.Source {
		if !seen[item] {
			return fmt.Errorf("%w: item %d missing", ErrInvariantViolated, item)
		}
	}
	return nil
}
