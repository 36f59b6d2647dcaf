package session

import (
	"github.com/kettleofketchup/DraftForge-sub000/internal/engine"
)

type Msg interface{ isSessionMsg() }

// Join registers a viewer connection. ActorID is empty for spectators; a
// non-empty ActorID claims the single live connection slot for that actor,
// kicking whichever connection held it before.
type Join struct {
	ConnID  string
	ActorID string
	Outbox  *Outbox
	Reply   chan JoinReply
}

func (Join) isSessionMsg() {}

type JoinReply struct {
	KickedConn string
	Err        error
}

type Leave struct{ ConnID string }

func (Leave) isSessionMsg() {}

// FromClient carries one inbound action. The result is reported synchronously
// on Reply in addition to any broadcast the action causes.
type FromClient struct {
	ConnID string
	Cmd    engine.Command
	Reply  chan Result
}

func (FromClient) isSessionMsg() {}

type Result struct {
	Version int
	Err     error
}

type GetView struct{ Reply chan View }

func (GetView) isSessionMsg() {}

// View reflects internal state without data races, for HTTP reads and tests.
type View struct {
	Version    int
	NumClients int
	Fatal      bool
	State      engine.State
}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// Snapshot is a full-state broadcast message. EventType is empty on the
// initial snapshot a connection receives when it joins. Receivers must apply
// snapshots in version order and discard stale ones.
type Snapshot struct {
	Version   int              `json:"version"`
	EventType engine.EventType `json:"event_type,omitempty"`
	ActorID   string           `json:"actor_id,omitempty"`
	State     engine.State     `json:"state"`
}

// Tick is the low-payload clock sync message, idempotent and droppable.
type Tick struct {
	ActiveRound      int              `json:"active_round"`
	ActiveActorID    string           `json:"active_actor,omitempty"`
	GraceRemainingMs int64            `json:"grace_remaining_ms"`
	ReserveMs        map[string]int64 `json:"reserve_remaining_ms"`
}
