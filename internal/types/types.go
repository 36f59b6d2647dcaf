package types

import (
	"github.com/kettleofketchup/DraftForge-sub000/internal/engine"
	"github.com/kettleofketchup/DraftForge-sub000/internal/session"
)

// ClientMessage is one inbound action over the socket.
//
// Round carries the client's view of the active round index for
// submit_selection, so a submission that raced a turn change is rejected
// instead of landing on the next round. Omitting it skips the check.
type ClientMessage struct {
	Type   string `json:"type"` // "ready" | "trigger_roll" | "submit_choice" | "submit_selection" | "undo" | "cancel" | "pause" | "resume"
	Choice string `json:"choice,omitempty"`
	Value  string `json:"value,omitempty"`
	ItemID int    `json:"item_id,omitempty"`
	Round  *int   `json:"round,omitempty"`
}

// ServerMessage is the single outbound envelope.
//
//   - "snapshot": full authoritative state; apply in version order, discard stale.
//   - "tick":     clock sync only, droppable and idempotent.
//   - "ack":      the submitter's own action committed at Version.
//   - "error":    the submitter's own action was rejected; no state changed.
type ServerMessage struct {
	Type    string        `json:"type"`
	Version int           `json:"version,omitempty"`
	Event   string        `json:"event,omitempty"`
	ActorID string        `json:"actor_id,omitempty"`
	State   *engine.State `json:"state,omitempty"`
	Tick    *session.Tick `json:"tick,omitempty"`
	Error   string        `json:"error,omitempty"`
}
