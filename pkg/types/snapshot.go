package types

// Server -> Client
//
// snapshot:            // full authoritative state; apply in version order
//   version:  number
//   event:    string   // what caused this transition; empty on join
//   actor_id: string   // who caused it, when applicable
//   state:    State    // see engine.State: phase, rounds, pool, actors,
//                      // teams, toss, choices, clock remnants
//
// tick:                // clock sync; droppable, idempotent
//   active_round:         number
//   active_actor:         string
//   grace_remaining_ms:   number
//   reserve_remaining_ms: { [actorId]: number }
//
// ack:                 // the submitter's own action committed
//   version: number
//
// error:               // the submitter's own action was rejected
//   error: string
//
// A close with code 4001 means the actor's seat was claimed by another
// connection. Clients must treat it as terminal and never auto-reconnect.
