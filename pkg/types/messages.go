package types

// Client -> Server
// All messages ride the /ws socket opened with ?code=XXXXXX&actor=<id>.
// Omitting actor joins as a read-only spectator.
//
// ready: {}
//
// trigger_roll: {}   // staff or captain; starts the coin toss
//
// submit_choice:
//   choice: "side" | "first_pick"
//   value:  "radiant" | "dire" | "first" | "second"
//
// submit_selection:
//   item_id: number
//   round:   number   // client's view of the active round; omit to skip the
//                     // stale-submission guard
//
// undo: {}            // staff only; reverts the latest resolved round
//
// cancel: {}          // staff only; terminal
//
// pause:
//   value: string     // optional reason, shown to viewers
//
// resume: {}
