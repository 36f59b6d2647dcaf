package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kettleofketchup/DraftForge-sub000/internal/engine"
	"github.com/kettleofketchup/DraftForge-sub000/internal/hub"
	"github.com/kettleofketchup/DraftForge-sub000/internal/session"
	"github.com/kettleofketchup/DraftForge-sub000/internal/types"
)

// StatusKicked is the close code sent to a connection whose actor logged in
// elsewhere. It is terminal: clients must not auto-reconnect after seeing it,
// or the two devices would fight over the seat forever.
const StatusKicked websocket.StatusCode = 4001

const writeTimeout = 3 * time.Second

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		actorID := r.URL.Query().Get("actor") // empty means spectator

		reply := make(chan *session.Session, 1)
		h.Inbox() <- hub.GetSession{Code: code, Reply: reply}
		sess := <-reply
		if sess == nil {
			http.Error(w, "draft not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		outbox := session.NewOutbox()
		joinReply := make(chan session.JoinReply, 1)
		sess.Inbox() <- session.Join{ConnID: connID, ActorID: actorID, Outbox: outbox, Reply: joinReply}
		if jr := <-joinReply; jr.Err != nil {
			_ = conn.Close(websocket.StatusPolicyViolation, jr.Err.Error())
			return
		}
		defer func() { sess.Inbox() <- session.Leave{ConnID: connID} }()

		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go writer(writeCtx, writeCancel, conn, outbox)

		// Reader loop. Action results go back only to this connection; the
		// state change itself arrives through the broadcast path like it does
		// for every other viewer.
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeMsg(r.Context(), conn, types.ServerMessage{Type: "error", Error: "bad json"})
				continue
			}
			cmd, ok := toCommand(cm)
			if !ok {
				writeMsg(r.Context(), conn, types.ServerMessage{Type: "error", Error: "unknown type"})
				continue
			}

			result := make(chan session.Result, 1)
			sess.Inbox() <- session.FromClient{ConnID: connID, Cmd: cmd, Reply: result}
			res := <-result
			if res.Err != nil {
				writeMsg(r.Context(), conn, types.ServerMessage{Type: "error", Error: res.Err.Error()})
				if errors.Is(res.Err, engine.ErrInvariantViolated) {
					log.Warn("invariant violation surfaced to client", zap.String("session", code))
				}
				continue
			}
			writeMsg(r.Context(), conn, types.ServerMessage{Type: "ack", Version: res.Version})
		}
	}
}

// writer multiplexes the broadcast streams onto the socket. The kicked signal
// wins over pending payloads so the replaced device learns its fate promptly.
func writer(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, o *session.Outbox) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.Kicked():
			_ = conn.Close(StatusKicked, "logged in elsewhere")
			return
		case snap, ok := <-o.Snapshots():
			if !ok {
				// Dropped for falling behind; a plain close invites reconnect.
				_ = conn.Close(websocket.StatusGoingAway, "too slow")
				return
			}
			writeMsg(ctx, conn, types.ServerMessage{
				Type:    "snapshot",
				Version: snap.Version,
				Event:   string(snap.EventType),
				ActorID: snap.ActorID,
				State:   &snap.State,
			})
		case tick, ok := <-o.Ticks():
			if !ok {
				return
			}
			writeMsg(ctx, conn, types.ServerMessage{Type: "tick", Tick: &tick})
		}
	}
}

func writeMsg(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}

func toCommand(m types.ClientMessage) (engine.Command, bool) {
	round := -1
	if m.Round != nil {
		round = *m.Round
	}
	switch m.Type {
	case "ready":
		return engine.Command{Type: engine.CmdSetReady}, true
	case "trigger_roll":
		return engine.Command{Type: engine.CmdTriggerRoll}, true
	case "submit_choice":
		choice, ok := parseChoice(m.Choice)
		if !ok {
			return engine.Command{}, false
		}
		return engine.Command{Type: engine.CmdSubmitChoice, Choice: choice, Value: m.Value}, true
	case "submit_selection":
		return engine.Command{Type: engine.CmdSubmitSelection, ItemID: m.ItemID, Round: round}, true
	case "undo":
		return engine.Command{Type: engine.CmdUndoSelection}, true
	case "cancel":
		return engine.Command{Type: engine.CmdCancelDraft}, true
	case "pause":
		return engine.Command{Type: engine.CmdPauseDraft, Value: m.Value}, true
	case "resume":
		return engine.Command{Type: engine.CmdResumeDraft}, true
	default:
		return engine.Command{}, false
	}
}

func parseChoice(s string) (engine.ChoiceType, bool) {
	switch s {
	case "side":
		return engine.ChoiceSide, true
	case "first_pick":
		return engine.ChoiceFirstPick, true
	default:
		return "", false
	}
}
