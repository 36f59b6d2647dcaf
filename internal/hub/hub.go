package hub

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kettleofketchup/DraftForge-sub000/internal/engine"
	"github.com/kettleofketchup/DraftForge-sub000/internal/session"
	"github.com/kettleofketchup/DraftForge-sub000/internal/store"
)

type Msg interface{ isHubMsg() }

type CreateSession struct {
	Code  string
	State engine.State
	Reply chan *session.Session
}

// GetSession resolves a code to its live session. A session that fell out of
// memory (restart) is rehydrated from the latest durable snapshot when one
// exists; otherwise the reply is nil.
type GetSession struct {
	Code  string
	Reply chan *session.Session
}

type RemoveSession struct {
	Code string
}

type ShutdownHub struct{}

func (CreateSession) isHubMsg() {}
func (GetSession) isHubMsg()    {}
func (RemoveSession) isHubMsg() {}
func (ShutdownHub) isHubMsg()   {}

type Deps struct {
	Store store.Store
	Log   *zap.Logger
	Clock clockwork.Clock
}

// Hub is the registry actor owning the code -> session map. Like the sessions
// it spawns, it serializes all access through a message inbox.
type Hub struct {
	inbox    chan Msg
	sessions map[string]*session.Session
	deps     Deps
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, deps Deps) *Hub {
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Store == nil {
		deps.Store = store.NewMemoryStore()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan Msg, 64),
		sessions: make(map[string]*session.Session),
		deps:     deps,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- Msg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateSession:
				if s := h.sessions[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				msg.Reply <- h.spawn(msg.Code, msg.State, 0)

			case GetSession:
				if s := h.sessions[msg.Code]; s != nil {
					msg.Reply <- s
					break
				}
				msg.Reply <- h.resume(msg.Code)

			case RemoveSession:
				if s := h.sessions[msg.Code]; s != nil {
					s.Inbox() <- session.Shutdown{}
				}
				delete(h.sessions, msg.Code)

			case ShutdownHub:
				for _, s := range h.sessions {
					s.Inbox() <- session.Shutdown{}
				}
				clear(h.sessions)
				h.cancel()
			}
		}
	}
}

func (h *Hub) spawn(code string, state engine.State, version int) *session.Session {
	s := session.New(h.ctx, code, state, session.Deps{
		Store:   h.deps.Store,
		Log:     h.deps.Log.With(zap.String("session", code)),
		Clock:   h.deps.Clock,
		Version: version,
	})
	h.sessions[code] = s
	return s
}

// resume rebuilds a session from its latest durable snapshot, continuing the
// version sequence where the stored history left off. Drafts that already
// reached a terminal phase stay in the store; they get no ticking actor.
func (h *Hub) resume(code string) *session.Session {
	rec, err := h.deps.Store.Latest(h.ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		h.deps.Log.Error("loading stored draft failed",
			zap.String("session", code), zap.Error(err))
		return nil
	}
	switch engine.Phase(rec.Phase) {
	case engine.PhaseCompleted, engine.PhaseAbandoned:
		return nil
	}
	var st engine.State
	if err := json.Unmarshal(rec.State, &st); err != nil {
		h.deps.Log.Warn("stored snapshot is unreadable, refusing resume",
			zap.String("session", code), zap.Error(err))
		return nil
	}
	return h.spawn(code, st, rec.Version)
}
