package session

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kettleofketchup/DraftForge-sub000/internal/engine"
	"github.com/kettleofketchup/DraftForge-sub000/internal/store"
)

// RollFunc is the injected server-side draw for the coin toss. The outcome is
// recorded in the toss so it is reproducible for audit, never re-rollable.
type RollFunc func() int

type Config struct {
	// PauseGrace is how long the active turn holder may be disconnected
	// before the drafting overlay pauses. Brief network blips stay invisible.
	PauseGrace time.Duration
	// TickInterval drives clock depletion and tick broadcasts.
	TickInterval time.Duration
}

func DefaultConfig() Config {
	return Config{PauseGrace: 10 * time.Second, TickInterval: time.Second}
}

type Deps struct {
	Store   store.Store
	Log     *zap.Logger
	Clock   clockwork.Clock
	Roll    RollFunc
	Config  Config
	Version int // resume point; zero for fresh sessions
}

// Session is the single coordinating unit of execution owning one draft. All
// mutations are serialized through its inbox; fan-out to viewers happens via
// per-connection outboxes that can never stall the mutation path.
type Session struct {
	id       string
	inbox    chan Msg
	state    engine.State
	version  int
	fatal    bool
	conns    *ConnManager
	outboxes map[string]*Outbox
	store    store.Store
	log      *zap.Logger
	clock    clockwork.Clock
	roll     RollFunc
	cfg      Config
	lastTick time.Time
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(parent context.Context, id string, initial engine.State, deps Deps) *Session {
	ctx, cancel := context.WithCancel(parent)
	if deps.Log == nil {
		deps.Log = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Roll == nil {
		deps.Roll = func() int { return rand.Intn(2) }
	}
	if deps.Store == nil {
		deps.Store = store.NewMemoryStore()
	}
	if deps.Config.PauseGrace == 0 {
		deps.Config.PauseGrace = DefaultConfig().PauseGrace
	}
	if deps.Config.TickInterval == 0 {
		deps.Config.TickInterval = DefaultConfig().TickInterval
	}

	s := &Session{
		id:       id,
		inbox:    make(chan Msg, 64),
		state:    initial,
		version:  deps.Version,
		conns:    NewConnManager(),
		outboxes: make(map[string]*Outbox),
		store:    deps.Store,
		log:      deps.Log.With(zap.String("draft", id)),
		clock:    deps.Clock,
		roll:     deps.Roll,
		cfg:      deps.Config,
		ctx:      ctx,
		cancel:   cancel,
	}
	go s.loop()
	return s
}

// Inbox exposes the serialization point; tests and the ws layer submit here.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	ticker := s.clock.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	s.lastTick = s.clock.Now()

	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return
		case <-ticker.Chan():
			s.onTick()
		case m := <-s.inbox:
			switch msg := m.(type) {
			case Join:
				s.onJoin(msg)
			case Leave:
				s.onLeave(msg.ConnID)
			case FromClient:
				s.onAction(msg)
			case GetView:
				msg.Reply <- View{
					Version:    s.version,
					NumClients: len(s.outboxes),
					Fatal:      s.fatal,
					State:      s.state,
				}
			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) onJoin(msg Join) {
	if msg.ActorID != "" {
		if _, ok := s.state.Actors[msg.ActorID]; !ok {
			msg.Reply <- JoinReply{Err: engine.ErrForbidden}
			return
		}
	}

	var kicked string
	if msg.ActorID != "" {
		kicked = s.conns.Claim(msg.ActorID, msg.ConnID)
		if kicked != "" {
			if o := s.outboxes[kicked]; o != nil {
				o.kick()
				delete(s.outboxes, kicked)
			}
			s.log.Info("kicked stale connection",
				zap.String("actor", msg.ActorID), zap.String("conn", kicked))
		}
	}
	s.outboxes[msg.ConnID] = msg.Outbox
	msg.Outbox.sendSnapshot(Snapshot{Version: s.version, State: s.state})

	// The active turn holder coming back lifts the disconnect pause.
	if s.state.Paused && s.isActiveActor(msg.ActorID) {
		s.applyInternal(engine.Command{Type: engine.CmdResumeDraft})
	}
	msg.Reply <- JoinReply{KickedConn: kicked}
}

func (s *Session) onLeave(connID string) {
	if o := s.outboxes[connID]; o != nil {
		o.close()
		delete(s.outboxes, connID)
	}
	if actorID, ok := s.conns.Release(connID, s.clock.Now()); ok {
		s.log.Debug("actor disconnected", zap.String("actor", actorID))
	}
}

func (s *Session) onAction(msg FromClient) {
	if s.fatal {
		msg.Reply <- Result{Err: engine.ErrInvalidPhase}
		return
	}
	actorID, ok := s.conns.ActorFor(msg.ConnID)
	if !ok {
		// Spectators have no actor claim and cannot submit anything.
		msg.Reply <- Result{Err: engine.ErrForbidden}
		return
	}

	cmd := msg.Cmd
	cmd.ActorID = actorID
	if cmd.Type == engine.CmdTriggerRoll {
		cmd.ItemID = s.roll()
	}

	events, ns, err := engine.Apply(s.state, cmd)
	if err != nil {
		// Rejected actions go back to the submitter only; no broadcast.
		s.log.Debug("action rejected",
			zap.String("actor", actorID), zap.String("cmd", string(cmd.Type)), zap.Error(err))
		msg.Reply <- Result{Version: s.version, Err: err}
		return
	}
	if err := s.commit(events, ns); err != nil {
		msg.Reply <- Result{Version: s.version, Err: err}
		return
	}
	msg.Reply <- Result{Version: s.version}
}

// applyInternal runs engine commands originated by the session itself (clock
// expiry, pause, resume). Rejections here are expected races, logged only.
func (s *Session) applyInternal(cmd engine.Command) {
	events, ns, err := engine.Apply(s.state, cmd)
	if err != nil {
		s.log.Debug("internal command rejected", zap.String("cmd", string(cmd.Type)), zap.Error(err))
		return
	}
	_ = s.commit(events, ns)
}

// commit is the single write path: invariant check, durable write-ahead
// record, then broadcast. Failing any of the first two is session-fatal.
func (s *Session) commit(events []engine.Event, ns engine.State) error {
	if err := engine.CheckAccounting(ns); err != nil {
		s.failFatal("accounting invariant violated", err)
		return err
	}

	notice, _ := engine.FirstNotice(events)
	version := s.version + 1
	raw, err := json.Marshal(ns)
	if err != nil {
		s.failFatal("state marshal failed", err)
		return err
	}
	rec := store.Record{
		SessionID: s.id,
		Version:   version,
		Phase:     string(ns.Phase),
		EventType: string(notice.Type),
		State:     raw,
	}
	if err := s.store.Append(s.ctx, rec); err != nil {
		s.failFatal("write-ahead persist failed", err)
		return err
	}

	s.state = ns
	s.version = version
	s.log.Info("transition",
		zap.Int("version", version),
		zap.String("phase", string(ns.Phase)),
		zap.String("event", string(notice.Type)))
	s.broadcastSnapshot(Snapshot{
		Version:   version,
		EventType: notice.Type,
		ActorID:   notice.ActorID,
		State:     ns,
	})
	return nil
}

// failFatal freezes the session for manual recovery: the state is marked
// abandoned in memory, a terminal event reaches every viewer, and no further
// actions are accepted. Nothing is guessed or silently corrected.
func (s *Session) failFatal(reason string, err error) {
	s.log.Error("session-fatal", zap.String("reason", reason), zap.Error(err))
	s.fatal = true
	s.state.Phase = engine.PhaseAbandoned
	s.version++
	s.broadcastSnapshot(Snapshot{
		Version:   s.version,
		EventType: engine.EvtDraftAbandoned,
		State:     s.state,
	})
}

func (s *Session) onTick() {
	now := s.clock.Now()
	elapsed := now.Sub(s.lastTick).Milliseconds()
	s.lastTick = now
	if s.fatal {
		return
	}

	s.maybePause(now)

	ns, expired := engine.Tick(s.state, elapsed)
	s.state = ns
	if expired {
		s.applyInternal(engine.Command{Type: engine.CmdExpireTurn})
	}

	s.broadcastTick()
}

// maybePause flips the paused overlay when the active turn holder has been
// gone longer than the grace interval. Immediate pausing would punish brief
// network blips.
func (s *Session) maybePause(now time.Time) {
	if s.state.Phase != engine.PhaseDrafting || s.state.Paused {
		return
	}
	r, ok := s.state.ActiveRound()
	if !ok || s.conns.Live(r.ActorID) {
		return
	}
	seen, ok := s.conns.LastSeen(r.ActorID)
	if !ok || now.Sub(seen) < s.cfg.PauseGrace {
		return
	}
	s.applyInternal(engine.Command{
		Type:    engine.CmdPauseDraft,
		ActorID: r.ActorID,
		Value:   "connection lost",
	})
}

func (s *Session) isActiveActor(actorID string) bool {
	r, ok := s.state.ActiveRound()
	return ok && actorID != "" && r.ActorID == actorID
}

func (s *Session) broadcastSnapshot(snap Snapshot) {
	for id, o := range s.outboxes {
		if !o.sendSnapshot(snap) {
			// A viewer that cannot keep up with snapshots is disconnected;
			// letting it fall behind silently would desync it forever.
			o.close()
			delete(s.outboxes, id)
			s.conns.Release(id, s.clock.Now())
			s.log.Warn("dropped slow viewer", zap.String("conn", id))
		}
	}
}

func (s *Session) broadcastTick() {
	if s.state.Phase != engine.PhaseDrafting || len(s.outboxes) == 0 {
		return
	}
	reserve := make(map[string]int64, len(s.state.Actors))
	for id, a := range s.state.Actors {
		if !a.Staff {
			reserve[id] = a.ReserveMs
		}
	}
	tick := Tick{
		ActiveRound:      s.state.Active,
		GraceRemainingMs: s.state.GraceMs,
		ReserveMs:        reserve,
	}
	if r, ok := s.state.ActiveRound(); ok {
		tick.ActiveActorID = r.ActorID
	}
	for _, o := range s.outboxes {
		o.sendTick(tick)
	}
}

func (s *Session) shutdown() {
	for id, o := range s.outboxes {
		o.close()
		delete(s.outboxes, id)
	}
	s.cancel()
}
