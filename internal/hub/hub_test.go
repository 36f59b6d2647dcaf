package hub

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kettleofketchup/DraftForge-sub000/internal/engine"
	"github.com/kettleofketchup/DraftForge-sub000/internal/session"
	"github.com/kettleofketchup/DraftForge-sub000/internal/store"
)

func testState(t *testing.T) engine.State {
	t.Helper()
	s, err := engine.NewState(engine.Definition{
		Mode: engine.ModeCaptains,
		Pool: []int{1, 2, 3},
		Actors: []engine.Actor{
			{ID: "alice"},
			{ID: "bob"},
		},
	})
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s
}

func recvSession(t *testing.T, reply chan *session.Session) *session.Session {
	t.Helper()
	select {
	case s := <-reply:
		return s
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for hub reply")
		return nil
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := NewHub(context.Background(), Deps{})
	defer func() { h.Inbox() <- ShutdownHub{} }()
	reply := make(chan *session.Session, 1)

	h.Inbox() <- CreateSession{Code: "ZED123", State: testState(t), Reply: reply}
	s1 := recvSession(t, reply)

	h.Inbox() <- GetSession{Code: "ZED123", Reply: reply}
	s2 := recvSession(t, reply)

	if s1 == nil || s2 == nil || s1 != s2 {
		t.Fatalf("expected same session pointer")
	}
}

func TestHub_GetUnknownCode(t *testing.T) {
	h := NewHub(context.Background(), Deps{})
	defer func() { h.Inbox() <- ShutdownHub{} }()
	reply := make(chan *session.Session, 1)

	h.Inbox() <- GetSession{Code: "NOPE", Reply: reply}
	if s := recvSession(t, reply); s != nil {
		t.Fatalf("unknown code should resolve to nil")
	}
}

func TestHub_ResumeFromStore(t *testing.T) {
	mem := store.NewMemoryStore()
	st := testState(t)
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := mem.Append(context.Background(), store.Record{
		SessionID: "OLD001",
		Version:   7,
		Phase:     string(st.Phase),
		State:     raw,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	h := NewHub(context.Background(), Deps{Store: mem})
	defer func() { h.Inbox() <- ShutdownHub{} }()
	reply := make(chan *session.Session, 1)

	h.Inbox() <- GetSession{Code: "OLD001", Reply: reply}
	s := recvSession(t, reply)
	if s == nil {
		t.Fatalf("stored session should be rehydrated")
	}

	// Continues the version sequence instead of restarting from zero.
	view := make(chan session.View, 1)
	s.Inbox() <- session.GetView{Reply: view}
	v := <-view
	if v.Version != 7 {
		t.Fatalf("resumed version = %d, want 7", v.Version)
	}
}

// outageStore simulates a database that is down, which must read as an error,
// not as "draft not found".
type outageStore struct{}

func (outageStore) Append(context.Context, store.Record) error {
	return errors.New("dial tcp: connection refused")
}

func (outageStore) Latest(context.Context, string) (store.Record, error) {
	return store.Record{}, errors.New("dial tcp: connection refused")
}

func TestHub_StoreOutageResolvesNil(t *testing.T) {
	h := NewHub(context.Background(), Deps{Store: outageStore{}})
	defer func() { h.Inbox() <- ShutdownHub{} }()
	reply := make(chan *session.Session, 1)

	h.Inbox() <- GetSession{Code: "ANY001", Reply: reply}
	if s := recvSession(t, reply); s != nil {
		t.Fatalf("store outage must not produce a session")
	}
}

func TestHub_TerminalDraftNotRehydrated(t *testing.T) {
	mem := store.NewMemoryStore()
	st := testState(t)
	st.Phase = engine.PhaseCompleted
	raw, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for code, phase := range map[string]engine.Phase{
		"DONE01": engine.PhaseCompleted,
		"GONE01": engine.PhaseAbandoned,
	} {
		if err := mem.Append(context.Background(), store.Record{
			SessionID: code,
			Version:   12,
			Phase:     string(phase),
			State:     raw,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	h := NewHub(context.Background(), Deps{Store: mem})
	defer func() { h.Inbox() <- ShutdownHub{} }()
	reply := make(chan *session.Session, 1)

	for _, code := range []string{"DONE01", "GONE01"} {
		h.Inbox() <- GetSession{Code: code, Reply: reply}
		if s := recvSession(t, reply); s != nil {
			t.Fatalf("%s: finished draft must not come back as a live session", code)
		}
	}
}
