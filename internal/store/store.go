package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = errors.New("draft record not found")

// Record is one durably persisted draft transition. The session writes a
// record ahead of broadcasting the matching snapshot, so a restart can resume
// from the last durable version without losing or duplicating a round
// resolution.
type Record struct {
	SessionID string          `gorm:"index:idx_session_version,unique,priority:1"`
	Version   int             `gorm:"index:idx_session_version,unique,priority:2"`
	Phase     string
	EventType string
	State     json.RawMessage `gorm:"type:jsonb"`
	CreatedAt time.Time
}

// Store is the persistence collaborator boundary. Implementations must make
// Append durable before returning; a returned error is session-fatal.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Latest(ctx context.Context, sessionID string) (Record, error)
}

// MemoryStore keeps records in process. Used by tests and by deployments that
// run without a database.
type MemoryStore struct {
	mu   sync.Mutex
	recs map[string][]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string][]Record)}
}

func (m *MemoryStore) Append(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec.CreatedAt = time.Now()
	m.recs[rec.SessionID] = append(m.recs[rec.SessionID], rec)
	return nil
}

func (m *MemoryStore) Latest(ctx context.Context, sessionID string) (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs := m.recs[sessionID]
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	out := make([]Record, len(recs))
	copy(out, recs)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out[len(out)-1], nil
}
