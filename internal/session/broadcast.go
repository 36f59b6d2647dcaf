package session

import "sync"

const (
	snapshotBuffer = 16
	tickBuffer     = 2
)

// Outbox is the bounded, non-blocking mailbox between the session actor and
// one viewer connection. Snapshot/event messages are causally ordered and
// never silently dropped: when the snapshot buffer is full the viewer is
// disconnected instead. Tick messages are idempotent, so backpressure drops
// the oldest queued tick.
type Outbox struct {
	snaps  chan Snapshot
	ticks  chan Tick
	kicked chan struct{}

	kickOnce  sync.Once
	closeOnce sync.Once
}

func NewOutbox() *Outbox {
	return &Outbox{
		snaps:  make(chan Snapshot, snapshotBuffer),
		ticks:  make(chan Tick, tickBuffer),
		kicked: make(chan struct{}),
	}
}

// Snapshots delivers state snapshots in version order. Closed when the
// session drops this connection.
func (o *Outbox) Snapshots() <-chan Snapshot { return o.snaps }

// Ticks delivers clock sync messages; any of them may be missing.
func (o *Outbox) Ticks() <-chan Tick { return o.ticks }

// Kicked is closed when a newer connection for the same actor displaced this
// one. Terminal: the transport must not auto-reconnect after it fires.
func (o *Outbox) Kicked() <-chan struct{} { return o.kicked }

// sendSnapshot is non-blocking; false means the viewer cannot keep up and
// must be disconnected, because dropping a snapshot would leave it stale
// forever.
func (o *Outbox) sendSnapshot(s Snapshot) bool {
	select {
	case o.snaps <- s:
		return true
	default:
		return false
	}
}

// sendTick drops the oldest queued tick under backpressure; a fresher tick is
// always the better one to keep.
func (o *Outbox) sendTick(t Tick) {
	for {
		select {
		case o.ticks <- t:
			return
		default:
			select {
			case <-o.ticks:
			default:
			}
		}
	}
}

func (o *Outbox) kick() {
	o.kickOnce.Do(func() { close(o.kicked) })
	o.close()
}

func (o *Outbox) close() {
	o.closeOnce.Do(func() {
		close(o.snaps)
		close(o.ticks)
	})
}
