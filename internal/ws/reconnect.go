package ws

import (
	"context"
	"errors"
	"time"

	"github.com/coder/websocket"
	"github.com/jonboulle/clockwork"
)

// ErrKickedElsewhere marks a close that must never be retried automatically.
var ErrKickedElsewhere = errors.New("logged in elsewhere")

// Backoff is the retry pacing for transient connection loss. Delays double
// from Base and never exceed Ceiling, so a flapping network settles into one
// dial attempt every few seconds instead of a thundering retry loop.
type Backoff struct {
	Base    time.Duration
	Ceiling time.Duration
}

func DefaultBackoff() Backoff {
	return Backoff{Base: 250 * time.Millisecond, Ceiling: 3 * time.Second}
}

func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= b.Ceiling {
			return b.Ceiling
		}
	}
	if d > b.Ceiling {
		return b.Ceiling
	}
	return d
}

// Terminal reports whether a connection error forbids automatic redial.
// A kick means the actor's seat moved to another device on purpose; dialing
// back would just kick that device in turn.
func Terminal(err error) bool {
	if errors.Is(err, ErrKickedElsewhere) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case StatusKicked, websocket.StatusNormalClosure:
		return true
	}
	return false
}

// Redial runs dial until it returns nil, a terminal error, or the context
// ends. Each failed attempt waits the backoff delay before the next.
func Redial(ctx context.Context, clock clockwork.Clock, b Backoff, dial func(context.Context) error) error {
	for attempt := 0; ; attempt++ {
		err := dial(ctx)
		if err == nil {
			return nil
		}
		if Terminal(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clock.After(b.Delay(attempt)):
		}
	}
}
