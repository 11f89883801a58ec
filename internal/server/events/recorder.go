// Package events carries fire-and-forget notifications from chat sessions to
// the persistence layer. Emit never blocks: a full buffer drops the event.
package events

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/logging"
)

type Kind int

const (
	KindMessage Kind = iota
	KindJoined
	KindLeft
)

func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindJoined:
		return "joined"
	case KindLeft:
		return "left"
	}
	return "unknown"
}

type Event struct {
	Kind      Kind
	SessionID string
	UserID    string
	Username  string
	Text      string
	Timestamp time.Time
}

// MessageStore persists text messages.
type MessageStore interface {
	Record(ctx context.Context, userID, username, text string, at time.Time) error
}

// DefaultBufferSize is used when NewRecorder gets a non-positive size.
const DefaultBufferSize = 1024

// Recorder stores message events and logs lifecycle events on its own
// goroutine (see Run).
type Recorder struct {
	ch      chan Event
	store   MessageStore
	log     logging.Logger
	dropped atomic.Int64
}

func NewRecorder(store MessageStore, log logging.Logger, size int) *Recorder {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Recorder{
		ch:    make(chan Event, size),
		store: store,
		log:   log.With("module", "events"),
	}
}

// Emit queues e. It reports false when the buffer was full and e was dropped.
func (r *Recorder) Emit(e Event) bool {
	select {
	case r.ch <- e:
		return true
	default:
		r.dropped.Add(1)
		return false
	}
}

// Dropped returns how many events Emit has discarded.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Run consumes events until ctx is done, then handles whatever is still
// buffered and returns.
func (r *Recorder) Run(ctx context.Context) {
	for {
		select {
		case e := <-r.ch:
			r.handle(ctx, e)
		case <-ctx.Done():
			r.drain()
			return
		}
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case e := <-r.ch:
			r.handle(ctx, e)
		default:
			return
		}
	}
}

func (r *Recorder) handle(ctx context.Context, e Event) {
	switch e.Kind {
	case KindMessage:
		if r.store == nil {
			return
		}
		if err := r.store.Record(ctx, e.UserID, e.Username, e.Text, e.Timestamp); err != nil {
			r.log.Error(ctx, "unable to store message", "username", e.Username, "error", err)
		}
	default:
		r.log.Info(ctx, "user "+e.Kind.String(), "username", e.Username, "session_id", e.SessionID)
	}
}
