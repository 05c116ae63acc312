package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/healthkey/internal/client/models"
	"github.com/dmitrijs2005/healthkey/internal/client/repositories/events"
	"github.com/dmitrijs2005/healthkey/internal/logging"
	"github.com/google/uuid"
)

// Subscriber receives published events. It runs synchronously on the
// publishing goroutine and must not block.
type Subscriber func(ctx context.Context, e models.Event)

// EventLog fans pipeline outcomes out to subscribers. The pipeline only
// publishes; the audit trail, the CLI and tests subscribe.
type EventLog struct {
	mu   sync.RWMutex
	subs map[int]Subscriber
	next int
	now  func() time.Time
}

func NewEventLog() *EventLog {
	return &EventLog{subs: make(map[int]Subscriber), now: time.Now}
}

// Subscribe registers fn and returns a function that removes it.
func (l *EventLog) Subscribe(fn Subscriber) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.next
	l.next++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// Publish stamps e with an id and time and delivers it.
func (l *EventLog) Publish(ctx context.Context, e models.Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = l.now().UTC()
	}

	l.mu.RLock()
	subs := make([]Subscriber, 0, len(l.subs))
	for _, s := range l.subs {
		subs = append(subs, s)
	}
	l.mu.RUnlock()

	for _, s := range subs {
		s(ctx, e)
	}
}

// PersistTo returns a subscriber that appends events to repo. Storage errors
// are logged; they never reach the publisher.
func PersistTo(repo events.Repository, logger logging.Logger) Subscriber {
	return func(ctx context.Context, e models.Event) {
		if err := repo.Append(context.WithoutCancel(ctx), &e); err != nil {
			logger.Error(ctx, "failed to persist event", "kind", e.Kind, "error", err)
		}
	}
}
