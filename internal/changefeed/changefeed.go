// Package changefeed is an in-process bus for row-level change events. A
// surface subscribes per table (optionally narrowed to one session) and
// receives asynchronous notifications whenever a mutation lands.
package changefeed

import "sync"

type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

const (
	TableSessions   = "sessions"
	TableCandidates = "candidates"
	TableVotes      = "votes"
)

// Event is one row-level change notification.
type Event struct {
	Table     string `json:"table"`
	Kind      Kind   `json:"kind"`
	SessionID string `json:"session_id"`
	Payload   any    `json:"payload,omitempty"`
}

// Subscription delivers matching events on C. Slow consumers lose events
// rather than block the publisher.
type Subscription struct {
	C         chan Event
	table     string
	sessionID string
	kinds     map[Kind]struct{}
}

func (s *Subscription) matches(evt Event) bool {
	if s.table != "" && s.table != evt.Table {
		return false
	}
	if s.sessionID != "" && s.sessionID != evt.SessionID {
		return false
	}
	if len(s.kinds) == 0 {
		return true
	}
	_, ok := s.kinds[evt.Kind]
	return ok
}

type Feed struct {
	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func New() *Feed {
	return &Feed{subs: make(map[*Subscription]struct{})}
}

// Subscribe registers a listener. Empty table or sessionID match everything;
// no kinds means all kinds.
func (f *Feed) Subscribe(table, sessionID string, kinds ...Kind) *Subscription {
	sub := &Subscription{
		C:         make(chan Event, 16),
		table:     table,
		sessionID: sessionID,
		kinds:     make(map[Kind]struct{}, len(kinds)),
	}
	for _, kind := range kinds {
		sub.kinds[kind] = struct{}{}
	}
	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

func (f *Feed) Unsubscribe(sub *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[sub]; ok {
		delete(f.subs, sub)
		close(sub.C)
	}
}

// Publish fans the event out to matching subscribers without blocking.
func (f *Feed) Publish(evt Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for sub := range f.subs {
		if !sub.matches(evt) {
			continue
		}
		select {
		case sub.C <- evt:
		default:
		}
	}
}
