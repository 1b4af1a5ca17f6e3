// Package progress carries percentage/message status updates from long-running
// analyses to any number of subscribers.
package progress

import (
	"math"
	"sync"
)

// Sink receives progress updates. Retrieval and aggregation only depend on this.
type Sink interface {
	SetProgress(percent float64, message string)
}

// Discard is a Sink that drops every update.
var Discard Sink = discard{}

type discard struct{}

func (discard) SetProgress(float64, string) {}

type Update struct {
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

const initialMessage = "initializing"

// Reporter keeps the last known state and fans it out to subscribers.
// Concurrent analyses sharing a Reporter overwrite each other's state.
type Reporter struct {
	mu          sync.Mutex
	state       Update
	nextID      int
	subscribers map[int]func(Update)
}

func NewReporter() *Reporter {
	return &Reporter{
		state:       Update{Message: initialMessage},
		subscribers: make(map[int]func(Update)),
	}
}

// Subscribe registers fn and returns a function that removes it again.
// The returned function may be called any number of times.
func (r *Reporter) Subscribe(fn func(Update)) (unsubscribe func()) {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.subscribers[id] = fn
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subscribers, id)
			r.mu.Unlock()
		})
	}
}

// SetProgress clamps percent to 0..100 and rounds it. An empty message is
// derived from the percentage.
func (r *Reporter) SetProgress(percent float64, message string) {
	p := int(math.Round(math.Max(0, math.Min(100, percent))))
	if message == "" {
		message = defaultMessage(p)
	}
	r.publish(Update{Progress: p, Message: message})
}

func (r *Reporter) Reset() {
	r.publish(Update{Message: initialMessage})
}

// Snapshot returns the last published state.
func (r *Reporter) Snapshot() Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Reporter) publish(u Update) {
	r.mu.Lock()
	r.state = u
	subs := make([]func(Update), 0, len(r.subscribers))
	for _, fn := range r.subscribers {
		subs = append(subs, fn)
	}
	r.mu.Unlock()

	for _, fn := range subs {
		fn(u)
	}
}

func defaultMessage(p int) string {
	switch {
	case p < 30:
		return "retrieving orders"
	case p < 60:
		return "analyzing data"
	case p < 90:
		return "preparing report"
	default:
		return "finishing"
	}
}
