package gate

import (
	"context"
	"sync"

	"github.com/go-go-golems/charactl/pkg/model"
)

const IdleLabel = "ready"

// Status is what a process card shows next to its controls.
type Status struct {
	Busy   bool
	Action model.Action
	Label  string
	Failed bool
}

// Ticket identifies one accepted action. Finishing an old ticket after a newer
// one was issued for the same key has no effect.
type Ticket struct {
	Key    string
	Action model.Action
	seq    uint64
}

// Gate allows at most one in-flight lifecycle action per process. A request
// for a busy key is rejected, never queued or coalesced.
type Gate struct {
	mu      sync.Mutex
	seq     uint64
	pending map[string]Ticket
	status  map[string]Status
	// finished holds the ticket whose outcome the status currently shows.
	finished map[string]uint64
}

func New() *Gate {
	return &Gate{
		pending:  map[string]Ticket{},
		status:   map[string]Status{},
		finished: map[string]uint64{},
	}
}

func (g *Gate) Begin(key string, action model.Action) (Ticket, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[key]; busy {
		return Ticket{}, false
	}
	g.seq++
	t := Ticket{Key: key, Action: action, seq: g.seq}
	g.pending[key] = t
	g.status[key] = Status{Busy: true, Action: action, Label: action.Progressive()}
	return t, true
}

// Finish releases the gate. ackMessage, when set, replaces the default
// success label; err selects the failure label instead.
func (g *Gate) Finish(t Ticket, ackMessage string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	cur, ok := g.pending[t.Key]
	if !ok || cur.seq != t.seq {
		return
	}
	delete(g.pending, t.Key)

	st := Status{Action: t.Action}
	switch {
	case err != nil:
		st.Failed = true
		st.Label = string(t.Action) + " failed: " + err.Error()
	case ackMessage != "":
		st.Label = ackMessage
	default:
		st.Label = string(t.Action) + " requested"
	}
	g.status[t.Key] = st
	g.finished[t.Key] = t.seq
}

// Do runs fn once under the gate. It reports false without calling fn when
// the key is already busy.
func (g *Gate) Do(ctx context.Context, key string, action model.Action, fn func(ctx context.Context) (string, error)) (bool, error) {
	t, ok := g.Begin(key, action)
	if !ok {
		return false, nil
	}
	msg, err := fn(ctx)
	g.Finish(t, msg, err)
	return true, err
}

func (g *Gate) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.pending[key]
	return ok
}

func (g *Gate) Status(key string) Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.status[key]
	if !ok {
		return Status{Label: IdleLabel}
	}
	return st
}

// Reset clears a finished status back to the neutral prompt. Busy keys are
// left alone.
func (g *Gate) Reset(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[key]; busy {
		return
	}
	delete(g.status, key)
	delete(g.finished, key)
}

// Clear returns the label to the neutral prompt if it still shows the outcome
// of t. A newer action on the same key keeps its label.
func (g *Gate) Clear(t Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.pending[t.Key]; busy {
		return
	}
	if seq, ok := g.finished[t.Key]; !ok || seq != t.seq {
		return
	}
	delete(g.status, t.Key)
	delete(g.finished, t.Key)
}
