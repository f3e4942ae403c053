package events

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Handler func(Event)

// Result describes what Dispatch did with one message.
type Result struct {
	Event     Event
	Category  Category
	Delivered int
	Err       error
}

func (r Result) Dropped() bool { return r.Err != nil }

// Dispatcher fans decoded events out to the handlers registered for their
// category, synchronously and in registration order.
type Dispatcher struct {
	handlers map[Category][]Handler
	now      func() time.Time
	dropLog  rate.Sometimes
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		handlers: map[Category][]Handler{},
		now:      time.Now,
		dropLog:  rate.Sometimes{First: 3, Interval: 10 * time.Second},
	}
}

func (d *Dispatcher) Register(c Category, h Handler) {
	if h == nil {
		return
	}
	d.handlers[c] = append(d.handlers[c], h)
}

func (d *Dispatcher) OnProcess(h func(ProcessEvent)) {
	d.Register(CategoryProcess, func(ev Event) {
		if pe, ok := ev.(ProcessEvent); ok {
			h(pe)
		}
	})
}

func (d *Dispatcher) OnPlugin(h func(PluginEvent)) {
	d.Register(CategoryPlugin, func(ev Event) {
		if pe, ok := ev.(PluginEvent); ok {
			h(pe)
		}
	})
}

func (d *Dispatcher) Handlers(c Category) int {
	return len(d.handlers[c])
}

func (d *Dispatcher) Dispatch(raw []byte) Result {
	return d.DispatchAt(raw, d.now())
}

// DispatchAt decodes raw and delivers it. Malformed messages and unknown
// categories are dropped; the returned Result records why.
func (d *Dispatcher) DispatchAt(raw []byte, at time.Time) Result {
	ev, err := Decode(raw, at)
	if err != nil {
		d.dropLog.Do(func() {
			log.Debug().Str("component", "dispatcher").Err(err).Int("bytes", len(raw)).Msg("dropping monitor message")
		})
		return Result{Err: err}
	}
	return d.DispatchEvent(ev)
}

func (d *Dispatcher) DispatchEvent(ev Event) Result {
	res := Result{Event: ev, Category: ev.Category()}
	for _, h := range d.handlers[res.Category] {
		if err := invoke(h, ev); err != nil {
			log.Error().Str("component", "dispatcher").Str("category", string(res.Category)).Err(err).Msg("event handler failed")
			continue
		}
		res.Delivered++
	}
	return res
}

// invoke isolates one handler so a panic cannot reach the other handlers or
// the connection.
func invoke(h Handler, ev Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panic: %v", r)
		}
	}()
	h(ev)
	return nil
}
