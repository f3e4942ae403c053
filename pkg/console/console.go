package console

import (
	"context"
	"time"

	"github.com/go-go-golems/charactl/pkg/api"
	"github.com/go-go-golems/charactl/pkg/events"
	"github.com/go-go-golems/charactl/pkg/gate"
	"github.com/go-go-golems/charactl/pkg/metrics"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/go-go-golems/charactl/pkg/monitor"
	"github.com/go-go-golems/charactl/pkg/registry"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Backend is the request/response side of the chara web API.
type Backend interface {
	ListProcesses(ctx context.Context) (model.ProcessSet, error)
	ListPluginGroups(ctx context.Context) ([]model.PluginGroup, error)
	Do(ctx context.Context, name string, action model.Action) (api.Ack, error)
}

// Update is reported to the Observer after a push event has been applied.
type Update struct {
	Category events.Category
	At       time.Time
	Process  *registry.ProcessApplyResult
	Plugin   *registry.PluginApplyResult
}

type Options struct {
	Backend        Backend
	Dialer         monitor.Dialer
	ReconnectDelay time.Duration
	SeriesCapacity int
	// Sink receives raw monitor messages. When nil they are dispatched
	// directly on the supervisor goroutine.
	Sink    func(monitor.Message)
	OnState func(monitor.StateChange)
	// Observer is registered after the registries, so it sees applied state.
	Observer func(Update)
}

// Console is the application context: it owns the registries, the dispatcher,
// the action gate and the monitor supervisor, and wires them together.
type Console struct {
	Processes  *registry.ProcessRegistry
	Plugins    *registry.PluginRegistry
	Dispatcher *events.Dispatcher
	Gate       *gate.Gate
	Supervisor *monitor.Supervisor

	backend    Backend
	observer   func(Update)
	collecting bool
	pending    []Update
}

// Handled is the outcome of one monitor message.
type Handled struct {
	events.Result
	Updates []Update
}

func New(opts Options) *Console {
	capacity := opts.SeriesCapacity
	if capacity <= 0 {
		capacity = metrics.DefaultCapacity
	}
	c := &Console{
		Processes:  registry.NewProcessRegistry(capacity),
		Plugins:    registry.NewPluginRegistry(),
		Dispatcher: events.NewDispatcher(),
		Gate:       gate.New(),
		backend:    opts.Backend,
		observer:   opts.Observer,
	}

	c.Dispatcher.OnProcess(func(ev events.ProcessEvent) {
		res := c.Processes.Apply(ev.Set, ev.At)
		if len(res.Ignored) > 0 {
			log.Debug().Str("component", "registry").Strs("keys", res.Ignored).Msg("ignoring unknown processes")
		}
		c.emit(Update{Category: events.CategoryProcess, At: ev.At, Process: &res})
	})
	c.Dispatcher.OnPlugin(func(ev events.PluginEvent) {
		res := c.Plugins.Apply(ev.Changes)
		if len(res.Ignored) > 0 {
			log.Debug().Str("component", "registry").Strs("keys", res.Ignored).Msg("ignoring unknown plugins")
		}
		c.emit(Update{Category: events.CategoryPlugin, At: ev.At, Plugin: &res})
	})

	if opts.Dialer != nil {
		sink := opts.Sink
		if sink == nil {
			sink = func(m monitor.Message) { c.HandleMessage(m) }
		}
		c.Supervisor = monitor.NewSupervisor(monitor.Options{
			Dialer:  opts.Dialer,
			Delay:   opts.ReconnectDelay,
			Sink:    sink,
			OnState: opts.OnState,
		})
	}
	return c
}

func (c *Console) emit(u Update) {
	if c.collecting {
		c.pending = append(c.pending, u)
	}
	if c.observer != nil {
		c.observer(u)
	}
}

// HandleMessage dispatches one raw monitor message and returns what the
// registries did with it. Calls must come from a single goroutine.
func (c *Console) HandleMessage(m monitor.Message) Handled {
	c.collecting, c.pending = true, nil
	res := c.Dispatcher.DispatchAt(m.Data, m.ReceivedAt)
	h := Handled{Result: res, Updates: c.pending}
	c.collecting, c.pending = false, nil
	return h
}

// FetchProcesses and FetchPluginGroups only query the backend; the caller
// applies the result with InitProcesses / InitPlugins.
func (c *Console) FetchProcesses(ctx context.Context) (model.ProcessSet, error) {
	if c.backend == nil {
		return model.ProcessSet{}, errors.New("missing Backend")
	}
	set, err := c.backend.ListProcesses(ctx)
	if err != nil {
		return model.ProcessSet{}, errors.Wrap(err, "load processes")
	}
	return set, nil
}

func (c *Console) FetchPluginGroups(ctx context.Context) ([]model.PluginGroup, error) {
	if c.backend == nil {
		return nil, errors.New("missing Backend")
	}
	groups, err := c.backend.ListPluginGroups(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load plugins")
	}
	return groups, nil
}

// LoadProcesses fetches the initial process snapshot. A failure leaves only
// the process view uninitialized.
func (c *Console) LoadProcesses(ctx context.Context) error {
	set, err := c.FetchProcesses(ctx)
	if err != nil {
		return err
	}
	return c.InitProcesses(set, time.Now())
}

func (c *Console) InitProcesses(set model.ProcessSet, at time.Time) error {
	if err := c.Processes.Initialize(set, at); err != nil {
		return errors.Wrap(err, "initialize processes")
	}
	return nil
}

func (c *Console) LoadPlugins(ctx context.Context) error {
	groups, err := c.FetchPluginGroups(ctx)
	if err != nil {
		return err
	}
	return c.InitPlugins(groups)
}

func (c *Console) InitPlugins(groups []model.PluginGroup) error {
	if err := c.Plugins.Initialize(groups); err != nil {
		return errors.Wrap(err, "initialize plugins")
	}
	return nil
}

// BeginAction claims the gate for name. The caller must pass the ticket to
// FinishAction once RunAction returns.
func (c *Console) BeginAction(name string, action model.Action) (gate.Ticket, bool) {
	if _, ok := c.Processes.Get(name); !ok {
		return gate.Ticket{}, false
	}
	return c.Gate.Begin(name, action)
}

// RunAction issues the lifecycle request for an accepted ticket. It does not
// touch the registry; liveness only changes through push events.
func (c *Console) RunAction(ctx context.Context, t gate.Ticket) (api.Ack, error) {
	if c.backend == nil {
		return api.Ack{}, errors.New("missing Backend")
	}
	return c.backend.Do(ctx, t.Key, t.Action)
}

func (c *Console) FinishAction(t gate.Ticket, ack api.Ack, err error) {
	c.Gate.Finish(t, ack.Message, err)
	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("component", "gate").Str("key", t.Key).Str("action", string(t.Action)).Str("ack", ack.Message).Msg("action finished")
}

// RequestAction runs the whole single-flight cycle synchronously. It reports
// false when the process is unknown or already busy.
func (c *Console) RequestAction(ctx context.Context, name string, action model.Action) (bool, error) {
	t, ok := c.BeginAction(name, action)
	if !ok {
		return false, nil
	}
	ack, err := c.RunAction(ctx, t)
	c.FinishAction(t, ack, err)
	return true, err
}

// Run keeps the monitor connection alive until ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	if c.Supervisor == nil {
		return errors.New("console has no monitor dialer")
	}
	return c.Supervisor.Run(ctx)
}
