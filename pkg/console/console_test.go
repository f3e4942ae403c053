package console

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-go-golems/charactl/pkg/api"
	"github.com/go-go-golems/charactl/pkg/api/apitest"
	"github.com/go-go-golems/charactl/pkg/events"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/go-go-golems/charactl/pkg/monitor"
	"github.com/go-go-golems/charactl/pkg/registry"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

type fakeBackend struct {
	mu      sync.Mutex
	set     model.ProcessSet
	groups  []model.PluginGroup
	listErr error
	calls   []string
	release chan struct{}
}

func (b *fakeBackend) ListProcesses(ctx context.Context) (model.ProcessSet, error) {
	return b.set, b.listErr
}

func (b *fakeBackend) ListPluginGroups(ctx context.Context) ([]model.PluginGroup, error) {
	return b.groups, nil
}

func (b *fakeBackend) Do(ctx context.Context, name string, action model.Action) (api.Ack, error) {
	b.mu.Lock()
	b.calls = append(b.calls, string(action)+" "+name)
	release := b.release
	b.mu.Unlock()
	if release != nil {
		<-release
	}
	return api.Ack{Code: 200}, nil
}

func (b *fakeBackend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string{}, b.calls...)
}

func processSet() model.ProcessSet {
	return model.ProcessSet{
		Main: model.ProcessSnapshot{Name: "main", Alive: true, PID: intp(100), CPU: floatp(1.2), Mem: floatp(50)},
		Workers: []model.ProcessSnapshot{
			{Name: "workerA", Alive: true, PID: intp(101), CPU: floatp(0.1), Mem: floatp(30)},
		},
	}
}

func pluginGroups() []model.PluginGroup {
	return []model.PluginGroup{{Name: "core", Plugins: []model.PluginSnapshot{
		{UUID: "x1", Name: "echo"},
		{UUID: "x2", Name: "help", State: model.PluginWorking},
	}}}
}

func TestConsole_DeadProcessBlanked(t *testing.T) {
	c := New(Options{Backend: &fakeBackend{}})
	require.NoError(t, c.InitProcesses(model.ProcessSet{
		Main: model.ProcessSnapshot{Name: "main", Alive: true, PID: intp(100), CPU: floatp(1.2), Mem: floatp(50)},
	}, time.Now()))

	res := c.Dispatcher.Dispatch([]byte(`{"type":"process","data":{"main":{"name":"main","alive":false,"pid":100,"cpu":1.2,"mem":50},"workers":[]}}`))
	require.NoError(t, res.Err)

	v, ok := c.Processes.Get("main")
	require.True(t, ok)
	require.Equal(t, "--", v.PID)
	require.Zero(t, v.CPU)
	require.Zero(t, v.Mem)
}

func TestConsole_PluginStateUpdate(t *testing.T) {
	c := New(Options{Backend: &fakeBackend{}})
	require.NoError(t, c.InitPlugins(pluginGroups()))

	res := c.Dispatcher.Dispatch([]byte(`{"type":"plugin","data":[{"uuid":"x1","state":2}]}`))
	require.NoError(t, res.Err)

	x1, _ := c.Plugins.Get("x1")
	require.Equal(t, model.PluginPartWorking, x1.State)
	x2, _ := c.Plugins.Get("x2")
	require.Equal(t, model.PluginWorking, x2.State)
}

func TestConsole_UnknownCategoryChangesNothing(t *testing.T) {
	c := New(Options{Backend: &fakeBackend{}})
	require.NoError(t, c.InitProcesses(processSet(), time.Now()))
	require.NoError(t, c.InitPlugins(pluginGroups()))
	beforeP := c.Processes.Views()
	beforeG := c.Plugins.Groups()

	require.NotPanics(t, func() {
		res := c.Dispatcher.Dispatch([]byte(`{"type":"bot","data":{}}`))
		require.True(t, errors.Is(res.Err, events.ErrUnknownCategory))
	})
	require.Equal(t, beforeP, c.Processes.Views())
	require.Equal(t, beforeG, c.Plugins.Groups())
}

func TestConsole_RestartSingleFlight(t *testing.T) {
	b := &fakeBackend{release: make(chan struct{})}
	c := New(Options{Backend: b})
	require.NoError(t, c.InitProcesses(processSet(), time.Now()))

	first := make(chan bool)
	go func() {
		ok, _ := c.RequestAction(context.Background(), "workerA", model.ActionRestart)
		first <- ok
	}()
	require.Eventually(t, func() bool { return c.Gate.Busy("workerA") }, time.Second, 5*time.Millisecond)
	busy := c.Gate.Status("workerA")

	ok, err := c.RequestAction(context.Background(), "workerA", model.ActionRestart)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, busy, c.Gate.Status("workerA"))

	close(b.release)
	require.True(t, <-first)
	require.Equal(t, []string{"restart workerA"}, b.Calls())
	require.Equal(t, "restart requested", c.Gate.Status("workerA").Label)

	// the ack does not change liveness
	v, _ := c.Processes.Get("workerA")
	require.True(t, v.Alive)
	require.Equal(t, "101", v.PID)

	ok, _ = c.RequestAction(context.Background(), "ghost", model.ActionStart)
	require.False(t, ok)
}

func TestConsole_SnapshotFailureIsolated(t *testing.T) {
	b := &fakeBackend{listErr: errors.New("boom"), groups: pluginGroups()}
	c := New(Options{Backend: b})

	require.Error(t, c.LoadProcesses(context.Background()))
	require.NoError(t, c.LoadPlugins(context.Background()))
	require.False(t, c.Processes.Initialized())
	require.True(t, c.Plugins.Initialized())

	res := c.Dispatcher.Dispatch([]byte(`{"type":"plugin","data":[{"uuid":"x2","state":3}]}`))
	require.NoError(t, res.Err)
	x2, _ := c.Plugins.Get("x2")
	require.Equal(t, model.PluginNotWorking, x2.State)
}

func TestConsole_ObserverSeesAppliedState(t *testing.T) {
	var updates []Update
	c := New(Options{Backend: &fakeBackend{}, Observer: func(u Update) { updates = append(updates, u) }})
	require.NoError(t, c.InitProcesses(processSet(), time.Now()))

	set := processSet()
	set.Workers[0].Alive = false
	raw, err := events.Encode(events.ProcessEvent{Set: set})
	require.NoError(t, err)
	c.Dispatcher.Dispatch(raw)

	require.Len(t, updates, 1)
	require.Equal(t, events.CategoryProcess, updates[0].Category)
	require.Equal(t, []registry.Liveness{{Name: "workerA", Alive: false}}, updates[0].Process.Transitions)
}

func TestConsole_LiveMonitorAgainstServer(t *testing.T) {
	srv := apitest.NewServer(processSet(), pluginGroups())
	defer srv.Close()

	client, err := api.NewClient(srv.URL())
	require.NoError(t, err)

	c := New(Options{
		Backend:        client,
		Dialer:         monitor.WSDialer{URL: client.MonitorURL()},
		ReconnectDelay: 20 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, c.LoadProcesses(ctx))
	require.NoError(t, c.LoadPlugins(ctx))

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	<-srv.Joined()

	srv.Push([]byte(`{"type":"plugin","data":[{"uuid":"x1","state":1}]}`))
	require.Eventually(t, func() bool {
		x1, _ := c.Plugins.Get("x1")
		return x1.State == model.PluginWorking
	}, 2*time.Second, 10*time.Millisecond)

	srv.DropMonitors()
	select {
	case <-srv.Joined():
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not reconnect")
	}
	require.Equal(t, uint64(2), waitEpoch(t, c, 2))

	srv.Push([]byte(`{"type":"process","data":{"main":{"name":"main","alive":true,"pid":100,"cpu":9,"mem":60},"workers":[{"name":"workerA","alive":false,"pid":null,"cpu":null,"mem":null}]}}`))
	require.Eventually(t, func() bool {
		v, _ := c.Processes.Get("workerA")
		return !v.Alive
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func waitEpoch(t *testing.T, c *Console, want uint64) uint64 {
	t.Helper()
	require.Eventually(t, func() bool { return c.Supervisor.Epoch() >= want }, 2*time.Second, 5*time.Millisecond)
	return c.Supervisor.Epoch()
}

func TestConsole_HandleMessageReportsUpdates(t *testing.T) {
	c := New(Options{Backend: &fakeBackend{}})
	require.NoError(t, c.InitPlugins(pluginGroups()))

	h := c.HandleMessage(monitor.Message{Data: []byte(`{"type":"plugin","data":[{"uuid":"x2","state":3},{"uuid":"ghost","state":1}]}`), ReceivedAt: time.Now()})
	require.NoError(t, h.Err)
	require.Len(t, h.Updates, 1)
	require.Equal(t, []registry.PluginChange{{UUID: "x2", From: model.PluginWorking, To: model.PluginNotWorking}}, h.Updates[0].Plugin.Changed)
	require.Equal(t, []string{"ghost"}, h.Updates[0].Plugin.Ignored)

	h = c.HandleMessage(monitor.Message{Data: []byte(`{"type":"bot","data":{}}`)})
	require.True(t, h.Dropped())
	require.Empty(t, h.Updates)
}
