package registry

import (
	"testing"
	"time"

	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func alive(name string, pid int, cpu, mem float64) model.ProcessSnapshot {
	return model.ProcessSnapshot{Name: name, Alive: true, PID: intp(pid), CPU: floatp(cpu), Mem: floatp(mem)}
}

func TestProcessRegistry_DeathBlanksMetrics(t *testing.T) {
	r := NewProcessRegistry(16)
	t0 := time.Unix(100, 0)
	require.NoError(t, r.Initialize(model.ProcessSet{Main: alive("main", 100, 1.2, 50)}, t0))

	v, ok := r.Get("main")
	require.True(t, ok)
	require.Equal(t, "100", v.PID)
	require.Equal(t, 1.2, v.CPU)
	require.Equal(t, RoleMain, v.Role)

	// the server may still send stale numbers alongside alive=false
	dead := alive("main", 100, 1.2, 50)
	dead.Alive = false
	res := r.Apply(model.ProcessSet{Main: dead}, t0.Add(time.Second))
	require.Equal(t, []string{"main"}, res.Updated)
	require.Equal(t, []Liveness{{Name: "main", Alive: false}}, res.Transitions)

	v, _ = r.Get("main")
	require.False(t, v.Alive)
	require.Equal(t, PIDPlaceholder, v.PID)
	require.Zero(t, v.CPU)
	require.Zero(t, v.Mem)

	cpu, mem := r.History("main", t0.Add(time.Second), time.Minute)
	require.Len(t, cpu, 1)
	require.Zero(t, cpu[0].Value)
	require.Zero(t, mem[0].Value)
}

func TestProcessRegistry_UnknownKeysIgnored(t *testing.T) {
	r := NewProcessRegistry(16)
	t0 := time.Unix(100, 0)

	// updates before Initialize have nothing to land on
	res := r.Apply(model.ProcessSet{Main: alive("main", 1, 1, 1)}, t0)
	require.Equal(t, []string{"main"}, res.Ignored)
	require.Zero(t, r.Len())

	require.NoError(t, r.Initialize(model.ProcessSet{
		Main:    alive("main", 1, 0, 10),
		Workers: []model.ProcessSnapshot{alive("workerA", 2, 0, 10), alive("workerB", 3, 0, 10)},
	}, t0))
	require.ErrorIs(t, r.Initialize(model.ProcessSet{}, t0), ErrAlreadyInitialized)

	res = r.Apply(model.ProcessSet{
		Main:    alive("main", 1, 5, 10),
		Workers: []model.ProcessSnapshot{alive("workerZ", 9, 99, 99), alive("workerB", 3, 7, 12)},
	}, t0.Add(time.Second))
	require.Equal(t, []string{"main", "workerB"}, res.Updated)
	require.Equal(t, []string{"workerZ"}, res.Ignored)
	require.Equal(t, 3, r.Len())
	_, ok := r.Get("workerZ")
	require.False(t, ok)

	views := r.Views()
	require.Equal(t, []string{"main", "workerA", "workerB"}, []string{views[0].Name, views[1].Name, views[2].Name})
	require.Equal(t, 7.0, views[2].CPU)
	require.Equal(t, RoleWorker, views[1].Role)

	// workerA got no tick, so its history is still empty
	cpu, _ := r.History("workerA", t0.Add(time.Second), time.Minute)
	require.Empty(t, cpu)
}

func TestProcessRegistry_RestartRestoresPID(t *testing.T) {
	r := NewProcessRegistry(4)
	t0 := time.Unix(0, 0)
	require.NoError(t, r.Initialize(model.ProcessSet{Main: model.ProcessSnapshot{Name: "w"}}, t0))
	v, _ := r.Get("w")
	require.Equal(t, PIDPlaceholder, v.PID)

	res := r.Apply(model.ProcessSet{Main: alive("w", 77, 3, 4)}, t0.Add(time.Second))
	require.Equal(t, []Liveness{{Name: "w", Alive: true}}, res.Transitions)
	v, _ = r.Get("w")
	require.Equal(t, "77", v.PID)
	require.Equal(t, 4.0, v.Mem)
}

func groups() []model.PluginGroup {
	return []model.PluginGroup{
		{Name: "core", Plugins: []model.PluginSnapshot{
			{UUID: "x1", Name: "echo", Authors: []string{"a"}},
			{UUID: "x2", Name: "help", State: model.PluginWorking},
		}},
		{Name: "extra", Plugins: []model.PluginSnapshot{
			{UUID: "y1", Name: "dice", State: model.PluginWorking},
		}},
	}
}

func TestPluginRegistry_StateUpdate(t *testing.T) {
	r := NewPluginRegistry()
	require.NoError(t, r.Initialize(groups()))

	res := r.Apply([]model.PluginStateChange{{UUID: "x1", State: model.PluginPartWorking}, {UUID: "nope", State: 3}})
	require.Equal(t, []PluginChange{{UUID: "x1", From: model.PluginNotImported, To: model.PluginPartWorking}}, res.Changed)
	require.Equal(t, []string{"nope"}, res.Ignored)

	x1, ok := r.Get("x1")
	require.True(t, ok)
	require.Equal(t, model.PluginPartWorking, x1.State)
	require.Equal(t, "echo", x1.Name)
	require.Equal(t, "core", x1.Group)

	x2, _ := r.Get("x2")
	require.Equal(t, model.PluginWorking, x2.State)
	require.Equal(t, 3, r.Len())

	// unchanged state is not reported
	res = r.Apply([]model.PluginStateChange{{UUID: "x1", State: model.PluginPartWorking}})
	require.Empty(t, res.Changed)
}

func TestPluginRegistry_GroupOrderAndIsolation(t *testing.T) {
	r := NewPluginRegistry()
	require.Empty(t, r.Apply([]model.PluginStateChange{{UUID: "x1", State: 1}}).Changed)
	require.NoError(t, r.Initialize(groups()))
	require.ErrorIs(t, r.Initialize(nil), ErrAlreadyInitialized)

	gs := r.Groups()
	require.Len(t, gs, 2)
	require.Equal(t, "core", gs[0].Name)
	require.Equal(t, "x1", gs[0].Plugins[0].UUID)
	require.Equal(t, "x2", gs[0].Plugins[1].UUID)
	require.Equal(t, "y1", gs[1].Plugins[0].UUID)

	gs[0].Plugins[0].Authors[0] = "mutated"
	x1, _ := r.Get("x1")
	require.Equal(t, []string{"a"}, x1.Authors)
}

func TestGroupPlugins(t *testing.T) {
	out := GroupPlugins([]model.PluginSnapshot{
		{UUID: "1", Group: "b"},
		{UUID: "2", Group: "a"},
		{UUID: "3", Group: "b"},
	})
	require.Len(t, out, 2)
	require.Equal(t, "b", out[0].Name)
	require.Len(t, out[0].Plugins, 2)
	require.Equal(t, "a", out[1].Name)
}
