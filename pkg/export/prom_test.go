package export

import (
	"bytes"
	"testing"

	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/go-go-golems/charactl/pkg/registry"
	"github.com/stretchr/testify/require"
)

func TestWrite_Processes(t *testing.T) {
	views := []registry.ProcessView{
		{Name: "main", Role: registry.RoleMain, Alive: true, PID: "100", CPU: 1.5, Mem: 50},
		{Name: "workerA", Role: registry.RoleWorker, Alive: false, PID: registry.PIDPlaceholder},
	}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ProcessFamilies(views)...))
	out := buf.String()

	require.Contains(t, out, "# TYPE charactl_process_up gauge")
	require.Contains(t, out, `charactl_process_up{name="main",role="main"} 1`)
	require.Contains(t, out, `charactl_process_up{name="workerA",role="worker"} 0`)
	require.Contains(t, out, `charactl_process_cpu_percent{name="main",role="main"} 1.5`)
	require.Contains(t, out, `charactl_process_memory_mb{name="workerA",role="worker"} 0`)
}

func TestWrite_Plugins(t *testing.T) {
	groups := []registry.PluginGroupView{{Name: "core", Plugins: []registry.PluginView{
		{PluginSnapshot: model.PluginSnapshot{UUID: "x1", Name: "echo", State: model.PluginWorking}},
		{PluginSnapshot: model.PluginSnapshot{UUID: "x2", Name: "help", State: model.PluginWorking}},
	}}}
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, PluginFamilies(groups)...))
	out := buf.String()

	require.Contains(t, out, `charactl_plugin_state{group="core",name="echo",uuid="x1"} 1`)
	require.Contains(t, out, `charactl_plugins{state="working"} 2`)
}

func TestWrite_SkipsEmptyFamilies(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ProcessFamilies(nil)...))
	require.Empty(t, buf.String())
}
