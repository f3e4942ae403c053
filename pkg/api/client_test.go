package api_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-go-golems/charactl/pkg/api"
	"github.com/go-go-golems/charactl/pkg/api/apitest"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func fixture() (model.ProcessSet, []model.PluginGroup) {
	pid := 100
	cpu, mem := 1.2, 50.0
	docs := "README.md"
	return model.ProcessSet{
			Main:    model.ProcessSnapshot{Name: "main", Alive: true, PID: &pid, CPU: &cpu, Mem: &mem},
			Workers: []model.ProcessSnapshot{{Name: "workerA"}},
		}, []model.PluginGroup{
			{Name: "core", Plugins: []model.PluginSnapshot{{UUID: "x1", Name: "echo", Group: "core", State: model.PluginWorking, Docs: &docs}}},
		}
}

func TestClient_Lists(t *testing.T) {
	procs, groups := fixture()
	srv := apitest.NewServer(procs, groups)
	defer srv.Close()
	srv.SetBots([]model.BotInfo{{UIN: 42, Name: "bot", Connected: true}})

	c, err := api.NewClient(srv.URL() + "/")
	require.NoError(t, err)
	ctx := context.Background()

	set, err := c.ListProcesses(ctx)
	require.NoError(t, err)
	require.Equal(t, "main", set.Main.Name)
	require.Equal(t, 100, *set.Main.PID)
	require.Len(t, set.Workers, 1)
	require.Nil(t, set.Workers[0].PID)

	gs, err := c.ListPluginGroups(ctx)
	require.NoError(t, err)
	require.Len(t, gs, 1)
	require.Equal(t, "x1", gs[0].Plugins[0].UUID)

	flat, err := c.ListPlugins(ctx)
	require.NoError(t, err)
	require.Len(t, flat, 1)

	p, err := c.PluginData(ctx, "x1")
	require.NoError(t, err)
	require.Equal(t, "echo", p.Name)

	_, err = c.PluginData(ctx, "missing")
	require.Error(t, err)
	var se *api.StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusBadRequest, se.Status)
	require.Contains(t, err.Error(), "does not exist")

	bots, err := c.ListBots(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(42), bots[0].UIN)
}

func TestClient_Actions(t *testing.T) {
	procs, groups := fixture()
	srv := apitest.NewServer(procs, groups)
	defer srv.Close()
	srv.ActionHook = func(name, verb string) (int, string) {
		switch {
		case name == "ghost":
			return http.StatusBadRequest, "process ghost does not exist"
		case verb == "close":
			return http.StatusOK, "process already closed"
		}
		return http.StatusOK, ""
	}

	c, err := api.NewClient(srv.URL())
	require.NoError(t, err)
	ctx := context.Background()

	ack, err := c.Do(ctx, "workerA", model.ActionRestart)
	require.NoError(t, err)
	require.Equal(t, 200, ack.Code)
	require.Empty(t, ack.Message)

	ack, err = c.Do(ctx, "workerA", model.ActionStop)
	require.NoError(t, err)
	require.Equal(t, "process already closed", ack.Message)

	_, err = c.StartProcess(ctx, "ghost")
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not exist")

	require.Equal(t, []string{"restart workerA", "close workerA", "start ghost"}, srv.Calls())
}

func TestClient_Docs(t *testing.T) {
	procs, groups := fixture()
	srv := apitest.NewServer(procs, groups)
	defer srv.Close()
	srv.SetDocs("x1", "README.md", "# Echo\n")

	c, err := api.NewClient(srv.URL())
	require.NoError(t, err)

	body, err := c.PluginDocs(context.Background(), "x1", "./README.md")
	require.NoError(t, err)
	require.Equal(t, "# Echo\n", body)

	_, err = c.PluginDocs(context.Background(), "x1", "")
	require.Error(t, err)
	_, err = c.PluginDocs(context.Background(), "x1", "other.md")
	require.Error(t, err)
}

func TestClient_DocsKeepsDotDirectories(t *testing.T) {
	procs, groups := fixture()
	srv := apitest.NewServer(procs, groups)
	defer srv.Close()
	srv.SetDocs("x1", ".docs/readme.md", "hidden dir\n")
	srv.SetDocs("x1", "docs/readme.md", "wrong\n")

	c, err := api.NewClient(srv.URL())
	require.NoError(t, err)

	body, err := c.PluginDocs(context.Background(), "x1", ".docs/readme.md")
	require.NoError(t, err)
	require.Equal(t, "hidden dir\n", body)

	body, err = c.PluginDocs(context.Background(), "x1", "./.docs/readme.md")
	require.NoError(t, err)
	require.Equal(t, "hidden dir\n", body)
}

func TestClient_MonitorURL(t *testing.T) {
	c, err := api.NewClient("http://127.0.0.1:8080")
	require.NoError(t, err)
	require.Equal(t, "ws://127.0.0.1:8080/api/monitor", c.MonitorURL())

	c, err = api.NewClient("https://bots.example.com/chara", api.WithMonitorPath("/api/monitor"))
	require.NoError(t, err)
	require.Equal(t, "wss://bots.example.com/chara/api/monitor", c.MonitorURL())

	_, err = api.NewClient("ftp://example.com")
	require.Error(t, err)
}
