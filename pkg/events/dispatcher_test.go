package events

import (
	"testing"
	"time"

	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_RegistrationOrder(t *testing.T) {
	d := NewDispatcher()
	var order []int
	for i := 1; i <= 4; i++ {
		i := i
		d.Register(CategoryPlugin, func(ev Event) { order = append(order, i) })
	}
	d.Register(CategoryProcess, func(ev Event) { t.Fatal("process handler must not see plugin events") })

	res := d.Dispatch([]byte(`{"type":"plugin","data":[{"uuid":"x1","state":2}]}`))
	require.NoError(t, res.Err)
	require.Equal(t, CategoryPlugin, res.Category)
	require.Equal(t, 4, res.Delivered)
	require.Equal(t, []int{1, 2, 3, 4}, order)

	pe, ok := res.Event.(PluginEvent)
	require.True(t, ok)
	require.Equal(t, []model.PluginStateChange{{UUID: "x1", State: model.PluginPartWorking}}, pe.Changes)
}

func TestDispatcher_UnknownCategoryDropped(t *testing.T) {
	d := NewDispatcher()
	called := false
	d.OnProcess(func(ProcessEvent) { called = true })
	d.OnPlugin(func(PluginEvent) { called = true })

	res := d.Dispatch([]byte(`{"type":"bot","data":{}}`))
	require.True(t, res.Dropped())
	require.True(t, errors.Is(res.Err, ErrUnknownCategory))
	require.False(t, called)
}

func TestDispatcher_MalformedDropped(t *testing.T) {
	d := NewDispatcher()
	called := 0
	d.Register(CategoryProcess, func(Event) { called++ })

	for _, raw := range []string{
		``,
		`not json`,
		`{"data":{}}`,
		`{"type":"process","data":[1,2]}`,
		`{"type":"process"}`,
		`{"type":"plugin","data":{"uuid":"x"}}`,
		`{"type":"plugin","data":[{"uuid":1}]}`,
	} {
		res := d.Dispatch([]byte(raw))
		require.True(t, errors.Is(res.Err, ErrMalformed), raw)
	}
	require.Zero(t, called)
}

func TestDispatcher_HandlerPanicContained(t *testing.T) {
	d := NewDispatcher()
	var seen []string
	d.OnProcess(func(ProcessEvent) { seen = append(seen, "first") })
	d.OnProcess(func(ProcessEvent) { panic("boom") })
	d.OnProcess(func(ev ProcessEvent) { seen = append(seen, ev.Set.Main.Name) })

	res := d.Dispatch([]byte(`{"type":"process","data":{"main":{"name":"main","alive":true,"pid":1,"cpu":0.5,"mem":20},"workers":[]}}`))
	require.NoError(t, res.Err)
	require.Equal(t, 2, res.Delivered)
	require.Equal(t, []string{"first", "main"}, seen)
}

func TestDecode_Timestamp(t *testing.T) {
	recv := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	ev, err := Decode([]byte(`{"type":"plugin","data":[]}`), recv)
	require.NoError(t, err)
	require.Equal(t, recv, ev.ReceivedAt())

	ev, err = Decode([]byte(`{"type":"plugin","data":[],"ts":"2024-03-05T10:00:00Z"}`), recv)
	require.NoError(t, err)
	require.Equal(t, 2024, ev.ReceivedAt().Year())
	require.Equal(t, time.March, ev.ReceivedAt().Month())

	ev, err = Decode([]byte(`{"type":"plugin","data":[],"ts":"not a time"}`), recv)
	require.NoError(t, err)
	require.Equal(t, recv, ev.ReceivedAt())
}

func TestEncode_RoundTripsThroughDispatch(t *testing.T) {
	pid := 42
	cpu := 3.5
	in := ProcessEvent{Set: model.ProcessSet{
		Main:    model.ProcessSnapshot{Name: "main", Alive: true, PID: &pid, CPU: &cpu},
		Workers: []model.ProcessSnapshot{{Name: "w1"}},
	}}
	raw, err := Encode(in)
	require.NoError(t, err)

	d := NewDispatcher()
	var got ProcessEvent
	d.OnProcess(func(ev ProcessEvent) { got = ev })
	res := d.Dispatch(raw)
	require.NoError(t, res.Err)
	require.Equal(t, "w1", got.Set.Workers[0].Name)
	require.Nil(t, got.Set.Workers[0].PID)
	require.Equal(t, 42, *got.Set.Main.PID)
}
