package tui

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/charactl/pkg/monitor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestBridge_ForwardsFramesAndStates(t *testing.T) {
	bus := NewBus(watermill.NopLogger{})
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan tea.Msg, 8)
	fwd, err := NewForwarder(ctx, bus, func(m tea.Msg) { got <- m })
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- fwd.Run(ctx) }()

	b := Bridge{Pub: bus}
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, b.PublishState(monitor.StateChange{State: monitor.StateClosed, Epoch: 1, Err: errors.New("eof"), At: at}))
	require.NoError(t, b.PublishFrame(monitor.Message{Epoch: 1, Data: []byte(`{"type":"plugin","data":[]}`), ReceivedAt: at}))

	select {
	case m := <-got:
		sm, ok := m.(ConnectionStateMsg)
		require.True(t, ok)
		require.Equal(t, "closed", sm.Event.State)
		require.Equal(t, "eof", sm.Event.Error)
	case <-time.After(2 * time.Second):
		t.Fatal("no state message")
	}
	select {
	case m := <-got:
		fm, ok := m.(MonitorFrameMsg)
		require.True(t, ok)
		require.Equal(t, uint64(1), fm.Frame.Epoch)
		require.JSONEq(t, `{"type":"plugin","data":[]}`, string(fm.Frame.Data))
		require.True(t, at.Equal(fm.Frame.ReceivedAt))
	case <-time.After(2 * time.Second):
		t.Fatal("no frame message")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestToTeaMsg_Errors(t *testing.T) {
	_, err := ToTeaMsg([]byte("nope"))
	require.Error(t, err)

	raw, err := json.Marshal(Envelope{Type: "other", Payload: json.RawMessage(`{}`)})
	require.NoError(t, err)
	_, err = ToTeaMsg(raw)
	require.Error(t, err)

	env, err := NewEnvelope(UITypeEventAppend, EventLogEntry{Text: "hello"})
	require.NoError(t, err)
	raw, err = env.MarshalJSONBytes()
	require.NoError(t, err)
	m, err := ToTeaMsg(raw)
	require.NoError(t, err)
	require.Equal(t, "hello", m.(EventLogAppendMsg).Entry.Text)
}

func TestBridge_MissingPublisher(t *testing.T) {
	require.Error(t, Bridge{}.PublishFrame(monitor.Message{}))
}
