package tui

import (
	"github.com/go-go-golems/charactl/pkg/api"
	"github.com/go-go-golems/charactl/pkg/gate"
	"github.com/go-go-golems/charactl/pkg/model"
)

type MonitorFrameMsg struct {
	Frame MonitorFrame
}

type ConnectionStateMsg struct {
	Event ConnectionEvent
}

type ProcessesLoadedMsg struct {
	Set model.ProcessSet
	Err error
}

type PluginsLoadedMsg struct {
	Groups []model.PluginGroup
	Err    error
}

type EventLogAppendMsg struct {
	Entry EventLogEntry
}

type ActionRequestMsg struct {
	Request ActionRequest
}

type ActionFinishedMsg struct {
	Ticket gate.Ticket
	Ack    api.Ack
	Err    error
}

// ActionLabelExpiredMsg asks for the outcome label of Ticket to be cleared.
type ActionLabelExpiredMsg struct {
	Ticket gate.Ticket
}

type DocsRequestMsg struct {
	Request DocsRequest
}

type DocsLoadedMsg struct {
	Request DocsRequest
	Body    string
	Err     error
}
