package tui

import (
	"encoding/json"
	"time"

	"github.com/go-go-golems/charactl/pkg/model"
)

// MonitorFrame is one raw monitor message carried over the bus. Data is
// kept verbatim so decoding happens on the UI goroutine.
type MonitorFrame struct {
	Epoch      uint64          `json:"epoch"`
	Data       json.RawMessage `json:"data"`
	ReceivedAt time.Time       `json:"received_at"`
}

type ConnectionEvent struct {
	State string    `json:"state"`
	Epoch uint64    `json:"epoch"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// EventKind says which part of the console an event log line came from.
type EventKind string

const (
	EventKindProcess    EventKind = "process"
	EventKindPlugin     EventKind = "plugin"
	EventKindConnection EventKind = "connection"
	EventKindAction     EventKind = "action"
	EventKindSystem     EventKind = "system"
)

// EventKinds is the display and toggle order of the event log.
var EventKinds = []EventKind{EventKindProcess, EventKindPlugin, EventKindConnection, EventKindAction, EventKindSystem}

type EventLogEntry struct {
	At    time.Time `json:"at"`
	Kind  EventKind `json:"kind"`
	Level string    `json:"level"`
	// Epoch of the monitor connection the entry was observed on; 0 before the
	// first connection opened.
	Epoch uint64 `json:"epoch"`
	Text  string `json:"text"`
}

type ActionRequest struct {
	Name   string       `json:"name"`
	Action model.Action `json:"action"`
}

type DocsRequest struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Path string `json:"path"`
}
