package model

import (
	"fmt"

	"github.com/pkg/errors"
)

// ProcessSnapshot is the per-process status record reported by the server.
// PID, CPU and Mem are nil while the process is not alive.
type ProcessSnapshot struct {
	Name  string   `json:"name"`
	Alive bool     `json:"alive"`
	PID   *int     `json:"pid"`
	CPU   *float64 `json:"cpu"`
	Mem   *float64 `json:"mem"`
}

func (p ProcessSnapshot) CPUPercent() float64 {
	if !p.Alive || p.CPU == nil {
		return 0
	}
	return *p.CPU
}

func (p ProcessSnapshot) MemoryMB() float64 {
	if !p.Alive || p.Mem == nil {
		return 0
	}
	return *p.Mem
}

// ProcessSet is the full process list: the main process plus its workers.
type ProcessSet struct {
	Main    ProcessSnapshot   `json:"main"`
	Workers []ProcessSnapshot `json:"workers"`
}

// All returns main first, then workers in list order.
func (s ProcessSet) All() []ProcessSnapshot {
	out := make([]ProcessSnapshot, 0, len(s.Workers)+1)
	out = append(out, s.Main)
	out = append(out, s.Workers...)
	return out
}

type PluginState int

const (
	PluginNotImported PluginState = iota
	PluginWorking
	PluginPartWorking
	PluginNotWorking
)

func (s PluginState) String() string {
	switch s {
	case PluginNotImported:
		return "not imported"
	case PluginWorking:
		return "working"
	case PluginPartWorking:
		return "partially working"
	case PluginNotWorking:
		return "not working"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type PluginSnapshot struct {
	Index       int         `json:"index"`
	UUID        string      `json:"uuid"`
	Name        string      `json:"name"`
	Group       string      `json:"group"`
	State       PluginState `json:"state"`
	Authors     []string    `json:"authors,omitempty"`
	Version     string      `json:"version,omitempty"`
	Description string      `json:"description,omitempty"`
	Icon        *string     `json:"icon,omitempty"`
	Docs        *string     `json:"docs,omitempty"`
}

type PluginGroup struct {
	Name    string           `json:"name"`
	Plugins []PluginSnapshot `json:"plugins"`
}

// PluginStateChange is one entry of a partial plugin push event.
type PluginStateChange struct {
	UUID  string      `json:"uuid"`
	State PluginState `json:"state"`
}

type BotInfo struct {
	UIN       int64  `json:"uin"`
	Name      string `json:"name"`
	Connected bool   `json:"connected"`
}

type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionStart, ActionStop, ActionRestart:
		return Action(s), nil
	case "close":
		return ActionStop, nil
	}
	return "", errors.Errorf("unknown action %q", s)
}

// Progressive is the busy label shown while the action is in flight.
func (a Action) Progressive() string {
	switch a {
	case ActionStart:
		return "starting…"
	case ActionStop:
		return "stopping…"
	case ActionRestart:
		return "restarting…"
	default:
		return string(a) + "…"
	}
}
