package events

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/araddon/dateparse"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/pkg/errors"
)

type Category string

const (
	CategoryProcess Category = "process"
	CategoryPlugin  Category = "plugin"
)

var (
	ErrMalformed       = errors.New("malformed event")
	ErrUnknownCategory = errors.New("unknown event category")
)

// Event is the decoded push event. The set of implementations is closed:
// ProcessEvent and PluginEvent.
type Event interface {
	Category() Category
	ReceivedAt() time.Time
	isEvent()
}

// ProcessEvent always carries the whole process set.
type ProcessEvent struct {
	At  time.Time
	Set model.ProcessSet
}

func (ProcessEvent) Category() Category      { return CategoryProcess }
func (e ProcessEvent) ReceivedAt() time.Time { return e.At }
func (ProcessEvent) isEvent()                {}

// PluginEvent carries only the plugins whose state changed.
type PluginEvent struct {
	At      time.Time
	Changes []model.PluginStateChange
}

func (PluginEvent) Category() Category      { return CategoryPlugin }
func (e PluginEvent) ReceivedAt() time.Time { return e.At }
func (PluginEvent) isEvent()                {}

type wireEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	TS   string          `json:"ts,omitempty"`
}

// Decode parses one monitor message. receivedAt is used unless the envelope
// carries its own "ts".
func Decode(raw []byte, receivedAt time.Time) (Event, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(ErrMalformed, err.Error())
	}
	if env.Type == "" {
		return nil, errors.Wrap(ErrMalformed, "missing type")
	}

	at := receivedAt
	if env.TS != "" {
		if ts, err := dateparse.ParseAny(env.TS); err == nil {
			at = ts
		}
	}

	data := bytes.TrimSpace(env.Data)
	switch Category(env.Type) {
	case CategoryProcess:
		if len(data) == 0 || data[0] != '{' {
			return nil, errors.Wrap(ErrMalformed, "process payload is not an object")
		}
		var set model.ProcessSet
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		return ProcessEvent{At: at, Set: set}, nil
	case CategoryPlugin:
		if len(data) == 0 || data[0] != '[' {
			return nil, errors.Wrap(ErrMalformed, "plugin payload is not an array")
		}
		var changes []model.PluginStateChange
		if err := json.Unmarshal(data, &changes); err != nil {
			return nil, errors.Wrap(ErrMalformed, err.Error())
		}
		return PluginEvent{At: at, Changes: changes}, nil
	default:
		return nil, errors.Wrapf(ErrUnknownCategory, "%q", env.Type)
	}
}

// Encode is the inverse of Decode.
func Encode(ev Event) ([]byte, error) {
	var data interface{}
	switch v := ev.(type) {
	case ProcessEvent:
		data = v.Set
	case PluginEvent:
		changes := v.Changes
		if changes == nil {
			changes = []model.PluginStateChange{}
		}
		data = changes
	default:
		return nil, errors.Errorf("unsupported event %T", ev)
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "marshal event payload")
	}
	out, err := json.Marshal(wireEnvelope{Type: string(ev.Category()), Data: b})
	if err != nil {
		return nil, errors.Wrap(err, "marshal event envelope")
	}
	return out, nil
}
