package tui

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Envelope is the bus wire format: a type tag plus a JSON payload.
type Envelope struct {
	Type    string          `json:"type"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

func NewEnvelope(typ string, payload any) (Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, errors.Wrapf(err, "marshal %s payload", typ)
	}
	return Envelope{Type: typ, At: time.Now(), Payload: b}, nil
}

func (e Envelope) MarshalJSONBytes() ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "marshal envelope")
	}
	return b, nil
}

func ParseEnvelope(b []byte) (Envelope, error) {
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, errors.Wrap(err, "unmarshal envelope")
	}
	if e.Type == "" {
		return Envelope{}, errors.New("envelope has no type")
	}
	return e, nil
}

func unmarshalPayload(env Envelope, out any) error {
	if err := json.Unmarshal(env.Payload, out); err != nil {
		return errors.Wrapf(err, "unmarshal %s payload", env.Type)
	}
	return nil
}
