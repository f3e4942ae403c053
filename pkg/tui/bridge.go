package tui

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/charactl/pkg/monitor"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NewBus returns the in-process pub/sub that carries monitor traffic from the
// supervisor goroutine to the bubbletea program. Publishing blocks until the
// forwarder acks, which keeps frames in arrival order.
func NewBus(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            256,
		BlockPublishUntilSubscriberAck: true,
	}, logger)
}

// Bridge publishes supervisor output onto TopicMonitor.
type Bridge struct {
	Pub message.Publisher
}

func (b Bridge) PublishFrame(m monitor.Message) error {
	return b.publish(DomainTypeMonitorFrame, MonitorFrame{Epoch: m.Epoch, Data: m.Data, ReceivedAt: m.ReceivedAt})
}

func (b Bridge) PublishState(sc monitor.StateChange) error {
	ev := ConnectionEvent{State: sc.State.String(), Epoch: sc.Epoch, At: sc.At}
	if sc.Err != nil {
		ev.Error = sc.Err.Error()
	}
	return b.publish(DomainTypeConnectionState, ev)
}

// Sink and OnState adapt the publishers to the supervisor callbacks.
func (b Bridge) Sink(m monitor.Message) {
	if err := b.PublishFrame(m); err != nil {
		log.Warn().Err(err).Str("component", "bridge").Msg("publish frame")
	}
}

func (b Bridge) OnState(sc monitor.StateChange) {
	if err := b.PublishState(sc); err != nil {
		log.Warn().Err(err).Str("component", "bridge").Msg("publish state")
	}
}

func (b Bridge) publish(typ string, payload any) error {
	if b.Pub == nil {
		return errors.New("missing Publisher")
	}
	env, err := NewEnvelope(typ, payload)
	if err != nil {
		return err
	}
	raw, err := env.MarshalJSONBytes()
	if err != nil {
		return err
	}
	return b.Pub.Publish(TopicMonitor, message.NewMessage(watermill.NewUUID(), raw))
}

// Forwarder turns bus messages into tea.Msgs.
type Forwarder struct {
	msgs <-chan *message.Message
	send func(tea.Msg)
}

// NewForwarder subscribes immediately so nothing published after it returns
// is missed.
func NewForwarder(ctx context.Context, sub message.Subscriber, send func(tea.Msg)) (*Forwarder, error) {
	if send == nil {
		return nil, errors.New("missing send")
	}
	msgs, err := sub.Subscribe(ctx, TopicMonitor)
	if err != nil {
		return nil, errors.Wrap(err, "subscribe monitor topic")
	}
	return &Forwarder{msgs: msgs, send: send}, nil
}

func (f *Forwarder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-f.msgs:
			if !ok {
				return nil
			}
			if tm, err := ToTeaMsg(msg.Payload); err != nil {
				log.Debug().Err(err).Str("component", "bridge").Msg("dropping bus message")
			} else {
				f.send(tm)
			}
			msg.Ack()
		}
	}
}

// ToTeaMsg decodes one bus payload.
func ToTeaMsg(raw []byte) (tea.Msg, error) {
	env, err := ParseEnvelope(raw)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case DomainTypeMonitorFrame:
		var fr MonitorFrame
		if err := unmarshalPayload(env, &fr); err != nil {
			return nil, err
		}
		return MonitorFrameMsg{Frame: fr}, nil
	case DomainTypeConnectionState:
		var ev ConnectionEvent
		if err := unmarshalPayload(env, &ev); err != nil {
			return nil, err
		}
		return ConnectionStateMsg{Event: ev}, nil
	case UITypeEventAppend:
		var e EventLogEntry
		if err := unmarshalPayload(env, &e); err != nil {
			return nil, err
		}
		return EventLogAppendMsg{Entry: e}, nil
	}
	return nil, errors.Errorf("unknown envelope type %q", env.Type)
}
