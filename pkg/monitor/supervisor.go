package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const DefaultReconnectDelay = 3 * time.Second

type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateOpen
	StateClosed
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Message is one inbound monitor message. Epoch increments on every Open, so
// consumers can tell which connection a message came from.
type Message struct {
	Epoch      uint64
	Data       []byte
	ReceivedAt time.Time
}

type StateChange struct {
	State ConnectionState
	Epoch uint64
	Err   error
	At    time.Time
}

type Options struct {
	Dialer Dialer
	// Delay between entering Closed and the next dial. Zero means DefaultReconnectDelay.
	Delay time.Duration
	// Sink receives every message in arrival order. It is the only consumer.
	Sink func(Message)
	// OnState is called on every transition, from the Run goroutine.
	OnState func(StateChange)
	// After schedules the reconnect timer; defaults to time.After.
	After func(time.Duration) <-chan time.Time
	Now   func() time.Time
}

// Supervisor keeps one monitor connection alive, redialing after a fixed delay
// whenever it closes. Retries are unbounded and never back off.
type Supervisor struct {
	opts Options

	mu       sync.Mutex
	state    ConnectionState
	epoch    uint64
	attempts int
}

func NewSupervisor(opts Options) *Supervisor {
	if opts.Delay <= 0 {
		opts.Delay = DefaultReconnectDelay
	}
	if opts.After == nil {
		opts.After = time.After
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Supervisor{opts: opts, state: StateConnecting}
}

func (s *Supervisor) State() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Supervisor) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Attempts is the number of dials made so far.
func (s *Supervisor) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Run drives the Connecting → Open → Closed cycle until ctx is cancelled.
// It never stops on its own.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.opts.Dialer == nil {
		return errors.New("missing Dialer")
	}
	if s.opts.Sink == nil {
		return errors.New("missing Sink")
	}

	for {
		s.transition(StateConnecting, nil)

		s.mu.Lock()
		s.attempts++
		s.mu.Unlock()

		conn, err := s.opts.Dialer.Dial(ctx)
		if err == nil {
			s.mu.Lock()
			s.epoch++
			epoch := s.epoch
			s.mu.Unlock()

			s.transition(StateOpen, nil)
			err = s.pump(ctx, conn, epoch)
		}

		if ctx.Err() != nil {
			s.transition(StateClosed, nil)
			return nil
		}
		s.transition(StateClosed, err)

		log.Debug().
			Str("component", "monitor").
			Dur("delay", s.opts.Delay).
			Err(err).
			Msg("monitor connection closed, scheduling reconnect")

		select {
		case <-ctx.Done():
			return nil
		case <-s.opts.After(s.opts.Delay):
		}
	}
}

func (s *Supervisor) pump(ctx context.Context, conn Conn, epoch uint64) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		data, err := conn.Read()
		if err != nil {
			// no partial recovery: drop the connection and let Run redial
			_ = conn.Close()
			return err
		}
		s.opts.Sink(Message{Epoch: epoch, Data: data, ReceivedAt: s.opts.Now()})
	}
}

func (s *Supervisor) transition(st ConnectionState, err error) {
	s.mu.Lock()
	s.state = st
	epoch := s.epoch
	s.mu.Unlock()

	if s.opts.OnState != nil {
		s.opts.OnState(StateChange{State: st, Epoch: epoch, Err: err, At: s.opts.Now()})
	}
}
