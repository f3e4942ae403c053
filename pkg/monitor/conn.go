package monitor

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Conn is one live monitor connection. Read blocks until the next message or
// until the connection fails; after an error no further messages arrive.
type Conn interface {
	Read() ([]byte, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

type DialerFunc func(ctx context.Context) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context) (Conn, error) { return f(ctx) }

// WSDialer opens the server's monitor websocket. The channel is consumption-only:
// nothing but control frames is ever written to it.
type WSDialer struct {
	URL    string
	Header http.Header
	Dialer *websocket.Dialer
}

func (d WSDialer) Dial(ctx context.Context) (Conn, error) {
	if d.URL == "" {
		return nil, errors.New("missing monitor URL")
	}
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	c, _, err := dialer.DialContext(ctx, d.URL, d.Header)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", d.URL)
	}
	return &wsConn{c: c}, nil
}

type wsConn struct {
	c    *websocket.Conn
	once sync.Once
	err  error
}

func (w *wsConn) Read() ([]byte, error) {
	_, p, err := w.c.ReadMessage()
	if err != nil {
		return nil, errors.Wrap(err, "read monitor message")
	}
	return p, nil
}

func (w *wsConn) Close() error {
	w.once.Do(func() {
		w.err = w.c.Close()
	})
	return w.err
}
