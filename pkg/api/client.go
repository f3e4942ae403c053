package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/pkg/errors"
)

const DefaultTimeout = 10 * time.Second

// Ack is the server's acknowledgement of a lifecycle request. It only means
// the request was accepted, not that the process reached the target state.
type Ack struct {
	Code    int
	Message string
}

// StatusError is returned for non-2xx responses or a failing code in the
// response envelope.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "server returned " + http.StatusText(e.Status)
	}
	return e.Message
}

type envelope struct {
	Code int             `json:"code"`
	Msg  *string         `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type Client struct {
	baseURL     *url.URL
	monitorPath string
	httpClient  *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.httpClient = c }
}

func WithMonitorPath(p string) ClientOption {
	return func(cl *Client) { cl.monitorPath = p }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient.Timeout = d
		}
	}
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse server url")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Errorf("unsupported server scheme %q", u.Scheme)
	}
	c := &Client{
		baseURL:     u,
		monitorPath: "/api/monitor",
		httpClient:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// MonitorURL is the websocket endpoint of the telemetry channel.
func (c *Client) MonitorURL() string {
	u := *c.baseURL
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = path.Join(u.Path, c.monitorPath)
	return u.String()
}

func (c *Client) ListProcesses(ctx context.Context) (model.ProcessSet, error) {
	var set model.ProcessSet
	b, err := c.do(ctx, http.MethodPost, "/api/process/list")
	if err != nil {
		return set, err
	}
	if err := json.Unmarshal(b, &set); err != nil {
		return set, errors.Wrap(err, "decode process list")
	}
	return set, nil
}

func (c *Client) StartProcess(ctx context.Context, name string) (Ack, error) {
	return c.processAction(ctx, name, "start")
}

func (c *Client) CloseProcess(ctx context.Context, name string) (Ack, error) {
	return c.processAction(ctx, name, "close")
}

func (c *Client) RestartProcess(ctx context.Context, name string) (Ack, error) {
	return c.processAction(ctx, name, "restart")
}

// Do issues the request matching a lifecycle action.
func (c *Client) Do(ctx context.Context, name string, action model.Action) (Ack, error) {
	switch action {
	case model.ActionStart:
		return c.StartProcess(ctx, name)
	case model.ActionStop:
		return c.CloseProcess(ctx, name)
	case model.ActionRestart:
		return c.RestartProcess(ctx, name)
	}
	return Ack{}, errors.Errorf("unknown action %q", action)
}

func (c *Client) processAction(ctx context.Context, name, verb string) (Ack, error) {
	env, err := c.doEnvelope(ctx, http.MethodPost, "/api/process/"+url.PathEscape(name)+"/"+verb)
	if err != nil {
		return Ack{}, errors.Wrapf(err, "%s %s", verb, name)
	}
	ack := Ack{Code: env.Code}
	if env.Msg != nil {
		ack.Message = *env.Msg
	}
	return ack, nil
}

func (c *Client) ListPluginGroups(ctx context.Context) ([]model.PluginGroup, error) {
	var groups []model.PluginGroup
	if err := c.decodeData(ctx, "/api/plugin/group/list", &groups); err != nil {
		return nil, errors.Wrap(err, "list plugin groups")
	}
	return groups, nil
}

func (c *Client) ListPlugins(ctx context.Context) ([]model.PluginSnapshot, error) {
	var plugins []model.PluginSnapshot
	if err := c.decodeData(ctx, "/api/plugin/list", &plugins); err != nil {
		return nil, errors.Wrap(err, "list plugins")
	}
	return plugins, nil
}

func (c *Client) PluginData(ctx context.Context, uuid string) (model.PluginSnapshot, error) {
	var p model.PluginSnapshot
	if err := c.decodeData(ctx, "/api/plugin/"+url.PathEscape(uuid)+"/data", &p); err != nil {
		return p, errors.Wrapf(err, "plugin %s", uuid)
	}
	return p, nil
}

// PluginDocs fetches a plugin's documentation file from the static mount.
func (c *Client) PluginDocs(ctx context.Context, uuid, docsPath string) (string, error) {
	docsPath = strings.TrimLeft(strings.TrimPrefix(docsPath, "./"), "/")
	if docsPath == "" {
		return "", errors.New("plugin has no docs")
	}
	b, err := c.do(ctx, http.MethodGet, "/static/plugin/"+url.PathEscape(uuid)+"/"+docsPath)
	if err != nil {
		return "", errors.Wrapf(err, "docs for %s", uuid)
	}
	return string(b), nil
}

func (c *Client) ListBots(ctx context.Context) ([]model.BotInfo, error) {
	var bots []model.BotInfo
	if err := c.decodeData(ctx, "/api/bot/list", &bots); err != nil {
		return nil, errors.Wrap(err, "list bots")
	}
	return bots, nil
}

func (c *Client) decodeData(ctx context.Context, p string, out interface{}) error {
	env, err := c.doEnvelope(ctx, http.MethodPost, p)
	if err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(err, "decode data")
	}
	return nil
}

func (c *Client) doEnvelope(ctx context.Context, method, p string) (envelope, error) {
	var env envelope
	b, err := c.do(ctx, method, p)
	if err != nil {
		return env, err
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(b, &env); err != nil {
		return env, errors.Wrap(err, "decode response")
	}
	if env.Code >= 400 {
		se := &StatusError{Status: env.Code}
		if env.Msg != nil {
			se.Message = *env.Msg
		}
		return env, se
	}
	return env, nil
}

func (c *Client) do(ctx context.Context, method, p string) ([]byte, error) {
	target := strings.TrimRight(c.baseURL.String(), "/") + p
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", method, p)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(b, &env) == nil && env.Msg != nil {
			se.Message = *env.Msg
		} else {
			se.Message = strings.TrimSpace(string(b))
		}
		return nil, se
	}
	return b, nil
}
