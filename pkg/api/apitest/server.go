// Package apitest provides an in-process fake of the chara web API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/gorilla/websocket"
)

type Server struct {
	mu        sync.Mutex
	processes model.ProcessSet
	groups    []model.PluginGroup
	bots      []model.BotInfo
	docs      map[string]string
	calls     []string
	monitors  []*websocket.Conn
	joined    chan struct{}

	// ActionHook decides the response to a lifecycle call. Nil means 200 with no message.
	ActionHook func(name, verb string) (int, string)
	// Gate, when non-nil, blocks lifecycle handlers until it is closed.
	Gate chan struct{}

	upgrader websocket.Upgrader
	HTTP     *httptest.Server
}

func NewServer(processes model.ProcessSet, groups []model.PluginGroup) *Server {
	s := &Server{
		processes: processes,
		groups:    groups,
		docs:      map[string]string{},
		joined:    make(chan struct{}, 16),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/monitor", s.handleMonitor)
	mux.HandleFunc("/api/process/list", s.handleProcessList)
	mux.HandleFunc("/api/process/", s.handleProcessAction)
	mux.HandleFunc("/api/plugin/group/list", s.handleGroupList)
	mux.HandleFunc("/api/plugin/list", s.handlePluginList)
	mux.HandleFunc("/api/plugin/", s.handlePluginData)
	mux.HandleFunc("/api/bot/list", s.handleBotList)
	mux.HandleFunc("/static/plugin/", s.handleDocs)
	s.HTTP = httptest.NewServer(mux)
	return s
}

func (s *Server) URL() string { return s.HTTP.URL }

func (s *Server) Close() {
	s.DropMonitors()
	s.HTTP.Close()
}

func (s *Server) SetBots(bots []model.BotInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots = bots
}

func (s *Server) SetDocs(uuid, path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uuid+"/"+path] = body
}

// Calls lists lifecycle requests received so far as "verb name".
func (s *Server) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.calls...)
}

// Joined receives one value per accepted monitor connection.
func (s *Server) Joined() <-chan struct{} { return s.joined }

// Push sends raw to every connected monitor client.
func (s *Server) Push(raw []byte) {
	s.mu.Lock()
	conns := append([]*websocket.Conn{}, s.monitors...)
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.WriteMessage(websocket.TextMessage, raw)
	}
}

// DropMonitors closes every monitor connection abruptly.
func (s *Server) DropMonitors() {
	s.mu.Lock()
	conns := s.monitors
	s.monitors = nil
	s.mu.Unlock()
	for _, c := range conns {
		_ = c.Close()
	}
}

func (s *Server) handleMonitor(w http.ResponseWriter, r *http.Request) {
	c, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.monitors = append(s.monitors, c)
	s.mu.Unlock()
	s.joined <- struct{}{}
	// drain client frames so close frames are processed
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleProcessList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	set := s.processes
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleProcessAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/process/"), "/")
	if len(parts) != 2 {
		http.NotFound(w, r)
		return
	}
	name, verb := parts[0], parts[1]

	s.mu.Lock()
	s.calls = append(s.calls, verb+" "+name)
	hook := s.ActionHook
	gate := s.Gate
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	code, msg := http.StatusOK, ""
	if hook != nil {
		code, msg = hook(name, verb)
	}
	s.respond(w, code, msg, nil)
}

func (s *Server) handleGroupList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	groups := s.groups
	s.mu.Unlock()
	s.respond(w, http.StatusOK, "", groups)
}

func (s *Server) handlePluginList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	var flat []model.PluginSnapshot
	for _, g := range s.groups {
		flat = append(flat, g.Plugins...)
	}
	s.mu.Unlock()
	s.respond(w, http.StatusOK, "", flat)
}

func (s *Server) handlePluginData(w http.ResponseWriter, r *http.Request) {
	uuid := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/plugin/"), "/data")
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.groups {
		for _, p := range g.Plugins {
			if p.UUID == uuid {
				s.respond(w, http.StatusOK, "", p)
				return
			}
		}
	}
	s.respond(w, http.StatusBadRequest, "plugin "+uuid+" does not exist", nil)
}

func (s *Server) handleBotList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	bots := s.bots
	s.mu.Unlock()
	s.respond(w, http.StatusOK, "", bots)
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/static/plugin/")
	s.mu.Lock()
	body, ok := s.docs[key]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte(body))
}

func (s *Server) respond(w http.ResponseWriter, code int, msg string, data interface{}) {
	body := map[string]interface{}{"code": code, "msg": nil, "data": data}
	if msg != "" {
		body["msg"] = msg
	}
	writeJSON(w, code, body)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
