package registry

import (
	"sync"

	"github.com/go-go-golems/charactl/pkg/model"
)

type PluginView struct {
	model.PluginSnapshot
}

type PluginGroupView struct {
	Name    string
	Plugins []PluginView
}

type PluginChange struct {
	UUID string
	From model.PluginState
	To   model.PluginState
}

type PluginApplyResult struct {
	Changed []PluginChange
	Ignored []string
}

// PluginRegistry holds one card per plugin uuid. Membership is fixed at
// Initialize; only State is ever updated afterwards.
type PluginRegistry struct {
	mu          sync.RWMutex
	initialized bool
	groups      []string
	members     map[string][]string
	widgets     map[string]*model.PluginSnapshot
}

func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		members: map[string][]string{},
		widgets: map[string]*model.PluginSnapshot{},
	}
}

func (r *PluginRegistry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

func (r *PluginRegistry) Initialize(groups []model.PluginGroup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return ErrAlreadyInitialized
	}
	for _, g := range groups {
		if _, seen := r.members[g.Name]; !seen {
			r.groups = append(r.groups, g.Name)
			r.members[g.Name] = nil
		}
		for _, p := range g.Plugins {
			if _, dup := r.widgets[p.UUID]; dup {
				continue
			}
			snap := clonePlugin(p)
			if snap.Group == "" {
				snap.Group = g.Name
			}
			r.widgets[p.UUID] = &snap
			r.members[g.Name] = append(r.members[g.Name], p.UUID)
		}
	}
	r.initialized = true
	return nil
}

func (r *PluginRegistry) Apply(changes []model.PluginStateChange) PluginApplyResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res PluginApplyResult
	for _, c := range changes {
		w, ok := r.widgets[c.UUID]
		if !ok {
			res.Ignored = append(res.Ignored, c.UUID)
			continue
		}
		if w.State == c.State {
			continue
		}
		res.Changed = append(res.Changed, PluginChange{UUID: c.UUID, From: w.State, To: c.State})
		w.State = c.State
	}
	return res
}

func (r *PluginRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.widgets)
}

func (r *PluginRegistry) Get(uuid string) (PluginView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.widgets[uuid]
	if !ok {
		return PluginView{}, false
	}
	return PluginView{clonePlugin(*w)}, true
}

// Groups returns groups in snapshot order, plugins within a group in snapshot order.
func (r *PluginRegistry) Groups() []PluginGroupView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PluginGroupView, 0, len(r.groups))
	for _, name := range r.groups {
		g := PluginGroupView{Name: name}
		for _, uuid := range r.members[name] {
			g.Plugins = append(g.Plugins, PluginView{clonePlugin(*r.widgets[uuid])})
		}
		out = append(out, g)
	}
	return out
}

// GroupPlugins groups a flat plugin list by Group, keeping first-seen order.
func GroupPlugins(plugins []model.PluginSnapshot) []model.PluginGroup {
	var out []model.PluginGroup
	idx := map[string]int{}
	for _, p := range plugins {
		i, ok := idx[p.Group]
		if !ok {
			i = len(out)
			idx[p.Group] = i
			out = append(out, model.PluginGroup{Name: p.Group})
		}
		out[i].Plugins = append(out[i].Plugins, p)
	}
	return out
}

func clonePlugin(p model.PluginSnapshot) model.PluginSnapshot {
	if p.Authors != nil {
		p.Authors = append([]string{}, p.Authors...)
	}
	return p
}
