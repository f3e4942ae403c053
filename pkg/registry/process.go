package registry

import (
	"strconv"
	"sync"
	"time"

	"github.com/go-go-golems/charactl/pkg/metrics"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/pkg/errors"
)

const PIDPlaceholder = "--"

var ErrAlreadyInitialized = errors.New("registry already initialized")

type Role string

const (
	RoleMain   Role = "main"
	RoleWorker Role = "worker"
)

// ProcessView is a read-only copy of one process card's state.
type ProcessView struct {
	Name      string
	Role      Role
	Alive     bool
	PID       string
	CPU       float64
	Mem       float64
	UpdatedAt time.Time
}

// Liveness records a process whose alive flag flipped during an update.
type Liveness struct {
	Name  string
	Alive bool
}

type ProcessApplyResult struct {
	Updated     []string
	Ignored     []string
	Transitions []Liveness
}

type processWidget struct {
	view ProcessView
	cpu  *metrics.Series
	mem  *metrics.Series
}

func (w *processWidget) render(s model.ProcessSnapshot) {
	w.view.Alive = s.Alive
	if !s.Alive || s.PID == nil {
		w.view.PID = PIDPlaceholder
	} else {
		w.view.PID = strconv.Itoa(*s.PID)
	}
	w.view.CPU = s.CPUPercent()
	w.view.Mem = s.MemoryMB()
}

// ProcessRegistry maps process names to their cards. Its key set is fixed by
// Initialize; updates for other names are ignored.
type ProcessRegistry struct {
	mu          sync.RWMutex
	capacity    int
	initialized bool
	order       []string
	widgets     map[string]*processWidget
}

func NewProcessRegistry(seriesCapacity int) *ProcessRegistry {
	return &ProcessRegistry{capacity: seriesCapacity, widgets: map[string]*processWidget{}}
}

func (r *ProcessRegistry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.initialized
}

func (r *ProcessRegistry) Initialize(set model.ProcessSet, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.initialized {
		return ErrAlreadyInitialized
	}
	for i, s := range set.All() {
		if _, dup := r.widgets[s.Name]; dup {
			continue
		}
		role := RoleWorker
		if i == 0 {
			role = RoleMain
		}
		w := &processWidget{
			view: ProcessView{Name: s.Name, Role: role, UpdatedAt: at},
			cpu:  metrics.NewSeries(r.capacity),
			mem:  metrics.NewSeries(r.capacity),
		}
		w.render(s)
		r.widgets[s.Name] = w
		r.order = append(r.order, s.Name)
	}
	r.initialized = true
	return nil
}

// Apply refreshes every known process in set and appends one sample per
// series, zero for dead processes.
func (r *ProcessRegistry) Apply(set model.ProcessSet, at time.Time) ProcessApplyResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res ProcessApplyResult
	for _, s := range set.All() {
		w, ok := r.widgets[s.Name]
		if !ok {
			res.Ignored = append(res.Ignored, s.Name)
			continue
		}
		wasAlive := w.view.Alive
		w.render(s)
		w.view.UpdatedAt = at
		w.cpu.Append(at, w.view.CPU)
		w.mem.Append(at, w.view.Mem)
		res.Updated = append(res.Updated, s.Name)
		if wasAlive != w.view.Alive {
			res.Transitions = append(res.Transitions, Liveness{Name: s.Name, Alive: w.view.Alive})
		}
	}
	return res
}

func (r *ProcessRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *ProcessRegistry) Get(name string) (ProcessView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.widgets[name]
	if !ok {
		return ProcessView{}, false
	}
	return w.view, true
}

// Views returns the cards in creation order: main first, then workers.
func (r *ProcessRegistry) Views() []ProcessView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ProcessView, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.widgets[name].view)
	}
	return out
}

// History returns the CPU and memory samples of name within window before now.
func (r *ProcessRegistry) History(name string, now time.Time, window time.Duration) (cpu, mem []metrics.Point) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.widgets[name]
	if !ok {
		return nil, nil
	}
	return w.cpu.Window(now, window), w.mem.Window(now, window)
}
