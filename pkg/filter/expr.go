// Package filter selects plugins by JavaScript predicate or fuzzy query.
package filter

import (
	"strings"

	"github.com/dop251/goja"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/pkg/errors"
)

// Expr is a compiled boolean expression evaluated against one plugin at a
// time. The plugin fields are exposed as globals: uuid, name, group, state,
// stateName, version, description, authors. Each evaluation gets its own
// runtime, so globals assigned by the expression do not carry over.
type Expr struct {
	src  string
	prog *goja.Program
}

// Compile parses expr. An empty expression matches everything.
func Compile(expr string) (*Expr, error) {
	src := strings.TrimSpace(expr)
	if src == "" {
		src = "true"
	}
	prog, err := goja.Compile("filter", "("+src+")", true)
	if err != nil {
		return nil, errors.Wrapf(err, "compile filter %q", expr)
	}
	return &Expr{src: src, prog: prog}, nil
}

func (e *Expr) String() string { return e.src }

func (e *Expr) Match(p model.PluginSnapshot) (bool, error) {
	vm := goja.New()
	authors := make([]interface{}, 0, len(p.Authors))
	for _, a := range p.Authors {
		authors = append(authors, a)
	}
	globals := map[string]interface{}{
		"uuid":        p.UUID,
		"name":        p.Name,
		"group":       p.Group,
		"state":       int(p.State),
		"stateName":   p.State.String(),
		"version":     p.Version,
		"description": p.Description,
		"authors":     authors,
	}
	for k, v := range globals {
		if err := vm.Set(k, v); err != nil {
			return false, errors.Wrapf(err, "set %s", k)
		}
	}

	v, err := vm.RunProgram(e.prog)
	if err != nil {
		return false, errors.Wrapf(err, "evaluate filter on %s", p.UUID)
	}
	return v.ToBoolean(), nil
}

// Select keeps the plugins for which e matches, stopping at the first
// evaluation error.
func (e *Expr) Select(plugins []model.PluginSnapshot) ([]model.PluginSnapshot, error) {
	var out []model.PluginSnapshot
	for _, p := range plugins {
		ok, err := e.Match(p)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, p)
		}
	}
	return out, nil
}
