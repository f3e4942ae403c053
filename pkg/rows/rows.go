// Package rows turns console state into glazed rows for the list commands.
package rows

import (
	"context"

	"github.com/go-go-golems/charactl/pkg/filter"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/go-go-golems/charactl/pkg/registry"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/types"
)

func Process(v registry.ProcessView) types.Row {
	return types.NewRow(
		types.MRP("name", v.Name),
		types.MRP("role", string(v.Role)),
		types.MRP("alive", v.Alive),
		types.MRP("pid", v.PID),
		types.MRP("cpu_percent", v.CPU),
		types.MRP("memory_mb", v.Mem),
	)
}

func Plugin(p model.PluginSnapshot) types.Row {
	docs := ""
	if p.Docs != nil {
		docs = *p.Docs
	}
	return types.NewRow(
		types.MRP("uuid", p.UUID),
		types.MRP("name", p.Name),
		types.MRP("group", p.Group),
		types.MRP("state", int(p.State)),
		types.MRP("state_name", p.State.String()),
		types.MRP("version", p.Version),
		types.MRP("description", p.Description),
		types.MRP("docs", docs),
	)
}

// PluginHit is a plugin row ranked by a fuzzy query.
func PluginHit(h filter.Hit) types.Row {
	row := Plugin(h.Plugin)
	row.Set("score", h.Score)
	return row
}

func Bot(b model.BotInfo) types.Row {
	return types.NewRow(
		types.MRP("uin", b.UIN),
		types.MRP("name", b.Name),
		types.MRP("connected", b.Connected),
	)
}

// Emit feeds rows to gp in order, stopping at the first error.
func Emit(ctx context.Context, gp middlewares.Processor, rs ...types.Row) error {
	for _, r := range rs {
		if err := gp.AddRow(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
