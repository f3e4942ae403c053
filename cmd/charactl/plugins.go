package main

import (
	"context"

	"github.com/go-go-golems/charactl/pkg/api"
	"github.com/go-go-golems/charactl/pkg/filter"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/go-go-golems/charactl/pkg/rows"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/cmds/parameters"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/go-go-golems/glazed/pkg/types"
	"github.com/pkg/errors"
)

type PluginsCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*PluginsCommand)(nil)

type PluginsSettings struct {
	Search string `glazed.parameter:"search"`
	Expr   string `glazed.parameter:"expr"`
}

func pluginSelectionFlags() []*parameters.ParameterDefinition {
	return []*parameters.ParameterDefinition{
		parameters.NewParameterDefinition(
			"search",
			parameters.ParameterTypeString,
			parameters.WithHelp("Fuzzy search over name, group and uuid"),
			parameters.WithDefault(""),
		),
		parameters.NewParameterDefinition(
			"expr",
			parameters.ParameterTypeString,
			parameters.WithHelp("JavaScript predicate over plugin fields"),
			parameters.WithDefault(""),
		),
	}
}

func NewPluginsCommand() (*PluginsCommand, error) {
	glazedLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "glazed layer")
	}
	return &PluginsCommand{
		CommandDescription: cmds.NewCommandDescription(
			"plugins",
			cmds.WithShort("List plugins with their state"),
			cmds.WithLong(`List plugins with their state.

--expr takes a JavaScript expression evaluated per plugin with the globals
uuid, name, group, state (0-3), stateName, version, description and authors:

  charactl plugins --expr 'state == 3 && group == "core"' --output json`),
			cmds.WithFlags(pluginSelectionFlags()...),
			cmds.WithLayersList(glazedLayer),
		),
	}, nil
}

func (c *PluginsCommand) RunIntoGlazeProcessor(ctx context.Context, parsedLayers *layers.ParsedLayers, gp middlewares.Processor) error {
	s := &PluginsSettings{}
	if err := parsedLayers.InitializeStruct(layers.DefaultSlug, s); err != nil {
		return err
	}
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.Close()

	selected, hits, err := selectPlugins(ctx, e.client, *s)
	if err != nil {
		return err
	}
	out := make([]types.Row, 0, len(selected))
	if hits != nil {
		for _, h := range hits {
			out = append(out, rows.PluginHit(h))
		}
	} else {
		for _, p := range selected {
			out = append(out, rows.Plugin(p))
		}
	}
	return rows.Emit(ctx, gp, out...)
}

// selectPlugins applies the expression first and then the fuzzy query. hits
// is nil when no query was given.
func selectPlugins(ctx context.Context, client *api.Client, s PluginsSettings) ([]model.PluginSnapshot, []filter.Hit, error) {
	pred, err := filter.Compile(s.Expr)
	if err != nil {
		return nil, nil, err
	}
	all, err := client.ListPlugins(ctx)
	if err != nil {
		return nil, nil, err
	}
	selected, err := pred.Select(all)
	if err != nil {
		return nil, nil, err
	}
	if s.Search == "" {
		return selected, nil, nil
	}
	hits := filter.Search(s.Search, selected)
	ranked := make([]model.PluginSnapshot, 0, len(hits))
	for _, h := range hits {
		ranked = append(ranked, h.Plugin)
	}
	return ranked, hits, nil
}
