package main

import (
	"context"
	"time"

	"github.com/go-go-golems/charactl/pkg/api"
	"github.com/go-go-golems/charactl/pkg/registry"
	"github.com/go-go-golems/charactl/pkg/rows"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/pkg/errors"
)

type PsCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*PsCommand)(nil)

func NewPsCommand() (*PsCommand, error) {
	glazedLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "glazed layer")
	}
	return &PsCommand{
		CommandDescription: cmds.NewCommandDescription(
			"ps",
			cmds.WithShort("List the main process and its workers"),
			cmds.WithLayersList(glazedLayer),
		),
	}, nil
}

func (c *PsCommand) RunIntoGlazeProcessor(ctx context.Context, parsedLayers *layers.ParsedLayers, gp middlewares.Processor) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.Close()

	views, err := processViews(ctx, e.client)
	if err != nil {
		return err
	}
	for _, v := range views {
		if err := gp.AddRow(ctx, rows.Process(v)); err != nil {
			return err
		}
	}
	return nil
}

// processViews renders one snapshot the way the console cards show it.
func processViews(ctx context.Context, client *api.Client) ([]registry.ProcessView, error) {
	set, err := client.ListProcesses(ctx)
	if err != nil {
		return nil, err
	}
	reg := registry.NewProcessRegistry(1)
	if err := reg.Initialize(set, time.Now()); err != nil {
		return nil, err
	}
	return reg.Views(), nil
}
