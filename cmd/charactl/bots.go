package main

import (
	"context"

	"github.com/go-go-golems/charactl/pkg/rows"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/go-go-golems/glazed/pkg/cmds/layers"
	"github.com/go-go-golems/glazed/pkg/middlewares"
	"github.com/go-go-golems/glazed/pkg/settings"
	"github.com/pkg/errors"
)

type BotsCommand struct {
	*cmds.CommandDescription
}

var _ cmds.GlazeCommand = (*BotsCommand)(nil)

func NewBotsCommand() (*BotsCommand, error) {
	glazedLayer, err := settings.NewGlazedParameterLayers()
	if err != nil {
		return nil, errors.Wrap(err, "glazed layer")
	}
	return &BotsCommand{
		CommandDescription: cmds.NewCommandDescription(
			"bots",
			cmds.WithShort("List bot accounts known to the server"),
			cmds.WithLayersList(glazedLayer),
		),
	}, nil
}

func (c *BotsCommand) RunIntoGlazeProcessor(ctx context.Context, parsedLayers *layers.ParsedLayers, gp middlewares.Processor) error {
	e, err := setup(false)
	if err != nil {
		return err
	}
	defer e.Close()

	bots, err := e.client.ListBots(ctx)
	if err != nil {
		return err
	}
	for _, b := range bots {
		if err := gp.AddRow(ctx, rows.Bot(b)); err != nil {
			return err
		}
	}
	return nil
}
