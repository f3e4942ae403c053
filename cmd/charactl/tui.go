package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-go-golems/charactl/pkg/console"
	"github.com/go-go-golems/charactl/pkg/logging"
	"github.com/go-go-golems/charactl/pkg/monitor"
	"github.com/go-go-golems/charactl/pkg/tui"
	"github.com/go-go-golems/charactl/pkg/tui/models"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newTUICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive console (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context())
		},
	}
}

func runTUI(parent context.Context) error {
	e, err := setup(true)
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	bus := tui.NewBus(logging.NewWatermillLogger(log.Logger))
	defer func() { _ = bus.Close() }()
	bridge := tui.Bridge{Pub: bus}

	c := console.New(console.Options{
		Backend:        e.client,
		Dialer:         monitor.WSDialer{URL: e.client.MonitorURL()},
		ReconnectDelay: e.cfg.ReconnectDelay.Duration(),
		SeriesCapacity: e.cfg.ChartPoints,
		Sink:           bridge.Sink,
		OnState:        bridge.OnState,
	})

	app := models.NewAppModel(models.AppOptions{
		Console:       c,
		Server:        e.cfg.Server,
		ActionTimeout: e.cfg.ActionTimeout.Duration(),
		ChartWindow:   e.cfg.ChartWindow.Duration(),
		Docs:          e.client.PluginDocs,
	})
	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))

	fwd, err := tui.NewForwarder(ctx, bus, program.Send)
	if err != nil {
		return err
	}

	log.Info().Str("component", "tui").Str("server", e.cfg.Server).Msg("starting")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fwd.Run(gctx) })
	g.Go(func() error { return c.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	})
	return g.Wait()
}
