package main

import (
	"fmt"

	"github.com/go-go-golems/charactl/pkg/console"
	"github.com/go-go-golems/charactl/pkg/monitor"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the monitor channel and print every applied change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.Close()

			c := console.New(console.Options{
				Backend:        e.client,
				Dialer:         monitor.WSDialer{URL: e.client.MonitorURL()},
				ReconnectDelay: e.cfg.ReconnectDelay.Duration(),
				SeriesCapacity: e.cfg.ChartPoints,
				OnState: func(sc monitor.StateChange) {
					ev := log.Info()
					if sc.Err != nil {
						ev = log.Warn().Err(sc.Err)
					}
					ev.Str("component", "monitor").Str("state", sc.State.String()).Uint64("epoch", sc.Epoch).Msg("connection")
				},
				Observer: printUpdate,
			})

			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				if err := c.LoadProcesses(gctx); err != nil {
					log.Error().Err(err).Msg("process snapshot")
				}
				return nil
			})
			g.Go(func() error {
				if err := c.LoadPlugins(gctx); err != nil {
					log.Error().Err(err).Msg("plugin snapshot")
				}
				return nil
			})
			if err := g.Wait(); err != nil {
				return err
			}
			return c.Run(cmd.Context())
		},
	}
}

func printUpdate(u console.Update) {
	ts := u.At.Format("15:04:05")
	if u.Process != nil {
		for _, t := range u.Process.Transitions {
			state := "stopped"
			if t.Alive {
				state = "alive"
			}
			fmt.Printf("%s process %s %s\n", ts, t.Name, state)
		}
		log.Debug().Str("category", string(u.Category)).Strs("updated", u.Process.Updated).Msg("process tick")
	}
	if u.Plugin != nil {
		for _, ch := range u.Plugin.Changed {
			fmt.Printf("%s plugin %s %s -> %s\n", ts, ch.UUID, ch.From, ch.To)
		}
	}
}
