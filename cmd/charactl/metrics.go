package main

import (
	"os"

	"github.com/go-go-golems/charactl/pkg/export"
	"github.com/go-go-golems/charactl/pkg/registry"
	"github.com/spf13/cobra"
)

func newMetricsCmd() *cobra.Command {
	var s PluginsSettings
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print process and plugin state as Prometheus text exposition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx := cmd.Context()
			views, err := processViews(ctx, e.client)
			if err != nil {
				return err
			}
			selected, _, err := selectPlugins(ctx, e.client, s)
			if err != nil {
				return err
			}
			plugins := registry.NewPluginRegistry()
			if err := plugins.Initialize(registry.GroupPlugins(selected)); err != nil {
				return err
			}

			families := append(export.ProcessFamilies(views), export.PluginFamilies(plugins.Groups())...)
			return export.Write(os.Stdout, families...)
		},
	}
	cmd.Flags().StringVar(&s.Search, "search", "", "only plugins matching this fuzzy query")
	cmd.Flags().StringVar(&s.Expr, "expr", "", "only plugins matching this JavaScript predicate")
	return cmd
}
