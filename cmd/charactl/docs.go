package main

import (
	"fmt"

	"github.com/go-go-golems/charactl/pkg/tui/widgets"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newDocsCmd() *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "docs UUID",
		Short: "Render a plugin's documentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.client.PluginData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p.Docs == nil || *p.Docs == "" {
				return errors.Errorf("%s has no documentation", p.Name)
			}
			body, err := e.client.PluginDocs(cmd.Context(), p.UUID, *p.Docs)
			if err != nil {
				return err
			}
			fmt.Println(widgets.RenderMarkdown(body, width))
			return nil
		},
	}
	cmd.Flags().IntVar(&width, "width", 100, "wrap width")
	return cmd
}
