package main

import (
	"fmt"

	"github.com/go-go-golems/charactl/pkg/console"
	"github.com/go-go-golems/charactl/pkg/model"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newActionCmd(verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " NAME",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := model.ParseAction(verb)
			if err != nil {
				return err
			}
			e, err := setup(false)
			if err != nil {
				return err
			}
			defer e.Close()

			c := console.New(console.Options{Backend: e.client})
			if err := c.LoadProcesses(cmd.Context()); err != nil {
				return err
			}
			name := args[0]
			ok, err := c.RequestAction(cmd.Context(), name, action)
			if !ok && err == nil {
				return errors.Errorf("unknown process %q", name)
			}
			fmt.Printf("%s: %s\n", name, c.Gate.Status(name).Label)
			return err
		},
	}
}
