package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-go-golems/charactl/pkg/api"
	"github.com/go-go-golems/charactl/pkg/config"
	"github.com/go-go-golems/charactl/pkg/logging"
	"github.com/go-go-golems/glazed/pkg/cli"
	"github.com/go-go-golems/glazed/pkg/cmds"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// env is what every subcommand needs once flags are parsed.
type env struct {
	cfg    config.Config
	client *api.Client
	closer io.Closer
}

func (e *env) Close() {
	if e.closer != nil {
		_ = e.closer.Close()
	}
}

var flags config.Flags

// setup resolves configuration and logging. Interactive commands log to a
// file so the terminal stays clean.
func setup(toFile bool) (*env, error) {
	cfg, err := config.Resolve(flags)
	if err != nil {
		return nil, err
	}
	logFile := cfg.LogFile
	if toFile && logFile == "" {
		logFile = logging.DefaultFile()
	}
	closer, err := logging.Init(cfg.LogLevel, logFile)
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(cfg.Server,
		api.WithMonitorPath(cfg.MonitorPath),
		api.WithTimeout(cfg.ActionTimeout.Duration()),
	)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	return &env{cfg: cfg, client: client, closer: closer}, nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// glazeCommands are the listing commands whose rows go through glazed, so
// --output table|json|yaml|csv and the field/sort flags apply to them.
func glazeCommands() ([]*cobra.Command, error) {
	ps, err := NewPsCommand()
	if err != nil {
		return nil, err
	}
	plugins, err := NewPluginsCommand()
	if err != nil {
		return nil, err
	}
	bots, err := NewBotsCommand()
	if err != nil {
		return nil, err
	}

	var out []*cobra.Command
	for _, c := range []cmds.GlazeCommand{ps, plugins, bots} {
		cobraCmd, err := cli.BuildCobraCommandFromCommand(c)
		if err != nil {
			return nil, errors.Wrapf(err, "build %s command", c.Description().Name)
		}
		out = append(out, cobraCmd)
	}
	return out, nil
}

func newRootCmd() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           "charactl",
		Short:         "Terminal console for a chara bot server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context())
		},
	}
	config.AddFlags(root.PersistentFlags(), &flags)

	root.AddCommand(
		newTUICmd(),
		newActionCmd("start", "Start a worker process"),
		newActionCmd("stop", "Stop a process"),
		newActionCmd("restart", "Restart a process"),
		newWatchCmd(),
		newDocsCmd(),
		newMetricsCmd(),
	)
	listing, err := glazeCommands()
	if err != nil {
		return nil, err
	}
	root.AddCommand(listing...)
	return root, nil
}

func main() {
	root, err := newRootCmd()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	ctx, cancel := signalContext(context.Background())
	err = root.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
