package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/harvest/internal/harvest"
	"github.com/colonyops/harvest/internal/tui"
	"github.com/colonyops/harvest/pkg/utils"
)

type TuiCmd struct {
	flags *Flags
	app   *harvest.App
}

// NewTuiCmd creates a new tui command
func NewTuiCmd(flags *Flags, app *harvest.App) *TuiCmd {
	return &TuiCmd{
		flags: flags,
		app:   app,
	}
}

// Run executes the TUI. Exported for use as default command.
func (cmd *TuiCmd) Run(ctx context.Context, c *cli.Command) error {
	return cmd.run(ctx, c)
}

func (cmd *TuiCmd) run(_ context.Context, _ *cli.Command) error {
	// Logs bound for the terminal are held until the TUI releases it.
	if cmd.flags.LogFile == StderrLogFile {
		deferred := &utils.DeferredWriter{}
		prev := log.Logger
		log.Logger = log.Logger.Output(zerolog.ConsoleWriter{Out: deferred, TimeFormat: time.TimeOnly})
		defer func() {
			log.Logger = prev
			if err := deferred.Flush(os.Stderr); err != nil {
				fmt.Fprintf(os.Stderr, "flush deferred logs: %v\n", err)
			}
		}()
	}

	session, err := cmd.app.Open(cmd.flags.RunID)
	if err != nil {
		return err
	}
	defer session.Close()

	m := tui.New(cmd.app.Config, tui.Options{
		Viewer:  session.Viewer,
		Columns: session.Columns,
		Bus:     cmd.app.Bus,
	})

	if _, err := tea.NewProgram(m).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
