package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/harvest/internal/harvest"
	"github.com/colonyops/harvest/pkg/iojson"
)

type HistoryCmd struct {
	flags *Flags
	app   *harvest.App

	// flags
	limit      int
	all        bool
	jsonOutput bool
}

// NewHistoryCmd creates a new history command
func NewHistoryCmd(flags *Flags, app *harvest.App) *HistoryCmd {
	return &HistoryCmd{flags: flags, app: app}
}

// Register adds the history command to the application
func (cmd *HistoryCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "history",
		Usage:     "List previous exports",
		UsageText: "harvest history [--run ID | --all] [--limit N] [--json]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "limit",
				Usage:       "maximum number of exports to show",
				Value:       20,
				Destination: &cmd.limit,
			},
			&cli.BoolFlag{
				Name:        "all",
				Usage:       "list exports of every run",
				Destination: &cmd.all,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *HistoryCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.app.Exports == nil {
		return fmt.Errorf("export history is disabled (database.history: false)")
	}

	runID := cmd.flags.RunID
	if cmd.all {
		runID = ""
	}

	entries, err := cmd.app.Exports.List(ctx, runID, cmd.limit)
	if err != nil {
		return fmt.Errorf("list exports: %w", err)
	}

	out := c.Root().Writer

	if cmd.jsonOutput {
		return iojson.Write(out, entries)
	}

	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "No exports found\n")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tFORMAT\tSIZE\tWHEN\tPATH")
	for _, e := range entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.RunID, e.Format, humanize.Bytes(uint64(e.Bytes)), humanize.Time(e.CreatedAt), e.Path)
	}
	return w.Flush()
}
