package commands

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/harvest/internal/core/api"
	"github.com/colonyops/harvest/internal/harvest"
)

type ExportCmd struct {
	flags *Flags
	app   *harvest.App

	// flags
	format string
	outDir string
}

// NewExportCmd creates a new export command
func NewExportCmd(flags *Flags, app *harvest.App) *ExportCmd {
	return &ExportCmd{flags: flags, app: app}
}

// Register adds the export command to the application
func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Download a server-side export of a run",
		UsageText: "harvest export --run ID [--format csv|json] [--out DIR]",
		Description: `Asks the API to render the full dataset and saves it as
dataset_<run>.<format> in the export directory. The export is recorded in the
export history (see 'harvest history').`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "format",
				Aliases:     []string{"f"},
				Usage:       "export format (csv, json)",
				Value:       "csv",
				Destination: &cmd.format,
				Validator: func(s string) error {
					if !slices.Contains(api.ExportFormats, s) {
						return fmt.Errorf("format must be one of %v", api.ExportFormats)
					}
					return nil
				},
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "directory to write into (defaults to viewer.export_dir)",
				Destination: &cmd.outDir,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.outDir != "" {
		cmd.app.Config.Viewer.ExportDir = cmd.outDir
	}

	session, err := cmd.app.Open(cmd.flags.RunID)
	if err != nil {
		return err
	}
	defer session.Close()

	path, err := session.Viewer.Export(ctx, cmd.format)
	if err != nil {
		return fmt.Errorf("export %s: %w", cmd.format, err)
	}

	out := c.Root().Writer
	if info, err := os.Stat(path); err == nil {
		_, _ = fmt.Fprintf(out, "%s (%s)\n", path, humanize.Bytes(uint64(info.Size())))
		return nil
	}

	_, _ = fmt.Fprintln(out, path)
	return nil
}
