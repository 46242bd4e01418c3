package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/harvest/internal/core/config"
	"github.com/colonyops/harvest/internal/core/styles"
	"github.com/colonyops/harvest/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "harvest config validate [options]",
				Description: "Validates the configuration file, checking the API endpoint, key bindings and file paths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

// validationResult is the JSON output format for harvest config validate.
type validationResult struct {
	Valid    bool                       `json:"valid"`
	Error    string                     `json:"error,omitempty"`
	Warnings []config.ValidationWarning `json:"warnings,omitempty"`
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	result := validationResult{Valid: true, Warnings: cfg.Warnings()}
	if err := cfg.ValidateDeep(cmd.flags.ConfigPath); err != nil {
		result.Valid = false
		result.Error = err.Error()
	}

	out := c.Root().Writer

	if cmd.format == "json" {
		if err := iojson.Write(out, result); err != nil {
			return err
		}
	} else {
		for _, w := range result.Warnings {
			_, _ = fmt.Fprintln(out, styles.ToastHintStyle.Render(fmt.Sprintf("%s %s: %s", styles.IconWarning, w.Category, w.Message)))
			if w.Item != "" {
				_, _ = fmt.Fprintf(out, "  Item: %s\n", w.Item)
			}
		}
		if result.Error != "" {
			_, _ = fmt.Fprintln(out, styles.ChatFailedStyle.Render(fmt.Sprintf("%s %s", styles.IconError, result.Error)))
		}

		_, _ = fmt.Fprintln(out)
		if result.Valid {
			_, _ = fmt.Fprintln(out, styles.CommandStyle.Render(fmt.Sprintf("%s Configuration is valid", styles.IconCheck)))
			return nil
		}
	}

	if !result.Valid {
		return cli.Exit("", 1)
	}
	return nil
}
