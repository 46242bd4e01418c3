package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/harvest/internal/commands"
	"github.com/colonyops/harvest/internal/core/config"
	"github.com/colonyops/harvest/internal/core/logging"
	"github.com/colonyops/harvest/internal/core/styles"
	"github.com/colonyops/harvest/internal/data/db"
	"github.com/colonyops/harvest/internal/data/stores"
	"github.com/colonyops/harvest/internal/harvest"
	"github.com/colonyops/harvest/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	var (
		logCloser  func()
		harvestApp = &harvest.App{}
		database   *db.DB
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "harvest",
		Usage:     "Browse the results of a data-extraction run",
		UsageText: "harvest [global options] command [command options]",
		Description: `Harvest pages through the dataset a run produced, with server-side search,
link and media previews, a per-record assistant chat, and exports.

Run 'harvest --run ID' with no command to open the interactive viewer.
Run 'harvest ls --run ID' to print a page for scripting.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("HARVEST_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/harvest.log, '-' for stderr)",
				Sources:     cli.EnvVars("HARVEST_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("HARVEST_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("HARVEST_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
			&cli.StringFlag{
				Name:        "api-url",
				Usage:       "dataset API base url (overrides api.base_url)",
				Sources:     cli.EnvVars("HARVEST_API_URL"),
				Destination: &flags.APIURL,
			},
			&cli.StringFlag{
				Name:        "token",
				Usage:       "API bearer token (overrides api.token)",
				Sources:     cli.EnvVars("HARVEST_API_TOKEN"),
				Destination: &flags.Token,
			},
			&cli.StringFlag{
				Name:        "run",
				Aliases:     []string{"r"},
				Usage:       "extraction run to view",
				Sources:     cli.EnvVars("HARVEST_RUN_ID"),
				Destination: &flags.RunID,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			// Log to a file by default; the TUI owns the terminal.
			logFile := flags.LogFile
			switch logFile {
			case "":
				logFile = filepath.Join(flags.DataDir, "harvest.log")
			case commands.StderrLogFile:
				logFile = ""
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile, logging.ContextHook{})
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			if flags.APIURL != "" {
				cfg.API.BaseURL = flags.APIURL
			}
			if flags.Token != "" {
				cfg.API.Token = flags.Token
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.TUI.Theme)
			styles.SetTheme(palette)

			if cfg.Database.History {
				database, err = openDatabase(cfg)
				if err != nil {
					return ctx, fmt.Errorf("open database: %w", err)
				}
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*harvestApp = *harvest.NewApp(cfg, database)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			// Close database connection
			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	tuiCmd := commands.NewTuiCmd(flags, harvestApp)

	app = commands.NewLsCmd(flags, harvestApp).Register(app)
	app = commands.NewExportCmd(flags, harvestApp).Register(app)
	app = commands.NewHistoryCmd(flags, harvestApp).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	// Set TUI as default action when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'harvest --help' for usage", c.Args().First())
		}
		return tuiCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}

// openDatabase opens the history database, moving a corrupted file aside and
// starting fresh when needed.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeoutDuration(),
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	backup, recoverErr := stores.RecoverFromCorruption(cfg.DataDir)
	if recoverErr != nil {
		return nil, errors.Join(err, recoverErr)
	}
	log.Warn().Err(err).Str("backup", backup).Msg("database corrupted, starting a new one")
	return db.Open(cfg.DataDir, opts)
}
