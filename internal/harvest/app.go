// Package harvest assembles the long-lived dependencies shared by the CLI
// commands and the TUI.
package harvest

import (
	"fmt"

	"github.com/colonyops/harvest/internal/core/api"
	"github.com/colonyops/harvest/internal/core/chat"
	"github.com/colonyops/harvest/internal/core/columns"
	"github.com/colonyops/harvest/internal/core/config"
	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/history"
	"github.com/colonyops/harvest/internal/core/logging"
	"github.com/colonyops/harvest/internal/core/notify"
	"github.com/colonyops/harvest/internal/core/overlay"
	"github.com/colonyops/harvest/internal/core/query"
	"github.com/colonyops/harvest/internal/core/validate"
	"github.com/colonyops/harvest/internal/core/viewer"
	"github.com/colonyops/harvest/internal/data/db"
	"github.com/colonyops/harvest/internal/data/stores"
	tuinotify "github.com/colonyops/harvest/internal/tui/notify"
)

// App is the central entry point for all harvest operations.
// Commands and TUI consume App instead of cherry-picking raw dependencies.
type App struct {
	Config  *config.Config
	DB      *db.DB
	Bus     *tuinotify.Bus
	Exports history.Store
	// Token overrides the configured API token when set.
	Token string
}

// NewApp constructs an App. A nil database disables notification and export
// history.
func NewApp(cfg *config.Config, database *db.DB) *App {
	var (
		notes   notify.Store
		exports history.Store
	)
	if database != nil {
		notes = stores.NewNotifyStore(database, stores.DefaultNotificationRetention)
		exports = stores.NewExportStore(database)
	}

	return &App{
		Config:  cfg,
		DB:      database,
		Bus:     tuinotify.NewBus(notes),
		Exports: exports,
		Token:   cfg.API.Token,
	}
}

// Client returns an API client bound to runID.
func (a *App) Client(runID string) (*api.Client, error) {
	if runID == "" {
		return nil, dataset.Validationf("a run id is required (--run or HARVEST_RUN_ID)")
	}
	if err := validate.RunIDField("run", runID); err != nil {
		return nil, dataset.Validationf("%v", err)
	}

	logger := logging.ForRun("api", runID)
	client, err := api.New(api.Config{
		BaseURL: a.Config.API.BaseURL,
		RunID:   runID,
		Timeout: a.Config.API.Timeout,
		Tokens:  api.StaticToken(a.Token),
		Logger:  &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create api client: %w", err)
	}
	return client, nil
}

// Session is one mounted dataset view: the viewer with its controllers and
// the column visibility store the grid renders from.
type Session struct {
	Client  *api.Client
	Viewer  *viewer.Viewer
	Columns *columns.Store
}

// Close unmounts the viewer.
func (s *Session) Close() {
	s.Viewer.Close()
}

// Open mounts a dataset view of runID.
func (a *App) Open(runID string) (*Session, error) {
	client, err := a.Client(runID)
	if err != nil {
		return nil, err
	}

	queryLog := logging.ForRun("query", runID)
	chatLog := logging.ForRun("chat", runID)
	viewerLog := logging.ForRun("viewer", runID)

	q := query.New(client, query.Options{
		PageSize: a.Config.Viewer.PageSize,
		Debounce: a.Config.Viewer.SearchDebounce,
		Logger:   &queryLog,
	})
	c := chat.New(client, client, chat.Options{Logger: &chatLog})

	v := viewer.New(viewer.Options{
		RunID:            runID,
		Query:            q,
		Chat:             c,
		Exporter:         client,
		ExportDir:        a.Config.Viewer.ExportDir,
		Notifier:         a.Bus,
		History:          a.Exports,
		LinkPreviewLimit: a.Config.Viewer.LinkPreviewLimit,
		Overlay: overlay.Options{
			Gap:    a.Config.Viewer.Overlay.Gap,
			Margin: a.Config.Viewer.Overlay.Margin,
		},
		Logger: &viewerLog,
	})

	return &Session{
		Client:  client,
		Viewer:  v,
		Columns: columns.NewStore(),
	}, nil
}
