// Package logging holds zerolog helpers shared by the viewer components.
package logging

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Component creates a new logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}

// ForRun returns a component logger tagged with the scrape run it serves.
func ForRun(name, runID string) zerolog.Logger {
	return log.With().Str("cmp", name).Str("run_id", runID).Logger()
}
