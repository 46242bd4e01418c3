package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaStep is one forward-only schema change. Steps are numbered from 1
// without gaps and the number of the last applied step is kept in
// PRAGMA user_version.
type schemaStep struct {
	version int
	name    string
	sql     string
}

// schemaSteps reads the embedded NNNN_name.sql files in version order.
func schemaSteps() ([]schemaStep, error) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}

	steps := make([]schemaStep, 0, len(files))
	for _, file := range files {
		version, name, err := splitStepName(path.Base(file))
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", file, err)
		}
		body, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return nil, err
		}
		steps = append(steps, schemaStep{version: version, name: name, sql: string(body)})
	}

	slices.SortFunc(steps, func(a, b schemaStep) int { return a.version - b.version })
	for i, s := range steps {
		if s.version != i+1 {
			return nil, fmt.Errorf("migration %04d_%s: expected version %d", s.version, s.name, i+1)
		}
	}
	return steps, nil
}

// splitStepName parses "0002_exports.sql" into 2 and "exports".
func splitStepName(base string) (int, string, error) {
	stem, ok := strings.CutSuffix(base, ".sql")
	if !ok {
		return 0, "", fmt.Errorf("missing .sql suffix")
	}
	num, name, ok := strings.Cut(stem, "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("want NNNN_name.sql")
	}
	version, err := strconv.Atoi(num)
	if err != nil || version <= 0 {
		return 0, "", fmt.Errorf("bad version %q", num)
	}
	return version, name, nil
}

// schemaVersion reports the last applied step.
func schemaVersion(ctx context.Context, conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// migrate applies every step newer than the stored version, each in its own
// transaction together with the version bump. A database written by a newer
// build is refused rather than guessed at.
func migrate(ctx context.Context, conn *sql.DB) error {
	steps, err := schemaSteps()
	if err != nil {
		return err
	}

	current, err := schemaVersion(ctx, conn)
	if err != nil {
		return err
	}
	if current > len(steps) {
		return fmt.Errorf("schema version %d is newer than this build supports (%d)", current, len(steps))
	}

	for _, s := range steps[current:] {
		log.Debug().Int("version", s.version).Str("name", s.name).Msg("applying migration")

		err := func() error {
			tx, err := conn.BeginTx(ctx, nil)
			if err != nil {
				return err
			}
			defer func() { _ = tx.Rollback() }()

			if _, err := tx.ExecContext(ctx, s.sql); err != nil {
				return err
			}
			// PRAGMA does not take bind parameters.
			if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", s.version)); err != nil {
				return err
			}
			return tx.Commit()
		}()
		if err != nil {
			return fmt.Errorf("migration %04d_%s: %w", s.version, s.name, err)
		}
	}
	return nil
}
