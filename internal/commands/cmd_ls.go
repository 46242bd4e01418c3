package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/query"
	"github.com/colonyops/harvest/internal/harvest"
	"github.com/colonyops/harvest/pkg/iojson"
)

const (
	lsMaxColumns = 4
	lsCellWidth  = 32
)

type LsCmd struct {
	flags *Flags
	app   *harvest.App

	// flags
	page       int
	limit      int
	search     string
	jsonOutput bool
}

// NewLsCmd creates a new ls command
func NewLsCmd(flags *Flags, app *harvest.App) *LsCmd {
	return &LsCmd{flags: flags, app: app}
}

// Register adds the ls command to the application
func (cmd *LsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ls",
		Usage:     "List one page of a run's dataset",
		UsageText: "harvest ls --run ID [--page N] [--limit N] [--search TERM] [--json]",
		Description: `Fetches a single page of records and prints it as a table.

A search term always starts from page 1 of the filtered result; --page is then
checked against the filtered page count. Use --json for scripting.`,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:        "page",
				Usage:       "1-based page index",
				Value:       1,
				Destination: &cmd.page,
			},
			&cli.IntFlag{
				Name:        "limit",
				Usage:       "records per page (defaults to viewer.page_size)",
				Destination: &cmd.limit,
			},
			&cli.StringFlag{
				Name:        "search",
				Usage:       "server-side search term",
				Destination: &cmd.search,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the page as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *LsCmd) run(ctx context.Context, c *cli.Command) error {
	session, err := cmd.app.Open(cmd.flags.RunID)
	if err != nil {
		return err
	}
	defer session.Close()

	limit := cmd.limit
	if limit == 0 {
		limit = cmd.app.Config.Viewer.PageSize
	}

	out := c.Root().Writer

	res := fetchPage(ctx, session.Viewer.Query(), cmd.page, limit, cmd.search)
	if res.Err != nil {
		if !cmd.jsonOutput {
			return fmt.Errorf("list records: %w", res.Err)
		}
		data := map[string]any{"run_id": cmd.flags.RunID, "kind": dataset.Kind(res.Err).Error(), "page": cmd.page}
		var serr *dataset.ServerError
		if errors.As(res.Err, &serr) {
			data["status"] = serr.Status
		}
		if err := iojson.WriteError(out, res.Err.Error(), data); err != nil {
			return err
		}
		return cli.Exit("", 1)
	}
	page := res.Page

	if cmd.jsonOutput {
		return iojson.Write(out, pageInfo{
			RunID:      cmd.flags.RunID,
			Page:       page.PageIndex,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
			Total:      page.TotalCount,
			Search:     cmd.search,
			Items:      page.Items,
		})
	}

	if len(page.Items) == 0 {
		fmt.Fprintf(os.Stderr, "No records found\n")
		return nil
	}

	keys := dataset.UnionKeys(page.Items)
	if len(keys) > lsMaxColumns {
		keys = keys[:lsMaxColumns]
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprint(w, "ID")
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "\t%s", k)
	}
	_, _ = fmt.Fprintln(w)

	for _, rec := range page.Items {
		_, _ = fmt.Fprint(w, rec.ID)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "\t%s", ansi.Truncate(rec.Text(k), lsCellWidth, "…"))
		}
		_, _ = fmt.Fprintln(w)
	}
	_ = w.Flush()

	first := (page.PageIndex-1)*page.PageSize + 1
	last := first + len(page.Items) - 1
	fmt.Fprintf(os.Stderr, "page %d of %d · %d-%d of %s records\n",
		page.PageIndex, max(page.TotalPages, 1), first, last, humanize.Comma(int64(page.TotalCount)))
	return nil
}

// fetchPage runs the query the way the viewer does: a search or page size
// change lands on page 1, after which the requested page is range checked
// against the loaded totals. A page past the end is an error here rather than
// a silent move to the last page.
func fetchPage(ctx context.Context, q *query.Controller, page, limit int, search string) query.Result {
	params := q.Params()
	if search != params.Search || limit != params.PageSize {
		res := q.Query(ctx, 1, limit, search)
		if res.Err != nil || page == 1 {
			return res
		}
	}

	res := q.Query(ctx, page, limit, search)
	if res.Err == nil && res.Page.PageIndex != page {
		res.Err = dataset.Validationf("page %d out of range [1, %d]", page, max(res.Page.TotalPages, 1))
	}
	return res
}

// pageInfo is the JSON output format for harvest ls --json.
type pageInfo struct {
	RunID      string           `json:"run_id"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
	Total      int              `json:"total"`
	Search     string           `json:"search,omitempty"`
	Items      []dataset.Record `json:"items"`
}
