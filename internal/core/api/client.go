// Package api is the HTTP client for the collaborator endpoints behind the
// dataset viewer: paged dataset queries, exports, chat replies and outreach
// templates.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/harvest/internal/core/dataset"
	"github.com/colonyops/harvest/internal/core/logging"
)

// DefaultTimeout bounds every request when Config.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// ExportFormats lists the formats the export endpoint accepts.
var ExportFormats = []string{"csv", "json"}

const maxErrorBody = 512

// TokenSource supplies the bearer credential for each request.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Config describes how to reach the collaborator endpoints.
type Config struct {
	BaseURL string
	RunID   string
	Timeout time.Duration
	Tokens  TokenSource
	// HTTPClient overrides the default client; its Timeout is left untouched.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client talks to the dataset API of one run.
type Client struct {
	base   *url.URL
	runID  string
	tokens TokenSource
	http   *http.Client
	log    zerolog.Logger
}

// New validates cfg and returns a client.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, dataset.Validationf("api base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, dataset.Validationf("api base url %q is not an absolute url", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := logging.ForRun("api", cfg.RunID)
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Client{
		base:   base,
		runID:  cfg.RunID,
		tokens: cfg.Tokens,
		http:   hc,
		log:    logger,
	}, nil
}

// RunID returns the run the client is bound to.
func (c *Client) RunID() string {
	return c.runID
}

type pageResponse struct {
	Items      []dataset.Record `json:"items"`
	Total      int              `json:"total"`
	TotalPages *int             `json:"total_pages"`
}

// FetchPage requests one page of the run's dataset.
func (c *Client) FetchPage(ctx context.Context, req dataset.PageRequest) (dataset.Page, error) {
	if err := c.requireRun(); err != nil {
		return dataset.Page{}, err
	}
	if err := req.Validate(); err != nil {
		return dataset.Page{}, err
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(req.PageIndex))
	q.Set("limit", strconv.Itoa(req.PageSize))
	if req.Search != "" {
		q.Set("search", req.Search)
	}

	body, err := c.do(ctx, http.MethodGet, c.runPath("dataset"), q, nil)
	if err != nil {
		return dataset.Page{}, err
	}

	var resp pageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return dataset.Page{}, fmt.Errorf("decode dataset page: %w", err)
	}

	totalPages := dataset.TotalPages(resp.Total, req.PageSize)
	if resp.TotalPages != nil {
		totalPages = *resp.TotalPages
	}

	return dataset.Page{
		Items:      resp.Items,
		TotalCount: resp.Total,
		PageIndex:  req.PageIndex,
		PageSize:   req.PageSize,
		TotalPages: totalPages,
	}, nil
}

// Export downloads the full dataset rendered in format.
func (c *Client) Export(ctx context.Context, format string) ([]byte, error) {
	if err := c.requireRun(); err != nil {
		return nil, err
	}
	if !slices.Contains(ExportFormats, format) {
		return nil, dataset.Validationf("unsupported export format %q", format)
	}

	q := url.Values{}
	q.Set("format", format)
	return c.do(ctx, http.MethodGet, c.runPath("dataset", "export"), q, nil)
}

// ExportFileName is the file name an export of runID in format is saved as.
func ExportFileName(runID, format string) string {
	return fmt.Sprintf("dataset_%s.%s", runID, format)
}

// ExportToFile downloads the export and writes it into dir, returning the
// file path and its size.
func (c *Client) ExportToFile(ctx context.Context, format, dir string) (string, int64, error) {
	data, err := c.Export(ctx, format)
	if err != nil {
		return "", 0, err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, ExportFileName(c.runID, format))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", 0, fmt.Errorf("write export: %w", err)
	}

	c.log.Info().Str("path", path).Int("bytes", len(data)).Msg("export written")
	return path, int64(len(data)), nil
}

// Reply asks the assistant about a record.
func (c *Client) Reply(ctx context.Context, message string, leadData map[string]any) (string, error) {
	payload := struct {
		Message  string         `json:"message"`
		LeadData map[string]any `json:"lead_data"`
	}{message, leadData}

	var resp struct {
		Response string `json:"response"`
	}
	if err := c.postJSON(ctx, []string{"chat"}, payload, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// GenerateTemplate requests an outreach template for channel.
func (c *Client) GenerateTemplate(ctx context.Context, channel string) (string, error) {
	payload := struct {
		Channel string `json:"channel"`
	}{channel}

	var resp struct {
		Template string `json:"template"`
	}
	if err := c.postJSON(ctx, []string{"outreach", "template"}, payload, &resp); err != nil {
		return "", err
	}
	return resp.Template, nil
}

func (c *Client) postJSON(ctx context.Context, path []string, payload, dest any) error {
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, path, nil, buf)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s response: %w", strings.Join(path, "/"), err)
	}
	return nil
}

// do performs a request and maps failures onto the error taxonomy: transport
// errors and timeouts are network errors, 401/403 auth errors, any other
// non-2xx status a server error.
func (c *Client) do(ctx context.Context, method string, path []string, query url.Values, payload []byte) ([]byte, error) {
	u := c.base.JoinPath(path...)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "harvest")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", dataset.ErrAuth, err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, dataset.NetworkError(err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.log.Debug().Err(err).Msg("close response body")
		}
	}()

	c.log.Debug().
		Str("method", method).
		Str("path", u.Path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("api request")

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, dataset.AuthError(resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &dataset.ServerError{Status: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dataset.NetworkError(fmt.Errorf("read response body: %w", err))
	}
	return body, nil
}

func (c *Client) runPath(parts ...string) []string {
	return append([]string{"runs", c.runID}, parts...)
}

func (c *Client) requireRun() error {
	if c.runID == "" {
		return dataset.Validationf("run id is required")
	}
	return nil
}
