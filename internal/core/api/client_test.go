package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/harvest/internal/core/dataset"
)

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	nop := zerolog.Nop()
	cfg := Config{
		BaseURL: srv.URL + "/api/",
		RunID:   "run-42",
		Tokens:  StaticToken("secret"),
		Logger:  &nop,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c, err := New(cfg)
	require.NoError(t, err)
	return c
}

func TestNew_validatesBaseURL(t *testing.T) {
	for _, base := range []string{"", "   ", "not a url", "/relative/only"} {
		_, err := New(Config{BaseURL: base})
		require.ErrorIs(t, err, dataset.ErrValidation, "base %q", base)
	}
}

func TestClient_FetchPage(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "a", "data": {"name": "Acme", "website": "https://acme.test"}},
				{"id": "b", "name": "Beta"}
			],
			"total": 45,
			"total_pages": 3
		}`))
	})

	page, err := c.FetchPage(context.Background(), dataset.PageRequest{PageIndex: 2, PageSize: 20, Search: "ac me"})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/runs/run-42/dataset", got.URL.Path)
	assert.Equal(t, "2", got.URL.Query().Get("page"))
	assert.Equal(t, "20", got.URL.Query().Get("limit"))
	assert.Equal(t, "ac me", got.URL.Query().Get("search"))
	assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))

	assert.Equal(t, 45, page.TotalCount)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.PageIndex)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].ID)
	assert.Equal(t, []string{"name", "website"}, page.Items[0].Keys)
	assert.Equal(t, "Beta", page.Items[1].Text("name"))
}

func TestClient_FetchPage_derivesTotalPages(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("search"))
		_, _ = w.Write([]byte(`{"items": [], "total": 41}`))
	})

	page, err := c.FetchPage(context.Background(), dataset.PageRequest{PageIndex: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
}

func TestClient_FetchPage_rejectsInvalidRequestLocally(t *testing.T) {
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, err := c.FetchPage(context.Background(), dataset.PageRequest{PageIndex: 0, PageSize: 20})
	require.ErrorIs(t, err, dataset.ErrValidation)
	assert.Zero(t, calls)
}

func TestClient_errorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, dataset.ErrAuth},
		{"forbidden", http.StatusForbidden, dataset.ErrAuth},
		{"server failure", http.StatusInternalServerError, dataset.ErrServer},
		{"not found", http.StatusNotFound, dataset.ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			})

			_, err := c.FetchPage(context.Background(), dataset.PageRequest{PageIndex: 1, PageSize: 20})
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.want, dataset.Kind(err))
		})
	}

	t.Run("server error carries status and body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		})

		_, err := c.Export(context.Background(), "csv")
		var se *dataset.ServerError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, http.StatusBadGateway, se.Status)
		assert.Equal(t, "upstream exploded", se.Body)
	})
}

func TestClient_timeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })
	t.Cleanup(func() { close(release) })

	_, err := c.FetchPage(context.Background(), dataset.PageRequest{PageIndex: 1, PageSize: 20})
	require.ErrorIs(t, err, dataset.ErrNetwork)
}

func TestClient_Export(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/runs/run-42/dataset/export", r.URL.Path)
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		_, _ = w.Write([]byte("id,name\na,Acme\n"))
	})

	dir := filepath.Join(t.TempDir(), "exports")
	path, size, err := c.ExportToFile(context.Background(), "csv", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "dataset_run-42.csv"), path)
	assert.Equal(t, int64(15), size)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name\na,Acme\n", string(data))
}

func TestClient_Export_rejectsUnknownFormat(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.Export(context.Background(), "xlsx")
	require.ErrorIs(t, err, dataset.ErrValidation)
}

func TestClient_Reply(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body struct {
			Message  string         `json:"message"`
			LeadData map[string]any `json:"lead_data"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "who is the ceo?", body.Message)
		assert.Equal(t, "Acme", body.LeadData["name"])

		_, _ = w.Write([]byte(`{"response": "Jane Doe"}`))
	})

	got, err := c.Reply(context.Background(), "who is the ceo?", map[string]any{"name": "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got)
}

func TestClient_GenerateTemplate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/outreach/template", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "linkedin", body["channel"])

		_, _ = w.Write([]byte(`{"template": "Hi {{name}}"}`))
	})

	got, err := c.GenerateTemplate(context.Background(), "linkedin")
	require.NoError(t, err)
	assert.Equal(t, "Hi {{name}}", got)
}

func TestClient_noToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"response": "ok"}`))
	}, func(cfg *Config) { cfg.Tokens = nil })

	_, err := c.Reply(context.Background(), "hi", nil)
	require.NoError(t, err)
}
