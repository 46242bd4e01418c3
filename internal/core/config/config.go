// Package config handles configuration loading and validation for harvest.
package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/harvest/internal/core/styles"
)

// Built-in action names for keybindings.
const (
	ActionNextPage      = "next-page"
	ActionPrevPage      = "prev-page"
	ActionSearch        = "search"
	ActionRecord        = "record"
	ActionLinks         = "links"
	ActionColumns       = "columns"
	ActionGallery       = "gallery"
	ActionChat          = "chat"
	ActionExportCSV     = "export-csv"
	ActionExportJSON    = "export-json"
	ActionCopyRecord    = "copy-record"
	ActionNotifications = "notifications"
	ActionRefresh       = "refresh"
)

// defaultKeys maps every action to its built-in key. Users override single
// entries through tui.keys.
var defaultKeys = map[string]string{
	ActionNextPage:      "]",
	ActionPrevPage:      "[",
	ActionSearch:        "/",
	ActionRecord:        "enter",
	ActionLinks:         "l",
	ActionColumns:       "c",
	ActionGallery:       "g",
	ActionChat:          "a",
	ActionExportCSV:     "e",
	ActionExportJSON:    "E",
	ActionCopyRecord:    "y",
	ActionNotifications: "n",
	ActionRefresh:       "ctrl+r",
}

// Config holds the application configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Viewer   ViewerConfig   `yaml:"viewer"`
	TUI      TUIConfig      `yaml:"tui"`
	Database DatabaseConfig `yaml:"database"`
	DataDir  string         `yaml:"-"` // set by caller, not from config file
}

// APIConfig locates the dataset API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// ViewerConfig tunes the dataset viewer.
type ViewerConfig struct {
	PageSize         int           `yaml:"page_size"`
	SearchDebounce   time.Duration `yaml:"search_debounce"`
	LinkPreviewLimit int           `yaml:"link_preview_limit"`
	ExportDir        string        `yaml:"export_dir"`
	Overlay          OverlayConfig `yaml:"overlay"`
}

// OverlayConfig holds overlay placement in terminal cells.
type OverlayConfig struct {
	Gap    int `yaml:"gap"`
	Margin int `yaml:"margin"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme string `yaml:"theme"`
	// Keys overrides the key bound to an action, e.g. {"chat": "ctrl+a"}.
	Keys map[string]string `yaml:"keys"`
	// ChatWidth is the chat side panel width as a percentage of the terminal.
	ChatWidth     int           `yaml:"chat_width"`
	ToastDuration time.Duration `yaml:"toast_duration"`
}

// DatabaseConfig configures the local sqlite database.
type DatabaseConfig struct {
	// History persists notifications and exports across sessions.
	History      bool `yaml:"history"`
	MaxOpenConns int  `yaml:"max_open_conns"`
	MaxIdleConns int  `yaml:"max_idle_conns"`
	BusyTimeout  int  `yaml:"busy_timeout"` // milliseconds
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout: 30 * time.Second,
		},
		Viewer: ViewerConfig{
			PageSize:         20,
			SearchDebounce:   300 * time.Millisecond,
			LinkPreviewLimit: 5,
			Overlay:          OverlayConfig{Gap: 0, Margin: 1},
		},
		TUI: TUIConfig{
			Theme:         styles.DefaultTheme,
			Keys:          map[string]string{},
			ChatWidth:     40,
			ToastDuration: 5 * time.Second,
		},
		Database: DatabaseConfig{
			History:      true,
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.API.Timeout == 0 {
		c.API.Timeout = defaults.API.Timeout
	}
	if c.Viewer.PageSize == 0 {
		c.Viewer.PageSize = defaults.Viewer.PageSize
	}
	if c.Viewer.SearchDebounce == 0 {
		c.Viewer.SearchDebounce = defaults.Viewer.SearchDebounce
	}
	if c.Viewer.LinkPreviewLimit == 0 {
		c.Viewer.LinkPreviewLimit = defaults.Viewer.LinkPreviewLimit
	}
	if c.Viewer.ExportDir == "" {
		c.Viewer.ExportDir = "."
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.ChatWidth == 0 {
		c.TUI.ChatWidth = defaults.TUI.ChatWidth
	}
	if c.TUI.ToastDuration == 0 {
		c.TUI.ToastDuration = defaults.TUI.ToastDuration
	}
	c.TUI.Keys = mergeKeys(defaultKeys, c.TUI.Keys)
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// mergeKeys overlays user key overrides on the defaults.
func mergeKeys(defaults, user map[string]string) map[string]string {
	result := maps.Clone(defaults)
	maps.Copy(result, user)
	return result
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}
	if c.Viewer.PageSize < 1 {
		return fmt.Errorf("viewer.page_size must be at least 1")
	}
	if c.Viewer.SearchDebounce < 0 {
		return fmt.Errorf("viewer.search_debounce cannot be negative")
	}
	if c.Viewer.LinkPreviewLimit < 1 {
		return fmt.Errorf("viewer.link_preview_limit must be at least 1")
	}
	if c.Viewer.Overlay.Gap < 0 || c.Viewer.Overlay.Margin < 0 {
		return fmt.Errorf("viewer.overlay gap and margin cannot be negative")
	}
	if _, ok := styles.GetPalette(c.TUI.Theme); !ok {
		return fmt.Errorf("tui.theme %q is not one of %v", c.TUI.Theme, styles.ThemeNames())
	}
	if c.TUI.ChatWidth < 20 || c.TUI.ChatWidth > 80 {
		return fmt.Errorf("tui.chat_width must be between 20 and 80")
	}

	seen := make(map[string]string, len(c.TUI.Keys))
	for _, action := range slices.Sorted(maps.Keys(c.TUI.Keys)) {
		key := c.TUI.Keys[action]
		if !isValidAction(action) {
			return fmt.Errorf("tui.keys: unknown action %q", action)
		}
		if key == "" {
			return fmt.Errorf("tui.keys: action %q has no key", action)
		}
		if other, ok := seen[key]; ok {
			return fmt.Errorf("tui.keys: key %q bound to both %q and %q", key, other, action)
		}
		seen[key] = action
	}

	if c.Database.MaxOpenConns < 1 {
		return fmt.Errorf("database.max_open_conns must be at least 1")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}

	return nil
}

// BusyTimeoutDuration returns the database busy timeout as a duration.
func (d DatabaseConfig) BusyTimeoutDuration() time.Duration {
	return time.Duration(d.BusyTimeout) * time.Millisecond
}

// LogFile returns the default log file inside the data directory.
func (c *Config) LogFile() string {
	return filepath.Join(c.DataDir, "harvest.log")
}

// Actions returns every bindable action name.
func Actions() []string {
	return slices.Sorted(maps.Keys(defaultKeys))
}

func isValidAction(action string) bool {
	_, ok := defaultKeys[action]
	return ok
}
