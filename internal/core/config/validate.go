package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/hay-kot/criterio"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// the API endpoint and file accessibility. The configPath argument specifies
// the config file location to validate (empty string skips config file check).
// This calls Validate() first for basic structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateAPI(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.API.BaseURL == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "API",
			Item:     "base_url",
			Message:  "no base url configured; set api.base_url or HARVEST_API_URL",
		})
	}
	if c.API.BaseURL != "" && c.API.Token == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "API",
			Item:     "token",
			Message:  "no token configured; requests are sent without credentials",
		})
	}
	if c.API.Timeout > 2*time.Minute {
		warnings = append(warnings, ValidationWarning{
			Category: "API",
			Item:     "timeout",
			Message:  fmt.Sprintf("timeout %s keeps the viewer waiting a long time on a stuck request", c.API.Timeout),
		})
	}
	if c.Viewer.PageSize > 500 {
		warnings = append(warnings, ValidationWarning{
			Category: "Viewer",
			Item:     "page_size",
			Message:  "large pages slow down rendering; consider 100 or fewer",
		})
	}

	return warnings
}

// validateFileAccess checks config file, data directory and export directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
		criterio.Run("viewer.export_dir", c.Viewer.ExportDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// validateAPI checks that the base url, when set, is an absolute http(s) url.
func (c *Config) validateAPI() error {
	var errs criterio.FieldErrorsBuilder
	if c.API.BaseURL != "" {
		if err := isHTTPURL(c.API.BaseURL); err != nil {
			errs = errs.Append("api.base_url", err)
		}
	}
	return errs.ToError()
}

func isHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
