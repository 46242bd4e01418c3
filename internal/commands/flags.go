package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/harvest/internal/core/config"
)

// StderrLogFile is the --log-file value that sends logs to stderr.
const StderrLogFile = "-"

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// APIURL and Token override the api section of the config file.
	APIURL string
	Token  string
	RunID  string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config
}

// xdgDir resolves an XDG base directory, falling back to fallback under the
// user's home when env is unset.
func xdgDir(env string, fallback ...string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(append([]string{home}, fallback...)...)
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/harvest/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdgDir("XDG_CONFIG_HOME", ".config"), "harvest", "config.yaml")
}

// DefaultDataDir returns $XDG_DATA_HOME/harvest, where the log file and the
// history database live.
func DefaultDataDir() string {
	return filepath.Join(xdgDir("XDG_DATA_HOME", ".local", "share"), "harvest")
}
