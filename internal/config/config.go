package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"revostream/internal/fileutil"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
	RootDir  string `toml:"root_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Engine contains the startup parameters handed to the media engine.
type Engine struct {
	EncoderPreference string `toml:"encoder_preference"`
	SceneResolution   string `toml:"scene_resolution"`
	FPS               int    `toml:"fps"`
	DefaultTemplate   bool   `toml:"default_template"`
}

// Recording contains the default recording destination.
type Recording struct {
	Path string `toml:"path"`
}

// Streaming contains the default ingest endpoint.
type Streaming struct {
	URL string `toml:"url"`
	Key string `toml:"key"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Journal controls the action journal.
type Journal struct {
	Enabled bool `toml:"enabled"`
	Buffer  int  `toml:"buffer"`
	Persist bool `toml:"persist"`
}

// Config encapsulates all configuration values for RevoStream.
//
// Configuration sections by subsystem:
//   - Paths: state/log directories, engine data root, API bind and token
//   - Engine: encoder preference, canvas resolution, frame rate
//   - Recording: default output path
//   - Streaming: default RTMP URL and stream key
//   - Logging: log format, level, and retention
//   - Journal: action journal buffer and persistence
type Config struct {
	Paths     Paths     `toml:"paths"`
	Engine    Engine    `toml:"engine"`
	Recording Recording `toml:"recording"`
	Streaming Streaming `toml:"streaming"`
	Logging   Logging   `toml:"logging"`
	Journal   Journal   `toml:"journal"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	if base, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && strings.TrimSpace(base) != "" {
		return expandPath(filepath.Join(base, "revostream", "config.toml"))
	}
	return expandPath("~/.config/revostream/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized, and .env overrides applied.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadDotEnv(filepath.Dir(resolvedPath)); err != nil {
		return nil, "", false, err
	}
	cfg.applyEnv()

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("revostream.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// loadDotEnv reads .env files next to the config file and in the working
// directory. Variables already present in the environment win.
func loadDotEnv(configDir string) error {
	candidates := []string{filepath.Join(configDir, ".env"), ".env"}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		info, err := os.Stat(abs)
		if err != nil || info.IsDir() {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("load env file %s: %w", abs, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		name   string
		target *string
	}{
		{"REVOSTREAM_API_TOKEN", &c.Paths.APIToken},
		{"REVOSTREAM_API_BIND", &c.Paths.APIBind},
		{"REVOSTREAM_STREAM_URL", &c.Streaming.URL},
		{"REVOSTREAM_STREAM_KEY", &c.Streaming.Key},
		{"REVOSTREAM_LOG_LEVEL", &c.Logging.Level},
	}
	for _, o := range overrides {
		if value, ok := os.LookupEnv(o.name); ok && strings.TrimSpace(value) != "" {
			*o.target = strings.TrimSpace(value)
		}
	}
}

// EnsureDirectories creates required directories for daemon operation.
// The recording directory is created on a best-effort basis; recording
// resolves and creates it again when it starts.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := c.RecordDir(); dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return nil
}

// RecordDir returns the directory that receives recordings.
func (c *Config) RecordDir() string {
	p := strings.TrimSpace(c.Recording.Path)
	if p == "" {
		return ""
	}
	if strings.HasSuffix(p, "/") {
		return filepath.Clean(p)
	}
	return filepath.Dir(p)
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "revostreamd.lock")
}

// PIDPath returns the file the running daemon writes its pid to.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "revostreamd.pid")
}

// CurrentLogPath returns the link that points at the active daemon log.
func (c *Config) CurrentLogPath() string {
	return filepath.Join(c.Paths.LogDir, "revostreamd.log")
}

// JournalPath returns the SQLite database that persists journal entries.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// StreamTarget joins the configured URL and key into a single RTMP URL.
// A key is appended only when the URL does not already carry one.
func (c *Config) StreamTarget() string {
	url := strings.TrimSpace(c.Streaming.URL)
	key := strings.Trim(strings.TrimSpace(c.Streaming.Key), "/")
	if url == "" || key == "" {
		return url
	}
	if strings.HasSuffix(url, "/"+key) {
		return url
	}
	return strings.TrimRight(url, "/") + "/" + key
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if err := fileutil.WriteFileAtomic(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	var sb strings.Builder
	enc := toml.NewEncoder(&sb)
	enc.SetIndentTables(true)
	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return []byte(sb.String()), nil
}
