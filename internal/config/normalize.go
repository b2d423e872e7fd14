package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEngine()
	if err := c.normalizeRecording(); err != nil {
		return err
	}
	c.normalizeLogging()
	c.normalizeJournal()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.RootDir, err = expandPath(c.Paths.RootDir); err != nil {
		return fmt.Errorf("paths.root_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeEngine() {
	pref := strings.ToLower(strings.TrimSpace(c.Engine.EncoderPreference))
	if pref == "" {
		pref = defaultEncoderPreference
	}
	c.Engine.EncoderPreference = pref
	res := strings.ToLower(strings.ReplaceAll(c.Engine.SceneResolution, " ", ""))
	if res == "" {
		res = defaultSceneResolution
	}
	c.Engine.SceneResolution = res
	if c.Engine.FPS <= 0 {
		c.Engine.FPS = defaultFPS
	}
}

func (c *Config) normalizeRecording() error {
	p := strings.TrimSpace(c.Recording.Path)
	if p == "" {
		p = defaultRecordPath
	}
	trailing := strings.HasSuffix(p, "/")
	expanded, err := expandPath(p)
	if err != nil {
		return fmt.Errorf("recording.path: %w", err)
	}
	if trailing {
		expanded += "/"
	}
	c.Recording.Path = expanded
	c.Streaming.URL = strings.TrimSpace(c.Streaming.URL)
	c.Streaming.Key = strings.TrimSpace(c.Streaming.Key)
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeJournal() {
	if c.Journal.Buffer <= 0 {
		c.Journal.Buffer = defaultJournalBuffer
	}
}
