package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	if !strings.Contains(c.Paths.APIBind, ":") {
		return fmt.Errorf("paths.api_bind %q must be host:port", c.Paths.APIBind)
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Engine.EncoderPreference {
	case "hardware", "software":
	default:
		return fmt.Errorf("engine.encoder_preference must be hardware or software, got %q", c.Engine.EncoderPreference)
	}
	if _, _, ok := ParseResolution(c.Engine.SceneResolution); !ok {
		return fmt.Errorf("engine.scene_resolution %q must be WIDTHxHEIGHT", c.Engine.SceneResolution)
	}
	if c.Engine.FPS > 240 {
		return fmt.Errorf("engine.fps %d exceeds 240", c.Engine.FPS)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

// ParseResolution parses "WxH" into two positive dimensions.
func ParseResolution(value string) (uint32, uint32, bool) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(value)), "x")
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil || w == 0 {
		return 0, 0, false
	}
	h, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil || h == 0 {
		return 0, 0, false
	}
	return uint32(w), uint32(h), true
}
