package main

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"revostream/internal/apiclient"
	"revostream/internal/config"
)

type globalFlags struct {
	config string
	api    string
	token  string
	json   bool
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, _, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) apiBind() string {
	if bind := strings.TrimSpace(c.flags.api); bind != "" {
		return bind
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.Paths.APIBind
	}
	return ""
}

func (c *commandContext) apiToken() string {
	if token := strings.TrimSpace(c.flags.token); token != "" {
		return token
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.Paths.APIToken
	}
	return ""
}

func (c *commandContext) client() (*apiclient.Client, error) {
	client, err := apiclient.New(c.apiBind(), c.apiToken())
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, fmt.Errorf("no daemon address configured; set paths.api_bind or pass --api")
	}
	return client, nil
}

// withClient runs fn against the daemon and rewrites connection failures
// into a hint to start it.
func (c *commandContext) withClient(cmd *cobra.Command, fn func(context.Context, *apiclient.Client) error) error {
	client, err := c.client()
	if err != nil {
		return err
	}
	if err := fn(cmd.Context(), client); err != nil {
		return wrapDialError(err, client.BaseURL())
	}
	return nil
}

// message runs a call that returns a status message and prints it.
func (c *commandContext) message(cmd *cobra.Command, fn func(context.Context, *apiclient.Client) (string, error)) error {
	return c.withClient(cmd, func(ctx context.Context, client *apiclient.Client) error {
		msg, err := fn(ctx, client)
		if err != nil {
			return err
		}
		return c.printMessage(cmd, msg)
	})
}

func (c *commandContext) jsonOutput() bool {
	return c.flags.json
}

func wrapDialError(err error, base string) error {
	if apiclient.IsUnavailable(err) {
		return fmt.Errorf("connect to daemon at %s: not running; start it with `revostream daemon start`", base)
	}
	return err
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
