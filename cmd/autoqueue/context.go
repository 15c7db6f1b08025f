package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"autoqueue/internal/config"
	"autoqueue/internal/daemon"
)

type commandContext struct {
	addrFlag   *string
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(addrFlag, configFlag *string) *commandContext {
	return &commandContext{
		addrFlag:   addrFlag,
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// client builds a daemon client, honoring the --addr override.
func (c *commandContext) client() (*daemon.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	clientCfg := *cfg
	if c.addrFlag != nil && strings.TrimSpace(*c.addrFlag) != "" {
		clientCfg.Paths.APIBind = strings.TrimSpace(*c.addrFlag)
	}
	return daemon.NewClient(&clientCfg, nil), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
