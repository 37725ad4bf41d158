package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	service "github.com/okian/scribe/internal/app"
	"github.com/okian/scribe/internal/config"
	"github.com/okian/scribe/pkg/logger"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureConfig loads the configuration once and initializes logging on the
// command's stderr so stdout stays machine readable.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		var cfg *config.Config
		var err error
		if path == "" {
			cfg, err = config.Load(cmd.Context())
		} else {
			cfg, err = config.LoadFile(cmd.Context(), path)
		}
		if err != nil {
			c.configErr = err
			return
		}
		if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
			c.configErr = err
			return
		}
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			_ = logger.SetLevelString("info")
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withService opens a service without the worker pool, runs fn and closes it.
func (c *commandContext) withService(cmd *cobra.Command, fn func(*service.Service) error) error {
	cfg, err := c.ensureConfig(cmd)
	if err != nil {
		return err
	}
	svc := service.New(append(service.OptionsFromConfig(cfg), service.WithLogger(logger.Named("cli")))...)
	if err := svc.Open(cmd.Context()); err != nil {
		return err
	}
	defer svc.Stop(cmd.Context())
	return fn(svc)
}
