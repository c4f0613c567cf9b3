package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/andrew-torda/seqcons/pkg/config"
	"github.com/andrew-torda/seqcons/pkg/logging"
)

// commandContext holds what the sub-commands share.
type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads the config file once. Sub-commands change the
// result with their flags and then call Validate.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		c.config, c.configErr = config.Load(path)
		if c.configErr == nil && c.logLevelFlag != nil && *c.logLevelFlag != "" {
			c.config.Logging.Level = *c.logLevelFlag
		}
	})
	return c.config, c.configErr
}

// logger builds a logger on the command's standard error.
func (c *commandContext) logger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// thresholdFlags adds the two consensus flags to a command.
func thresholdFlags(cmd *cobra.Command, minAgree, minRep *float64) {
	cmd.Flags().Float64Var(minAgree, "min-agreement", 0,
		"fraction of covering sequences that must agree on a base (default from config, 0.9)")
	cmd.Flags().Float64Var(minRep, "min-representation", 0,
		"fraction of sequences that must cover a column (default from config, 0.5)")
}

// applyThresholds copies the threshold flags into cfg if they were given.
func applyThresholds(cmd *cobra.Command, cfg *config.Config, minAgree, minRep float64) {
	if cmd.Flags().Changed("min-agreement") {
		cfg.MinAgreement = minAgree
	}
	if cmd.Flags().Changed("min-representation") {
		cfg.MinRepresentation = minRep
	}
}
