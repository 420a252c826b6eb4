package doctor

import (
	"context"

	"github.com/colonyops/wreckit/internal/core/config"
)

// ConfigCheck runs deep configuration validation and reports warnings.
type ConfigCheck struct {
	cfg        *config.Config
	configPath string
}

// NewConfigCheck creates a config check for cfg loaded from configPath.
func NewConfigCheck(cfg *config.Config, configPath string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, configPath: configPath}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if err := c.cfg.ValidateDeep(c.configPath); err != nil {
		result.Entries = append(result.Entries, Entry{
			Label:  "config",
			Status: StatusFail,
			Detail: err.Error(),
		})
	} else {
		result.Entries = append(result.Entries, Entry{
			Label:  "config",
			Status: StatusPass,
		})
	}

	for _, w := range c.cfg.Warnings() {
		result.Entries = append(result.Entries, Entry{
			Label:  w.Item,
			Status: StatusWarn,
			Detail: w.Message,
		})
	}

	return result
}
