package scoringrules

import (
	"github.com/smallbiznis/scoreline/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scoringrules",
	fx.Provide(func(cfg config.Config) (*Holder, error) {
		return NewHolder(cfg.RulesConfigPath)
	}),
)
