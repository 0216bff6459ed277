package achievement

import (
	"github.com/smallbiznis/scoreline/internal/achievement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("achievement.service",
	fx.Provide(service.NewService),
)
