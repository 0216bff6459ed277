package targetplan

import (
	"github.com/smallbiznis/scoreline/internal/targetplan/service"
	"go.uber.org/fx"
)

var Module = fx.Module("targetplan.service",
	fx.Provide(service.NewService),
)
