package recalc

import (
	"github.com/smallbiznis/scoreline/internal/recalc/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recalc.tracker",
	fx.Provide(service.NewTracker),
)
