package validation

import (
	"github.com/smallbiznis/scoreline/internal/validation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("validation.service",
	fx.Provide(service.NewService),
)
