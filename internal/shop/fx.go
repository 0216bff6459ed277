package shop

import (
	"github.com/smallbiznis/scoreline/internal/shop/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shop.service",
	fx.Provide(service.NewService),
)
