package migration

import (
	achievementdomain "github.com/smallbiznis/scoreline/internal/achievement/domain"
	allocationdomain "github.com/smallbiznis/scoreline/internal/allocation/domain"
	"github.com/smallbiznis/scoreline/internal/config"
	leaderboarddomain "github.com/smallbiznis/scoreline/internal/leaderboard/domain"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	recalcdomain "github.com/smallbiznis/scoreline/internal/recalc/domain"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	targetplandomain "github.com/smallbiznis/scoreline/internal/targetplan/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Non-postgres dialects (sqlite dev databases for one)
			// fall back to schema sync from the models.
			return conn.AutoMigrate(
				&shopdomain.Shop{},
				&shopdomain.ShopMember{},
				&shopdomain.Category{},
				&perioddomain.Period{},
				&perioddomain.Week{},
				&recalcdomain.RecalcFlag{},
				&targetplandomain.MonthlyTarget{},
				&targetplandomain.WeeklyDistribution{},
				&targetplandomain.WeeklyRoleWeight{},
				&allocationdomain.UserWeekTarget{},
				&achievementdomain.Achievement{},
				&leaderboarddomain.Snapshot{},
				&leaderboarddomain.Row{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
