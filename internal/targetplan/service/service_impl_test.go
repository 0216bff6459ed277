package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/scoreline/internal/clock"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	recalcdomain "github.com/smallbiznis/scoreline/internal/recalc/domain"
	recalcservice "github.com/smallbiznis/scoreline/internal/recalc/service"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	targetplandomain "github.com/smallbiznis/scoreline/internal/targetplan/domain"
	validationdomain "github.com/smallbiznis/scoreline/internal/validation/domain"
	validationservice "github.com/smallbiznis/scoreline/internal/validation/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type targetplanFixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	tracker  recalcdomain.Tracker
	svc      targetplandomain.Service
	shopID   snowflake.ID
	periodID snowflake.ID
	weekIDs  []snowflake.ID
	catID    snowflake.ID
}

func setupTargetplan(t *testing.T) *targetplanFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&shopdomain.Shop{},
		&shopdomain.Category{},
		&perioddomain.Period{},
		&perioddomain.Week{},
		&recalcdomain.RecalcFlag{},
		&targetplandomain.MonthlyTarget{},
		&targetplandomain.WeeklyDistribution{},
		&targetplandomain.WeeklyRoleWeight{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC))
	tracker := recalcservice.NewTracker(recalcservice.TrackerParam{DB: conn, Log: log, Clock: fake})
	validator := validationservice.NewService(validationservice.ServiceParam{DB: conn, Log: log})

	f := &targetplanFixture{
		db:      conn,
		node:    node,
		tracker: tracker,
		svc: NewService(ServiceParam{
			DB:        conn,
			Log:       log,
			GenID:     node,
			Clock:     fake,
			Validator: validator,
			Tracker:   tracker,
		}),
		shopID:   node.Generate(),
		periodID: node.Generate(),
		catID:    node.Generate(),
	}

	require.NoError(t, conn.Create(&shopdomain.Shop{ID: f.shopID, Name: "Pier Goods", Slug: "pier-goods"}).Error)
	require.NoError(t, conn.Create(&shopdomain.Category{ID: f.catID, ShopID: f.shopID, Name: "Accessories", Unit: "EUR"}).Error)
	require.NoError(t, conn.Create(&perioddomain.Period{
		ID: f.periodID, ShopID: f.shopID, Year: 2026, Month: 3, Status: perioddomain.PeriodStatusDraft,
	}).Error)
	require.NoError(t, conn.Create(&recalcdomain.RecalcFlag{PeriodID: f.periodID}).Error)

	for _, span := range perioddomain.SliceMonth(2026, 3) {
		week := &perioddomain.Week{
			ID:        node.Generate(),
			PeriodID:  f.periodID,
			Seq:       span.Seq,
			StartDate: span.StartDate,
			EndDate:   span.EndDate,
			DayCount:  span.DayCount,
		}
		require.NoError(t, conn.Create(week).Error)
		f.weekIDs = append(f.weekIDs, week.ID)
	}
	return f
}

func (f *targetplanFixture) flag(t *testing.T) *recalcdomain.RecalcFlag {
	t.Helper()
	flag, err := f.tracker.Get(context.Background(), f.periodID)
	require.NoError(t, err)
	require.NotNil(t, flag)
	return flag
}

func TestSetMonthlyTargetMarksDirty(t *testing.T) {
	f := setupTargetplan(t)
	ctx := context.Background()

	target, err := f.svc.SetMonthlyTarget(ctx, targetplandomain.SetMonthlyTargetRequest{
		PeriodID:   f.periodID,
		CategoryID: f.catID,
		Amount:     decimal.RequireFromString("1500.505"),
	})
	require.NoError(t, err)
	assert.True(t, target.Amount.Equal(decimal.RequireFromString("1500.51")))

	flag := f.flag(t)
	assert.True(t, flag.Dirty)
	assert.Equal(t, "monthly_target_changed", flag.Reason)
}

func TestSetMonthlyTargetUpserts(t *testing.T) {
	f := setupTargetplan(t)
	ctx := context.Background()

	for _, amount := range []string{"1000.00", "2000.00"} {
		_, err := f.svc.SetMonthlyTarget(ctx, targetplandomain.SetMonthlyTargetRequest{
			PeriodID:   f.periodID,
			CategoryID: f.catID,
			Amount:     decimal.RequireFromString(amount),
		})
		require.NoError(t, err)
	}

	var targets []*targetplandomain.MonthlyTarget
	require.NoError(t, f.db.Where("period_id = ?", f.periodID).Find(&targets).Error)
	require.Len(t, targets, 1)
	assert.True(t, targets[0].Amount.Equal(decimal.RequireFromString("2000.00")))
}

func TestSetMonthlyTargetGuards(t *testing.T) {
	f := setupTargetplan(t)
	ctx := context.Background()

	_, err := f.svc.SetMonthlyTarget(ctx, targetplandomain.SetMonthlyTargetRequest{
		PeriodID:   f.periodID,
		CategoryID: f.catID,
		Amount:     decimal.RequireFromString("-1"),
	})
	assert.ErrorIs(t, err, targetplandomain.ErrNegativeAmount)

	_, err = f.svc.SetMonthlyTarget(ctx, targetplandomain.SetMonthlyTargetRequest{
		PeriodID:   f.periodID,
		CategoryID: f.node.Generate(),
		Amount:     decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, targetplandomain.ErrCategoryUnknown)

	_, err = f.svc.SetMonthlyTarget(ctx, targetplandomain.SetMonthlyTargetRequest{
		PeriodID:   f.node.Generate(),
		CategoryID: f.catID,
		Amount:     decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, perioddomain.ErrPeriodNotFound)
}

func TestSetWeeklyDistributionRejectsOverAllocation(t *testing.T) {
	f := setupTargetplan(t)
	ctx := context.Background()

	_, err := f.svc.SetWeeklyDistribution(ctx, targetplandomain.SetWeeklyDistributionRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[0],
		Percent:  decimal.RequireFromString("70.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.SetWeeklyDistribution(ctx, targetplandomain.SetWeeklyDistributionRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[1],
		Percent:  decimal.RequireFromString("30.01"),
	})
	assert.ErrorIs(t, err, validationdomain.ErrOverAllocated)

	// The rejected write must not have persisted anything.
	var count int64
	require.NoError(t, f.db.Model(&targetplandomain.WeeklyDistribution{}).
		Where("period_id = ?", f.periodID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

// Replacing a week's own percentage counts the new value, not both.
func TestSetWeeklyDistributionReplacesOwnShare(t *testing.T) {
	f := setupTargetplan(t)
	ctx := context.Background()

	for _, pct := range []string{"60.00", "55.00"} {
		_, err := f.svc.SetWeeklyDistribution(ctx, targetplandomain.SetWeeklyDistributionRequest{
			PeriodID: f.periodID,
			WeekID:   f.weekIDs[0],
			Percent:  decimal.RequireFromString(pct),
		})
		require.NoError(t, err)
	}

	var entry targetplandomain.WeeklyDistribution
	require.NoError(t, f.db.Where("period_id = ? AND week_id = ?", f.periodID, f.weekIDs[0]).First(&entry).Error)
	assert.True(t, entry.Percent.Equal(decimal.RequireFromString("55.00")))
	assert.Equal(t, "weekly_distribution_changed", f.flag(t).Reason)
}

func TestSetWeeklyDistributionGuards(t *testing.T) {
	f := setupTargetplan(t)
	ctx := context.Background()

	_, err := f.svc.SetWeeklyDistribution(ctx, targetplandomain.SetWeeklyDistributionRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[0],
		Percent:  decimal.RequireFromString("-5"),
	})
	assert.ErrorIs(t, err, targetplandomain.ErrInvalidPercent)

	_, err = f.svc.SetWeeklyDistribution(ctx, targetplandomain.SetWeeklyDistributionRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[0],
		Percent:  decimal.RequireFromString("100.01"),
	})
	assert.ErrorIs(t, err, targetplandomain.ErrInvalidPercent)

	_, err = f.svc.SetWeeklyDistribution(ctx, targetplandomain.SetWeeklyDistributionRequest{
		PeriodID: f.periodID,
		WeekID:   f.node.Generate(),
		Percent:  decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, targetplandomain.ErrWeekNotFound)
}

func TestSetWeeklyRoleWeightPerWeekScope(t *testing.T) {
	f := setupTargetplan(t)
	ctx := context.Background()

	// Week 1 fully allocated; week 2 must be unaffected by it.
	_, err := f.svc.SetWeeklyRoleWeight(ctx, targetplandomain.SetWeeklyRoleWeightRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[0],
		Role:     shopdomain.RoleJunior,
		Percent:  decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.SetWeeklyRoleWeight(ctx, targetplandomain.SetWeeklyRoleWeightRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[1],
		Role:     shopdomain.RoleSenior,
		Percent:  decimal.RequireFromString("100.00"),
	})
	require.NoError(t, err)

	_, err = f.svc.SetWeeklyRoleWeight(ctx, targetplandomain.SetWeeklyRoleWeightRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[0],
		Role:     shopdomain.RoleSenior,
		Percent:  decimal.RequireFromString("0.01"),
	})
	assert.ErrorIs(t, err, validationdomain.ErrOverAllocated)

	assert.Equal(t, "weekly_role_weight_changed", f.flag(t).Reason)
}

func TestSetWeeklyRoleWeightRejectsUnknownRole(t *testing.T) {
	f := setupTargetplan(t)

	_, err := f.svc.SetWeeklyRoleWeight(context.Background(), targetplandomain.SetWeeklyRoleWeightRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[0],
		Role:     "INTERN",
		Percent:  decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, targetplandomain.ErrInvalidRole)
}

func TestWritesFrozenAfterLock(t *testing.T) {
	f := setupTargetplan(t)
	ctx := context.Background()

	require.NoError(t, f.db.Model(&perioddomain.Period{}).
		Where("id = ?", f.periodID).
		Update("status", perioddomain.PeriodStatusLocked).Error)

	_, err := f.svc.SetMonthlyTarget(ctx, targetplandomain.SetMonthlyTargetRequest{
		PeriodID:   f.periodID,
		CategoryID: f.catID,
		Amount:     decimal.RequireFromString("100"),
	})
	assert.ErrorIs(t, err, targetplandomain.ErrPeriodFrozen)

	_, err = f.svc.SetWeeklyDistribution(ctx, targetplandomain.SetWeeklyDistributionRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[0],
		Percent:  decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, targetplandomain.ErrPeriodFrozen)

	_, err = f.svc.SetWeeklyRoleWeight(ctx, targetplandomain.SetWeeklyRoleWeightRequest{
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[0],
		Role:     shopdomain.RoleJunior,
		Percent:  decimal.RequireFromString("10"),
	})
	assert.ErrorIs(t, err, targetplandomain.ErrPeriodFrozen)
}

func TestGetPlanReturnsFullConfiguration(t *testing.T) {
	f := setupTargetplan(t)
	ctx := context.Background()

	_, err := f.svc.SetMonthlyTarget(ctx, targetplandomain.SetMonthlyTargetRequest{
		PeriodID: f.periodID, CategoryID: f.catID, Amount: decimal.RequireFromString("500"),
	})
	require.NoError(t, err)
	_, err = f.svc.SetWeeklyDistribution(ctx, targetplandomain.SetWeeklyDistributionRequest{
		PeriodID: f.periodID, WeekID: f.weekIDs[0], Percent: decimal.RequireFromString("25"),
	})
	require.NoError(t, err)
	_, err = f.svc.SetWeeklyRoleWeight(ctx, targetplandomain.SetWeeklyRoleWeightRequest{
		PeriodID: f.periodID, WeekID: f.weekIDs[0], Role: shopdomain.RoleJunior, Percent: decimal.RequireFromString("100"),
	})
	require.NoError(t, err)

	plan, err := f.svc.GetPlan(ctx, f.periodID)
	require.NoError(t, err)
	assert.Len(t, plan.Targets, 1)
	assert.Len(t, plan.Distributions, 1)
	assert.Len(t, plan.RoleWeights, 1)
}
