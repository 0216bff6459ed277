package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	targetplandomain "github.com/smallbiznis/scoreline/internal/targetplan/domain"
	validationdomain "github.com/smallbiznis/scoreline/internal/validation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type validationFixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	svc      validationdomain.Service
	periodID snowflake.ID
	weekIDs  []snowflake.ID
}

func setupValidation(t *testing.T, weekCount int) *validationFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&perioddomain.Period{},
		&perioddomain.Week{},
		&targetplandomain.WeeklyDistribution{},
		&targetplandomain.WeeklyRoleWeight{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &validationFixture{
		db:   conn,
		node: node,
		svc: NewService(ServiceParam{
			DB:  conn,
			Log: zap.NewNop(),
		}),
		periodID: node.Generate(),
	}

	for seq := 1; seq <= weekCount; seq++ {
		week := &perioddomain.Week{
			ID:       node.Generate(),
			PeriodID: f.periodID,
			Seq:      seq,
			DayCount: 7,
		}
		require.NoError(t, conn.Create(week).Error)
		f.weekIDs = append(f.weekIDs, week.ID)
	}
	return f
}

func (f *validationFixture) distribute(t *testing.T, weekIdx int, percent string) {
	t.Helper()
	require.NoError(t, f.db.Create(&targetplandomain.WeeklyDistribution{
		ID:       f.node.Generate(),
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[weekIdx],
		Percent:  decimal.RequireFromString(percent),
	}).Error)
}

func (f *validationFixture) weight(t *testing.T, weekIdx int, role, percent string) {
	t.Helper()
	require.NoError(t, f.db.Create(&targetplandomain.WeeklyRoleWeight{
		ID:       f.node.Generate(),
		PeriodID: f.periodID,
		WeekID:   f.weekIDs[weekIdx],
		Role:     role,
		Percent:  decimal.RequireFromString(percent),
	}).Error)
}

func TestCheckDistributionWriteUpperBound(t *testing.T) {
	f := setupValidation(t, 2)
	ctx := context.Background()

	f.distribute(t, 0, "60.00")

	// 60 + 40 stays within bound
	err := f.svc.CheckDistributionWrite(ctx, f.db, f.periodID, f.weekIDs[1], decimal.RequireFromString("40.00"))
	assert.NoError(t, err)

	// 60 + 40.01 crosses it
	err = f.svc.CheckDistributionWrite(ctx, f.db, f.periodID, f.weekIDs[1], decimal.RequireFromString("40.01"))
	assert.ErrorIs(t, err, validationdomain.ErrOverAllocated)

	var vErr *validationdomain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, validationdomain.ScopeDistribution, vErr.Scope)
	assert.True(t, vErr.Sum.Equal(decimal.RequireFromString("100.01")))
}

// Replacing a week's own entry must not double count it.
func TestCheckDistributionWriteExcludesReplacedWeek(t *testing.T) {
	f := setupValidation(t, 2)
	ctx := context.Background()

	f.distribute(t, 0, "60.00")
	f.distribute(t, 1, "40.00")

	err := f.svc.CheckDistributionWrite(ctx, f.db, f.periodID, f.weekIDs[1], decimal.RequireFromString("40.00"))
	assert.NoError(t, err)
}

func TestCheckRoleWeightWriteUpperBound(t *testing.T) {
	f := setupValidation(t, 1)
	ctx := context.Background()

	f.weight(t, 0, "JUNIOR", "70.00")

	err := f.svc.CheckRoleWeightWrite(ctx, f.db, f.periodID, f.weekIDs[0], "SENIOR", decimal.RequireFromString("30.00"))
	assert.NoError(t, err)

	err = f.svc.CheckRoleWeightWrite(ctx, f.db, f.periodID, f.weekIDs[0], "SENIOR", decimal.RequireFromString("30.01"))
	assert.ErrorIs(t, err, validationdomain.ErrOverAllocated)

	// Weeks are independent scopes, so another week's weights are untouched.
	var vErr *validationdomain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, f.weekIDs[0], vErr.WeekID)
	assert.Equal(t, validationdomain.ScopeRoleWeights, vErr.Scope)
}

func TestValidateForTransitionRequiresExactSums(t *testing.T) {
	f := setupValidation(t, 2)
	ctx := context.Background()

	f.distribute(t, 0, "50.00")
	f.distribute(t, 1, "49.00") // 99.00 total

	err := f.svc.ValidateForTransition(ctx, f.db, f.periodID)
	assert.ErrorIs(t, err, validationdomain.ErrSumMismatch)

	// Complete the distribution; role weights are still missing.
	require.NoError(t, f.db.Model(&targetplandomain.WeeklyDistribution{}).
		Where("period_id = ? AND week_id = ?", f.periodID, f.weekIDs[1]).
		Update("percent", decimal.RequireFromString("50.00")).Error)

	err = f.svc.ValidateForTransition(ctx, f.db, f.periodID)
	assert.ErrorIs(t, err, validationdomain.ErrSumMismatch)

	f.weight(t, 0, "JUNIOR", "100.00")
	f.weight(t, 1, "JUNIOR", "60.00")
	f.weight(t, 1, "SENIOR", "40.00")

	assert.NoError(t, f.svc.ValidateForTransition(ctx, f.db, f.periodID))
}

// Sums inside the fixed 0.01 tolerance pass the transition gate.
func TestValidateForTransitionTolerance(t *testing.T) {
	f := setupValidation(t, 3)
	ctx := context.Background()

	f.distribute(t, 0, "33.33")
	f.distribute(t, 1, "33.33")
	f.distribute(t, 2, "33.33") // 99.99: within 0.01 of 100
	for i := 0; i < 3; i++ {
		f.weight(t, i, "JUNIOR", "100.00")
	}

	assert.NoError(t, f.svc.ValidateForTransition(ctx, f.db, f.periodID))
}

func TestValidateForTransitionZeroWeeks(t *testing.T) {
	f := setupValidation(t, 0)

	assert.NoError(t, f.svc.ValidateForTransition(context.Background(), f.db, f.periodID))
}

func TestValidateDistributionReadPath(t *testing.T) {
	f := setupValidation(t, 2)
	ctx := context.Background()

	f.distribute(t, 0, "70.00")
	assert.NoError(t, f.svc.ValidateDistribution(ctx, f.periodID))

	f.distribute(t, 1, "40.00")
	assert.ErrorIs(t, f.svc.ValidateDistribution(ctx, f.periodID), validationdomain.ErrOverAllocated)
}
