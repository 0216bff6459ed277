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
	achievementdomain "github.com/smallbiznis/scoreline/internal/achievement/domain"
	"github.com/smallbiznis/scoreline/internal/clock"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type achievementFixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	svc     achievementdomain.Service
	shopID  snowflake.ID
	userID  snowflake.ID
	catID   snowflake.ID
	actorID snowflake.ID
}

func setupAchievement(t *testing.T) *achievementFixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&shopdomain.Shop{},
		&shopdomain.ShopMember{},
		&shopdomain.Category{},
		&achievementdomain.Achievement{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	f := &achievementFixture{
		db:   conn,
		node: node,
		svc: NewService(ServiceParam{
			DB:    conn,
			Log:   zap.NewNop(),
			GenID: node,
			Clock: clock.NewFakeClock(time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)),
		}),
		shopID:  node.Generate(),
		userID:  node.Generate(),
		catID:   node.Generate(),
		actorID: node.Generate(),
	}

	require.NoError(t, conn.Create(&shopdomain.Shop{ID: f.shopID, Name: "Ridgeway", Slug: "ridgeway"}).Error)
	require.NoError(t, conn.Create(&shopdomain.ShopMember{
		ID: node.Generate(), ShopID: f.shopID, UserID: f.userID, Role: shopdomain.RoleJunior, Active: true,
	}).Error)
	require.NoError(t, conn.Create(&shopdomain.Category{
		ID: f.catID, ShopID: f.shopID, Name: "Footwear", Unit: shopdomain.UnitCurrency,
	}).Error)
	return f
}

func (f *achievementFixture) log(t *testing.T, day int, value string) *achievementdomain.Achievement {
	t.Helper()
	achievement, err := f.svc.Log(context.Background(), achievementdomain.LogRequest{
		ShopID:     f.shopID,
		UserID:     f.userID,
		CategoryID: f.catID,
		AchievedOn: time.Date(2026, time.March, day, 15, 30, 0, 0, time.UTC),
		Value:      decimal.RequireFromString(value),
		ActorID:    f.actorID,
	})
	require.NoError(t, err)
	return achievement
}

func TestLogNormalizesInput(t *testing.T) {
	f := setupAchievement(t)

	achievement := f.log(t, 5, "120.505")

	// Values round to cents, dates to UTC midnight.
	assert.True(t, achievement.Value.Equal(decimal.RequireFromString("120.51")))
	assert.Equal(t, time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC), achievement.AchievedOn)
	assert.Equal(t, achievementdomain.SourceManual, achievement.Source)
	assert.NotEmpty(t, achievement.SourceRef)
	assert.Equal(t, f.actorID, achievement.CreatedBy)
}

func TestLogValidation(t *testing.T) {
	f := setupAchievement(t)
	ctx := context.Background()
	base := achievementdomain.LogRequest{
		ShopID:     f.shopID,
		UserID:     f.userID,
		CategoryID: f.catID,
		AchievedOn: time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		Value:      decimal.RequireFromString("10"),
		ActorID:    f.actorID,
	}

	req := base
	req.Value = decimal.RequireFromString("-0.01")
	_, err := f.svc.Log(ctx, req)
	assert.ErrorIs(t, err, achievementdomain.ErrInvalidValue)

	req = base
	req.AchievedOn = time.Time{}
	_, err = f.svc.Log(ctx, req)
	assert.ErrorIs(t, err, achievementdomain.ErrInvalidDate)

	req = base
	req.Source = achievementdomain.SourceCorrection
	_, err = f.svc.Log(ctx, req)
	assert.ErrorIs(t, err, achievementdomain.ErrInvalidSource)

	req = base
	req.UserID = f.node.Generate()
	_, err = f.svc.Log(ctx, req)
	assert.ErrorIs(t, err, achievementdomain.ErrMemberUnknown)

	req = base
	req.CategoryID = f.node.Generate()
	_, err = f.svc.Log(ctx, req)
	assert.ErrorIs(t, err, achievementdomain.ErrCategoryUnknown)
}

func TestCorrectSupersedesOriginal(t *testing.T) {
	f := setupAchievement(t)
	ctx := context.Background()

	original := f.log(t, 7, "200.00")

	corrected, err := f.svc.Correct(ctx, achievementdomain.CorrectRequest{
		AchievementID: original.ID,
		Value:         decimal.RequireFromString("180.00"),
		Note:          "till miscount",
		ActorID:       f.actorID,
	})
	require.NoError(t, err)
	assert.Equal(t, achievementdomain.SourceCorrection, corrected.Source)
	assert.Equal(t, original.SourceRef, corrected.SourceRef)
	assert.Equal(t, original.AchievedOn, corrected.AchievedOn)

	// Only the superseding row is visible to readers.
	listed, err := f.svc.List(ctx, achievementdomain.ListRequest{ShopID: f.shopID})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, corrected.ID, listed[0].ID)

	// The retired row survives in the ledger, pointing at its successor.
	var retired achievementdomain.Achievement
	require.NoError(t, f.db.Unscoped().First(&retired, "id = ?", original.ID).Error)
	require.NotNil(t, retired.CorrectedBy)
	assert.Equal(t, corrected.ID, *retired.CorrectedBy)
	assert.True(t, retired.DeletedAt.Valid)
}

func TestCorrectTwiceRejected(t *testing.T) {
	f := setupAchievement(t)
	ctx := context.Background()

	original := f.log(t, 8, "50.00")
	_, err := f.svc.Correct(ctx, achievementdomain.CorrectRequest{
		AchievementID: original.ID,
		Value:         decimal.RequireFromString("55.00"),
		ActorID:       f.actorID,
	})
	require.NoError(t, err)

	// The original is already retired; a second correction must target
	// the superseding row instead.
	_, err = f.svc.Correct(ctx, achievementdomain.CorrectRequest{
		AchievementID: original.ID,
		Value:         decimal.RequireFromString("60.00"),
		ActorID:       f.actorID,
	})
	assert.ErrorIs(t, err, achievementdomain.ErrAlreadyCorrected)

	_, err = f.svc.Correct(ctx, achievementdomain.CorrectRequest{
		AchievementID: f.node.Generate(),
		Value:         decimal.RequireFromString("1"),
		ActorID:       f.actorID,
	})
	assert.ErrorIs(t, err, achievementdomain.ErrAchievementNotFound)
}

func TestDeleteSoftDeletes(t *testing.T) {
	f := setupAchievement(t)
	ctx := context.Background()

	achievement := f.log(t, 9, "75.00")
	require.NoError(t, f.svc.Delete(ctx, achievement.ID, f.actorID))

	listed, err := f.svc.List(ctx, achievementdomain.ListRequest{ShopID: f.shopID})
	require.NoError(t, err)
	assert.Empty(t, listed)

	var row achievementdomain.Achievement
	require.NoError(t, f.db.Unscoped().First(&row, "id = ?", achievement.ID).Error)
	assert.True(t, row.DeletedAt.Valid)

	assert.ErrorIs(t, f.svc.Delete(ctx, achievement.ID, f.actorID), achievementdomain.ErrAchievementNotFound)
}

func TestListFilters(t *testing.T) {
	f := setupAchievement(t)
	ctx := context.Background()

	f.log(t, 3, "10.00")
	f.log(t, 5, "20.00")
	f.log(t, 9, "30.00")

	listed, err := f.svc.List(ctx, achievementdomain.ListRequest{
		ShopID: f.shopID,
		From:   time.Date(2026, time.March, 4, 0, 0, 0, 0, time.UTC),
		To:     time.Date(2026, time.March, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].Value.Equal(decimal.RequireFromString("20.00")))

	listed, err = f.svc.List(ctx, achievementdomain.ListRequest{ShopID: f.shopID, UserID: f.node.Generate()})
	require.NoError(t, err)
	assert.Empty(t, listed)

	// Newest first.
	listed, err = f.svc.List(ctx, achievementdomain.ListRequest{ShopID: f.shopID})
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.True(t, listed[0].Value.Equal(decimal.RequireFromString("30.00")))
}
