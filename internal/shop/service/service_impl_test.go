package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/scoreline/internal/clock"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	recalcdomain "github.com/smallbiznis/scoreline/internal/recalc/domain"
	recalcservice "github.com/smallbiznis/scoreline/internal/recalc/service"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type shopFixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	tracker recalcdomain.Tracker
	svc     shopdomain.Service
}

func setupShop(t *testing.T) *shopFixture {
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
		&perioddomain.Period{},
		&recalcdomain.RecalcFlag{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	log := zap.NewNop()
	fake := clock.NewFakeClock(time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC))
	tracker := recalcservice.NewTracker(recalcservice.TrackerParam{DB: conn, Log: log, Clock: fake})

	return &shopFixture{
		db:      conn,
		node:    node,
		tracker: tracker,
		svc: NewService(ServiceParam{
			DB:      conn,
			Log:     log,
			GenID:   node,
			Clock:   fake,
			Tracker: tracker,
		}),
	}
}

func (f *shopFixture) seedPeriod(t *testing.T, shopID snowflake.ID, month int, status perioddomain.PeriodStatus) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	require.NoError(t, f.db.Create(&perioddomain.Period{
		ID: id, ShopID: shopID, Year: 2026, Month: month, Status: status,
	}).Error)
	require.NoError(t, f.db.Create(&recalcdomain.RecalcFlag{PeriodID: id}).Error)
	return id
}

func TestCreateShopSlugsName(t *testing.T) {
	f := setupShop(t)
	ctx := context.Background()

	shop, err := f.svc.Create(ctx, shopdomain.CreateShopRequest{Name: "  Blue Anchor Surf  ", TimezoneName: "Europe/Lisbon"})
	require.NoError(t, err)
	assert.Equal(t, "Blue Anchor Surf", shop.Name)
	assert.Equal(t, "blue-anchor-surf", shop.Slug)
	assert.Equal(t, "Europe/Lisbon", shop.TimezoneName)

	_, err = f.svc.Create(ctx, shopdomain.CreateShopRequest{Name: "Blue Anchor Surf"})
	assert.ErrorIs(t, err, shopdomain.ErrDuplicateSlug)

	_, err = f.svc.Create(ctx, shopdomain.CreateShopRequest{Name: "   "})
	assert.ErrorIs(t, err, shopdomain.ErrInvalidName)
}

func TestAddMemberDuplicateUser(t *testing.T) {
	f := setupShop(t)
	ctx := context.Background()

	shop, err := f.svc.Create(ctx, shopdomain.CreateShopRequest{Name: "Dockside"})
	require.NoError(t, err)
	userID := f.node.Generate()

	member, err := f.svc.AddMember(ctx, shopdomain.AddMemberRequest{ShopID: shop.ID, UserID: userID, Role: shopdomain.RoleJunior})
	require.NoError(t, err)
	assert.True(t, member.Active)

	_, err = f.svc.AddMember(ctx, shopdomain.AddMemberRequest{ShopID: shop.ID, UserID: userID, Role: shopdomain.RoleSenior})
	assert.ErrorIs(t, err, shopdomain.ErrDuplicateMember)

	_, err = f.svc.AddMember(ctx, shopdomain.AddMemberRequest{ShopID: shop.ID, UserID: f.node.Generate(), Role: "GUEST"})
	assert.ErrorIs(t, err, shopdomain.ErrInvalidRole)
}

// Membership changes invalidate derived targets of every period still
// open for edits, but not locked ones.
func TestMembershipChangeMarksOpenPeriodsDirty(t *testing.T) {
	f := setupShop(t)
	ctx := context.Background()

	shop, err := f.svc.Create(ctx, shopdomain.CreateShopRequest{Name: "Quayside"})
	require.NoError(t, err)
	draftID := f.seedPeriod(t, shop.ID, 3, perioddomain.PeriodStatusDraft)
	publishedID := f.seedPeriod(t, shop.ID, 4, perioddomain.PeriodStatusPublished)
	lockedID := f.seedPeriod(t, shop.ID, 2, perioddomain.PeriodStatusLocked)

	_, err = f.svc.AddMember(ctx, shopdomain.AddMemberRequest{ShopID: shop.ID, UserID: f.node.Generate(), Role: shopdomain.RoleJunior})
	require.NoError(t, err)

	for _, periodID := range []snowflake.ID{draftID, publishedID} {
		flag, err := f.tracker.Get(ctx, periodID)
		require.NoError(t, err)
		require.NotNil(t, flag)
		assert.True(t, flag.Dirty)
		assert.Equal(t, "membership_changed", flag.Reason)
	}

	flag, err := f.tracker.Get(ctx, lockedID)
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.False(t, flag.Dirty)
}

func TestUpdateMemberDeactivation(t *testing.T) {
	f := setupShop(t)
	ctx := context.Background()

	shop, err := f.svc.Create(ctx, shopdomain.CreateShopRequest{Name: "Seaward"})
	require.NoError(t, err)
	periodID := f.seedPeriod(t, shop.ID, 3, perioddomain.PeriodStatusDraft)

	member, err := f.svc.AddMember(ctx, shopdomain.AddMemberRequest{ShopID: shop.ID, UserID: f.node.Generate(), Role: shopdomain.RoleSenior})
	require.NoError(t, err)

	// Reset the flag set by AddMember so the update's effect is visible.
	require.NoError(t, f.tracker.Clear(ctx, f.db, periodID, "run-1"))

	inactive := false
	updated, err := f.svc.UpdateMember(ctx, shopdomain.UpdateMemberRequest{ShopID: shop.ID, MemberID: member.ID, Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	flag, err := f.tracker.Get(ctx, periodID)
	require.NoError(t, err)
	require.NotNil(t, flag)
	assert.True(t, flag.Dirty)

	members, err := f.svc.ListMembers(ctx, shop.ID, true)
	require.NoError(t, err)
	assert.Empty(t, members)

	members, err = f.svc.ListMembers(ctx, shop.ID, false)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestUpdateMemberNotFound(t *testing.T) {
	f := setupShop(t)

	role := shopdomain.RoleManager
	_, err := f.svc.UpdateMember(context.Background(), shopdomain.UpdateMemberRequest{
		ShopID:   f.node.Generate(),
		MemberID: f.node.Generate(),
		Role:     &role,
	})
	assert.ErrorIs(t, err, shopdomain.ErrMemberNotFound)
}

func TestCreateCategory(t *testing.T) {
	f := setupShop(t)
	ctx := context.Background()

	shop, err := f.svc.Create(ctx, shopdomain.CreateShopRequest{Name: "Windward"})
	require.NoError(t, err)

	category, err := f.svc.CreateCategory(ctx, shopdomain.CreateCategoryRequest{ShopID: shop.ID, Name: "Wetsuits", Unit: shopdomain.UnitCount})
	require.NoError(t, err)
	assert.Equal(t, "Wetsuits", category.Name)

	_, err = f.svc.CreateCategory(ctx, shopdomain.CreateCategoryRequest{ShopID: shop.ID, Name: "Wetsuits", Unit: shopdomain.UnitCurrency})
	assert.ErrorIs(t, err, shopdomain.ErrDuplicateCategory)

	_, err = f.svc.CreateCategory(ctx, shopdomain.CreateCategoryRequest{ShopID: shop.ID, Name: "Boards", Unit: "litres"})
	assert.ErrorIs(t, err, shopdomain.ErrInvalidUnit)

	categories, err := f.svc.ListCategories(ctx, shop.ID)
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}
