package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/scoreline/internal/clock"
	perioddomain "github.com/smallbiznis/scoreline/internal/period/domain"
	recalcdomain "github.com/smallbiznis/scoreline/internal/recalc/domain"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	"github.com/smallbiznis/scoreline/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	tracker recalcdomain.Tracker
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Tracker recalcdomain.Tracker
}

func NewService(p ServiceParam) shopdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("shop.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		tracker: p.Tracker,
	}
}

func (s *Service) Create(ctx context.Context, req shopdomain.CreateShopRequest) (*shopdomain.Shop, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shopdomain.ErrInvalidName
	}

	shop := shopdomain.Shop{
		ID:           s.genID.Generate(),
		Name:         name,
		Slug:         slug.Make(name),
		TimezoneName: strings.TrimSpace(req.TimezoneName),
	}
	if err := s.db.WithContext(ctx).Create(&shop).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, shopdomain.ErrDuplicateSlug
		}
		return nil, err
	}
	return &shop, nil
}

func (s *Service) GetByID(ctx context.Context, shopID snowflake.ID) (*shopdomain.Shop, error) {
	var shop shopdomain.Shop
	if err := s.db.WithContext(ctx).Where("id = ?", shopID).Limit(1).Find(&shop).Error; err != nil {
		return nil, err
	}
	if shop.ID == 0 {
		return nil, shopdomain.ErrShopNotFound
	}
	return &shop, nil
}

func (s *Service) AddMember(ctx context.Context, req shopdomain.AddMemberRequest) (*shopdomain.ShopMember, error) {
	if !shopdomain.ValidRole(req.Role) {
		return nil, shopdomain.ErrInvalidRole
	}

	member := shopdomain.ShopMember{
		ID:     s.genID.Generate(),
		ShopID: req.ShopID,
		UserID: req.UserID,
		Role:   req.Role,
		Active: true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			if db.IsDuplicateKeyErr(err) {
				return shopdomain.ErrDuplicateMember
			}
			return err
		}
		return s.markOpenPeriodsDirty(ctx, tx, req.ShopID, "membership_changed")
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// UpdateMember changes a member's role or active flag. Either change
// alters who participates in allocation, so every still-editable period
// of the shop is marked stale in the same transaction.
func (s *Service) UpdateMember(ctx context.Context, req shopdomain.UpdateMemberRequest) (*shopdomain.ShopMember, error) {
	if req.Role != nil && !shopdomain.ValidRole(*req.Role) {
		return nil, shopdomain.ErrInvalidRole
	}

	var member shopdomain.ShopMember
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND shop_id = ?", req.MemberID, req.ShopID).Limit(1).Find(&member).Error; err != nil {
			return err
		}
		if member.ID == 0 {
			return shopdomain.ErrMemberNotFound
		}

		updates := map[string]any{"updated_at": s.clock.Now()}
		if req.Role != nil {
			member.Role = *req.Role
			updates["role"] = *req.Role
		}
		if req.Active != nil {
			member.Active = *req.Active
			updates["active"] = *req.Active
		}
		if len(updates) == 1 {
			return nil
		}

		if err := tx.Model(&shopdomain.ShopMember{}).Where("id = ?", member.ID).Updates(updates).Error; err != nil {
			return err
		}
		return s.markOpenPeriodsDirty(ctx, tx, req.ShopID, "membership_changed")
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Service) ListMembers(ctx context.Context, shopID snowflake.ID, activeOnly bool) ([]*shopdomain.ShopMember, error) {
	stmt := s.db.WithContext(ctx).Where("shop_id = ?", shopID)
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	var members []*shopdomain.ShopMember
	err := stmt.Order("user_id ASC").Find(&members).Error
	return members, err
}

func (s *Service) CreateCategory(ctx context.Context, req shopdomain.CreateCategoryRequest) (*shopdomain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, shopdomain.ErrInvalidName
	}
	if req.Unit != shopdomain.UnitCount && req.Unit != shopdomain.UnitCurrency {
		return nil, shopdomain.ErrInvalidUnit
	}

	category := shopdomain.Category{
		ID:     s.genID.Generate(),
		ShopID: req.ShopID,
		Name:   name,
		Unit:   req.Unit,
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, shopdomain.ErrDuplicateCategory
		}
		return nil, err
	}
	return &category, nil
}

func (s *Service) ListCategories(ctx context.Context, shopID snowflake.ID) ([]*shopdomain.Category, error) {
	var categories []*shopdomain.Category
	err := s.db.WithContext(ctx).Where("shop_id = ?", shopID).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (s *Service) markOpenPeriodsDirty(ctx context.Context, tx *gorm.DB, shopID snowflake.ID, reason string) error {
	var periods []*perioddomain.Period
	if err := tx.WithContext(ctx).
		Where("shop_id = ? AND status IN ?", shopID, []perioddomain.PeriodStatus{
			perioddomain.PeriodStatusDraft,
			perioddomain.PeriodStatusPublished,
		}).
		Find(&periods).Error; err != nil {
		return err
	}
	for _, period := range periods {
		if err := s.tracker.MarkDirty(ctx, tx, period.ID, reason); err != nil {
			return err
		}
	}
	return nil
}
