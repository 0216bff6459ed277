package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	achievementdomain "github.com/smallbiznis/scoreline/internal/achievement/domain"
	"github.com/smallbiznis/scoreline/internal/clock"
	shopdomain "github.com/smallbiznis/scoreline/internal/shop/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
}

func NewService(p ServiceParam) achievementdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("achievement.service"),
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Log(ctx context.Context, req achievementdomain.LogRequest) (*achievementdomain.Achievement, error) {
	if req.Value.IsNegative() {
		return nil, achievementdomain.ErrInvalidValue
	}
	if req.AchievedOn.IsZero() {
		return nil, achievementdomain.ErrInvalidDate
	}
	source := req.Source
	if source == "" {
		source = achievementdomain.SourceManual
	}
	if source != achievementdomain.SourceManual && source != achievementdomain.SourceImport {
		return nil, achievementdomain.ErrInvalidSource
	}

	var member shopdomain.ShopMember
	if err := s.db.WithContext(ctx).Where("shop_id = ? AND user_id = ?", req.ShopID, req.UserID).Limit(1).Find(&member).Error; err != nil {
		return nil, err
	}
	if member.ID == 0 {
		return nil, achievementdomain.ErrMemberUnknown
	}

	var category shopdomain.Category
	if err := s.db.WithContext(ctx).Where("id = ? AND shop_id = ?", req.CategoryID, req.ShopID).Limit(1).Find(&category).Error; err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, achievementdomain.ErrCategoryUnknown
	}

	achievement := achievementdomain.Achievement{
		ID:         s.genID.Generate(),
		ShopID:     req.ShopID,
		UserID:     req.UserID,
		CategoryID: req.CategoryID,
		AchievedOn: dateOnly(req.AchievedOn),
		Value:      req.Value.Round(2),
		Source:     source,
		SourceRef:  uuid.NewString(),
		Note:       req.Note,
		CreatedBy:  req.ActorID,
	}
	if err := s.db.WithContext(ctx).Create(&achievement).Error; err != nil {
		return nil, err
	}
	return &achievement, nil
}

// Correct writes a superseding row and retires the original, so the
// ledger keeps the full history while scoring only sees the corrected
// value.
func (s *Service) Correct(ctx context.Context, req achievementdomain.CorrectRequest) (*achievementdomain.Achievement, error) {
	if req.Value.IsNegative() {
		return nil, achievementdomain.ErrInvalidValue
	}

	var corrected achievementdomain.Achievement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Look through soft deletes so a retired row reports "already
		// corrected" instead of vanishing.
		var original achievementdomain.Achievement
		if err := tx.Unscoped().Where("id = ?", req.AchievementID).Limit(1).Find(&original).Error; err != nil {
			return err
		}
		if original.CorrectedBy != nil {
			return achievementdomain.ErrAlreadyCorrected
		}
		if original.ID == 0 || original.DeletedAt.Valid {
			return achievementdomain.ErrAchievementNotFound
		}

		corrected = achievementdomain.Achievement{
			ID:         s.genID.Generate(),
			ShopID:     original.ShopID,
			UserID:     original.UserID,
			CategoryID: original.CategoryID,
			AchievedOn: original.AchievedOn,
			Value:      req.Value.Round(2),
			Source:     achievementdomain.SourceCorrection,
			SourceRef:  original.SourceRef,
			Note:       req.Note,
			CreatedBy:  req.ActorID,
		}
		if err := tx.Create(&corrected).Error; err != nil {
			return err
		}

		// Retire the original: point it at its successor and soft-delete
		// it so aggregation never double counts.
		if err := tx.Model(&achievementdomain.Achievement{}).
			Where("id = ?", original.ID).
			Update("corrected_by", corrected.ID).Error; err != nil {
			return err
		}
		return tx.Delete(&achievementdomain.Achievement{}, original.ID).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("achievement corrected",
		zap.String("achievement_id", req.AchievementID.String()),
		zap.String("superseded_by", corrected.ID.String()),
		zap.String("actor_id", req.ActorID.String()),
	)
	return &corrected, nil
}

func (s *Service) Delete(ctx context.Context, achievementID, actorID snowflake.ID) error {
	result := s.db.WithContext(ctx).Delete(&achievementdomain.Achievement{}, achievementID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return achievementdomain.ErrAchievementNotFound
	}
	s.log.Info("achievement deleted",
		zap.String("achievement_id", achievementID.String()),
		zap.String("actor_id", actorID.String()),
	)
	return nil
}

func (s *Service) List(ctx context.Context, req achievementdomain.ListRequest) ([]*achievementdomain.Achievement, error) {
	stmt := s.db.WithContext(ctx).Where("shop_id = ?", req.ShopID)
	if req.UserID != 0 {
		stmt = stmt.Where("user_id = ?", req.UserID)
	}
	if !req.From.IsZero() {
		stmt = stmt.Where("achieved_on >= ?", dateOnly(req.From))
	}
	if !req.To.IsZero() {
		stmt = stmt.Where("achieved_on <= ?", dateOnly(req.To))
	}
	var achievements []*achievementdomain.Achievement
	err := stmt.Order("achieved_on DESC, id DESC").Find(&achievements).Error
	return achievements, err
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
