package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Log(ctx context.Context, req LogRequest) (*Achievement, error)
	Correct(ctx context.Context, req CorrectRequest) (*Achievement, error)
	Delete(ctx context.Context, achievementID, actorID snowflake.ID) error
	List(ctx context.Context, req ListRequest) ([]*Achievement, error)
}

type LogRequest struct {
	ShopID     snowflake.ID
	UserID     snowflake.ID
	CategoryID snowflake.ID
	AchievedOn time.Time
	Value      decimal.Decimal
	Source     string
	Note       string
	ActorID    snowflake.ID
}

type CorrectRequest struct {
	AchievementID snowflake.ID
	Value         decimal.Decimal
	Note          string
	ActorID       snowflake.ID
}

type ListRequest struct {
	ShopID snowflake.ID
	UserID snowflake.ID // optional
	From   time.Time    // optional
	To     time.Time    // optional
}

var (
	ErrInvalidValue        = errors.New("invalid_value")
	ErrInvalidDate         = errors.New("invalid_date")
	ErrInvalidSource       = errors.New("invalid_source")
	ErrAchievementNotFound = errors.New("achievement_not_found")
	ErrAlreadyCorrected    = errors.New("already_corrected")
	ErrMemberUnknown       = errors.New("member_unknown")
	ErrCategoryUnknown     = errors.New("category_unknown")
)
