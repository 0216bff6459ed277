package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner   = "OWNER"
	RoleManager = "MANAGER"
	RoleSenior  = "SENIOR"
	RoleJunior  = "JUNIOR"
)

// ValidRole reports whether role is one of the weighted membership roles.
func ValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleManager, RoleSenior, RoleJunior:
		return true
	default:
		return false
	}
}

const (
	UnitCount    = "count"
	UnitCurrency = "currency"
)

type Service interface {
	Create(ctx context.Context, req CreateShopRequest) (*Shop, error)
	GetByID(ctx context.Context, shopID snowflake.ID) (*Shop, error)
	AddMember(ctx context.Context, req AddMemberRequest) (*ShopMember, error)
	UpdateMember(ctx context.Context, req UpdateMemberRequest) (*ShopMember, error)
	ListMembers(ctx context.Context, shopID snowflake.ID, activeOnly bool) ([]*ShopMember, error)
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (*Category, error)
	ListCategories(ctx context.Context, shopID snowflake.ID) ([]*Category, error)
}

type CreateShopRequest struct {
	Name         string
	TimezoneName string
}

type AddMemberRequest struct {
	ShopID snowflake.ID
	UserID snowflake.ID
	Role   string
}

type UpdateMemberRequest struct {
	ShopID   snowflake.ID
	MemberID snowflake.ID
	Role     *string
	Active   *bool
}

type CreateCategoryRequest struct {
	ShopID snowflake.ID
	Name   string
	Unit   string
}

var (
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidRole       = errors.New("invalid_role")
	ErrInvalidUnit       = errors.New("invalid_unit")
	ErrShopNotFound      = errors.New("shop_not_found")
	ErrMemberNotFound    = errors.New("member_not_found")
	ErrDuplicateMember   = errors.New("duplicate_member")
	ErrDuplicateSlug     = errors.New("duplicate_slug")
	ErrDuplicateCategory = errors.New("duplicate_category")
)
