package service

import (
	"context"
	"fmt"

	"github.com/mentorhub/repengine/internal/database/types"
	"go.uber.org/zap"
)

// BadgeStore is the persistence surface the badge service needs.
// *models.BadgeModel satisfies it.
type BadgeStore interface {
	GetBadges(ctx context.Context) ([]*types.Badge, error)
	AwardEligible(ctx context.Context, userID int64, role types.Role, total int64) ([]*types.Badge, error)
	GetUserBadges(ctx context.Context, userID int64, role types.Role) ([]*types.AwardedBadge, error)
}

// BadgeService handles badge evaluation and reads. Awards are monotonic
// and evaluation is idempotent, so it can be invoked after every total
// change and replayed freely.
type BadgeService struct {
	store  BadgeStore
	logger *zap.Logger
}

// NewBadge creates a new badge service.
func NewBadge(store BadgeStore, logger *zap.Logger) *BadgeService {
	return &BadgeService{
		store:  store,
		logger: logger.Named("badge_service"),
	}
}

// Evaluate awards every badge the given total qualifies for that the
// pair does not already hold. Returns the badges newly awarded.
func (s *BadgeService) Evaluate(
	ctx context.Context, userID int64, role types.Role, total int64,
) ([]*types.Badge, error) {
	return s.store.AwardEligible(ctx, userID, role, total)
}

// BadgesFor returns the badges a (user, role) pair holds.
func (s *BadgeService) BadgesFor(
	ctx context.Context, userID int64, role types.Role,
) ([]*types.AwardedBadge, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidRole, role)
	}

	return s.store.GetUserBadges(ctx, userID, role)
}

// Badges returns all badge definitions.
func (s *BadgeService) Badges(ctx context.Context) ([]*types.Badge, error) {
	return s.store.GetBadges(ctx)
}
