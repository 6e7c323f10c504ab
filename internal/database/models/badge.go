package models

import (
	"context"
	"fmt"
	"time"

	"github.com/mentorhub/repengine/internal/database/dbretry"
	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// BadgeModel handles database operations for badge definitions and
// awards.
type BadgeModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewBadge creates a new badge model.
func NewBadge(db *bun.DB, logger *zap.Logger) *BadgeModel {
	return &BadgeModel{
		db:     db,
		logger: logger.Named("db_badge"),
	}
}

// GetBadges retrieves all badge definitions ordered by threshold.
func (r *BadgeModel) GetBadges(ctx context.Context) ([]*types.Badge, error) {
	var badges []*types.Badge

	err := r.db.NewSelect().
		Model(&badges).
		Order("reputation_threshold ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get badges: %w", err)
	}

	return badges, nil
}

// AwardEligible awards every badge whose threshold the given total
// meets and that the (user, role) pair does not already hold. Awards
// are never revoked, so replaying with a lower total is a no-op for
// badges already held. Returns the badges newly awarded by this call.
func (r *BadgeModel) AwardEligible(
	ctx context.Context, userID int64, role types.Role, total int64,
) ([]*types.Badge, error) {
	var awarded []*types.Badge

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		awarded = awarded[:0]

		var eligible []*types.Badge

		err := tx.NewSelect().
			Model(&eligible).
			Where("reputation_threshold <= ?", total).
			Order("reputation_threshold ASC").
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to get eligible badges: %w", err)
		}

		now := time.Now()

		for _, badge := range eligible {
			award := &types.UserBadge{
				UserID:    userID,
				Role:      role,
				BadgeID:   badge.ID,
				AwardedAt: now,
			}

			// ON CONFLICT DO NOTHING makes evaluation idempotent under
			// concurrent appends for the same user.
			res, err := tx.NewInsert().
				Model(award).
				On("CONFLICT (user_id, role, badge_id) DO NOTHING").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to award badge: %w", err)
			}

			inserted, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to read award result: %w", err)
			}

			if inserted > 0 {
				awarded = append(awarded, badge)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, badge := range awarded {
		r.logger.Info("Awarded badge",
			zap.Int64("userID", userID),
			zap.String("role", string(role)),
			zap.String("badge", badge.Name),
			zap.Int64("threshold", badge.ReputationThreshold))
	}

	return awarded, nil
}

// GetUserBadges retrieves the badges a (user, role) pair holds, joined
// with their definitions, newest award first.
func (r *BadgeModel) GetUserBadges(
	ctx context.Context, userID int64, role types.Role,
) ([]*types.AwardedBadge, error) {
	var rows []struct {
		ID                  int64     `bun:"id"`
		Name                string    `bun:"name"`
		ReputationThreshold int64     `bun:"reputation_threshold"`
		Description         string    `bun:"description"`
		AwardedAt           time.Time `bun:"awarded_at"`
	}

	err := r.db.NewSelect().
		TableExpr("user_badges AS ub").
		ColumnExpr("b.id, b.name, b.reputation_threshold, coalesce(b.description, '') AS description").
		ColumnExpr("ub.awarded_at").
		Join("JOIN badges AS b ON b.id = ub.badge_id").
		Where("ub.user_id = ?", userID).
		Where("ub.role = ?", role).
		Order("ub.awarded_at DESC", "b.reputation_threshold DESC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to get user badges: %w", err)
	}

	badges := make([]*types.AwardedBadge, len(rows))
	for i, row := range rows {
		badges[i] = &types.AwardedBadge{
			Badge: types.Badge{
				ID:                  row.ID,
				Name:                row.Name,
				ReputationThreshold: row.ReputationThreshold,
				Description:         row.Description,
			},
			AwardedAt: row.AwardedAt,
		}
	}

	return badges, nil
}
