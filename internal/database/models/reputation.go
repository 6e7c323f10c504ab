package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mentorhub/repengine/internal/database/dbretry"
	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// ReputationModel handles database operations for the reputation ledger
// and its cached per-user totals.
type ReputationModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewReputation creates a new reputation model.
func NewReputation(db *bun.DB, logger *zap.Logger) *ReputationModel {
	return &ReputationModel{
		db:     db,
		logger: logger.Named("db_reputation"),
	}
}

// Append inserts one ledger event and moves the cached total inside the
// same transaction. The ledger row is never updated afterwards; the
// cache row is derived state. Returns the total after the append.
func (r *ReputationModel) Append(ctx context.Context, event *types.ReputationEvent) (int64, error) {
	var total int64

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		// A retried attempt must insert a fresh row.
		event.ID = 0

		if event.CreatedAt.IsZero() {
			event.CreatedAt = time.Now()
		}

		if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
			return fmt.Errorf("failed to append reputation event: %w", err)
		}

		cache := &types.UserReputation{
			UserID:    event.UserID,
			Role:      event.Role,
			Total:     event.Delta,
			UpdatedAt: event.CreatedAt,
		}

		err := tx.NewInsert().
			Model(cache).
			On("CONFLICT (user_id, role) DO UPDATE").
			Set("total = user_reputation.total + ?", event.Delta).
			Set("updated_at = EXCLUDED.updated_at").
			Returning("total").
			Scan(ctx)
		if err != nil {
			return fmt.Errorf("failed to update cached total: %w", err)
		}

		total = cache.Total

		return nil
	})
	if err != nil {
		return 0, err
	}

	r.logger.Debug("Appended reputation event",
		zap.Int64("userID", event.UserID),
		zap.String("role", string(event.Role)),
		zap.Int64("delta", event.Delta),
		zap.String("reasonCode", string(event.ReasonCode)),
		zap.Int64("total", total))

	return total, nil
}

// GetTotal reads the cached reputation total for a (user, role) pair. A
// pair with no ledger history reads as zero.
func (r *ReputationModel) GetTotal(ctx context.Context, userID int64, role types.Role) (int64, error) {
	cache := new(types.UserReputation)

	err := r.db.NewSelect().
		Model(cache).
		Column("total").
		Where("user_id = ?", userID).
		Where("role = ?", role).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to get cached total: %w", err)
	}

	return cache.Total, nil
}

// GetHistory retrieves a page of ledger events for a (user, role) pair,
// newest first. Returns the events and a cursor for the next page, or a
// nil cursor when this is the last page.
func (r *ReputationModel) GetHistory(
	ctx context.Context, userID int64, role types.Role, cursor *types.HistoryCursor, limit int,
) ([]*types.ReputationEvent, *types.HistoryCursor, error) {
	var events []*types.ReputationEvent

	query := r.db.NewSelect().
		Model(&events).
		Where("user_id = ?", userID).
		Where("role = ?", role).
		Order("created_at DESC", "id DESC").
		Limit(limit + 1)

	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	if err := query.Scan(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to get reputation history: %w", err)
	}

	var nextCursor *types.HistoryCursor

	if len(events) > limit {
		last := events[limit-1]
		nextCursor = &types.HistoryCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		events = events[:limit]
	}

	return events, nextCursor, nil
}

// LedgerSum recomputes a (user, role) pair's total straight from the
// events table, bypassing the cache.
func (r *ReputationModel) LedgerSum(ctx context.Context, userID int64, role types.Role) (int64, error) {
	var sum int64

	err := r.db.NewSelect().
		Model((*types.ReputationEvent)(nil)).
		ColumnExpr("coalesce(sum(delta), 0)").
		Where("user_id = ?", userID).
		Where("role = ?", role).
		Scan(ctx, &sum)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger: %w", err)
	}

	return sum, nil
}

// Reconcile recomputes the ledger sum for a (user, role) pair and
// repairs the cached total if it drifted. Returns the authoritative sum
// and whether a repair was needed.
func (r *ReputationModel) Reconcile(ctx context.Context, userID int64, role types.Role) (int64, bool, error) {
	var (
		sum      int64
		repaired bool
	)

	err := dbretry.Transaction(ctx, r.db, func(ctx context.Context, tx bun.Tx) error {
		repaired = false
		cache := new(types.UserReputation)

		err := tx.NewSelect().
			Model(cache).
			Where("user_id = ?", userID).
			Where("role = ?", role).
			For("UPDATE").
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to lock cached total: %w", err)
		}

		err = tx.NewSelect().
			Model((*types.ReputationEvent)(nil)).
			ColumnExpr("coalesce(sum(delta), 0)").
			Where("user_id = ?", userID).
			Where("role = ?", role).
			Scan(ctx, &sum)
		if err != nil {
			return fmt.Errorf("failed to sum ledger: %w", err)
		}

		if cache.Total == sum {
			return nil
		}

		repaired = true

		repairedRow := &types.UserReputation{
			UserID:    userID,
			Role:      role,
			Total:     sum,
			UpdatedAt: time.Now(),
		}

		_, err = tx.NewInsert().
			Model(repairedRow).
			On("CONFLICT (user_id, role) DO UPDATE").
			Set("total = EXCLUDED.total").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to repair cached total: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, false, err
	}

	if repaired {
		r.logger.Warn("Repaired drifted reputation cache",
			zap.Int64("userID", userID),
			zap.String("role", string(role)),
			zap.Int64("ledgerSum", sum))
	}

	return sum, repaired, nil
}

// ListLedgerPairs returns every distinct (user, role) pair that has
// ledger history, for reconciliation sweeps.
func (r *ReputationModel) ListLedgerPairs(ctx context.Context) ([]types.UserReputation, error) {
	var pairs []types.UserReputation

	err := r.db.NewSelect().
		Model((*types.ReputationEvent)(nil)).
		ColumnExpr("DISTINCT user_id, role").
		Order("user_id", "role").
		Scan(ctx, &pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger pairs: %w", err)
	}

	return pairs, nil
}
