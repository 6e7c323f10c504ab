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

// TargetModel handles database operations for the votable content
// registry.
type TargetModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewTarget creates a new target model.
func NewTarget(db *bun.DB, logger *zap.Logger) *TargetModel {
	return &TargetModel{
		db:     db,
		logger: logger.Named("db_target"),
	}
}

// RegisterTarget records a votable content entity and its author.
// Re-registering an existing target is a no-op so the content layer can
// publish idempotently.
func (r *TargetModel) RegisterTarget(ctx context.Context, ref *types.TargetRef) error {
	if ref.CreatedAt.IsZero() {
		ref.CreatedAt = time.Now()
	}

	err := dbretry.NoResult(ctx, func(ctx context.Context) error {
		_, err := r.db.NewInsert().
			Model(ref).
			On("CONFLICT (target_type, target_id) DO NOTHING").
			Exec(ctx)

		return err
	})
	if err != nil {
		return fmt.Errorf("failed to register target: %w", err)
	}

	r.logger.Debug("Registered target",
		zap.String("targetType", string(ref.TargetType)),
		zap.Int64("targetID", ref.TargetID),
		zap.Int64("authorID", ref.AuthorID))

	return nil
}

// GetTarget retrieves a registered target. Returns ErrTargetNotFound
// when the target was never registered.
func (r *TargetModel) GetTarget(ctx context.Context, target types.Target) (*types.TargetRef, error) {
	ref := new(types.TargetRef)

	err := r.db.NewSelect().
		Model(ref).
		Where("target_type = ?", target.Type).
		Where("target_id = ?", target.ID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrTargetNotFound
		}

		return nil, fmt.Errorf("failed to get target: %w", err)
	}

	return ref, nil
}
