package migrations

import (
	"context"
	"fmt"

	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		models := []any{
			(*types.TargetRef)(nil),
			(*types.Vote)(nil),
			(*types.VoteCounters)(nil),
			(*types.ReputationEvent)(nil),
			(*types.UserReputation)(nil),
			(*types.Badge)(nil),
			(*types.UserBadge)(nil),
		}

		for _, model := range models {
			_, err := db.NewCreateTable().
				Model(model).
				IfNotExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to create table %T: %w", model, err)
			}
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		// Down migration - drop all tables
		models := []any{
			(*types.UserBadge)(nil),
			(*types.Badge)(nil),
			(*types.UserReputation)(nil),
			(*types.ReputationEvent)(nil),
			(*types.VoteCounters)(nil),
			(*types.Vote)(nil),
			(*types.TargetRef)(nil),
		}

		for _, model := range models {
			_, err := db.NewDropTable().
				Model(model).
				IfExists().
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to drop table %T: %w", model, err)
			}
		}

		return nil
	})
}
