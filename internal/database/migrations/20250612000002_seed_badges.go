package migrations

import (
	"context"
	"fmt"

	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		badges := []types.Badge{
			{Name: "Contributor", ReputationThreshold: 10, Description: "Earned 10 reputation points"},
			{Name: "Mentor's Mark", ReputationThreshold: 50, Description: "Earned 50 reputation points"},
			{Name: "Luminary", ReputationThreshold: 100, Description: "Earned 100 reputation points"},
			{Name: "Sage", ReputationThreshold: 250, Description: "Earned 250 reputation points"},
		}

		_, err := db.NewInsert().
			Model(&badges).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to seed badges: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewDelete().
			Model((*types.Badge)(nil)).
			Where("name IN (?)", bun.In([]string{"Contributor", "Mentor's Mark", "Luminary", "Sage"})).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to remove seeded badges: %w", err)
		}

		return nil
	})
}
