package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			-- One vote per voter identity per target; the toggle state
			-- machine relies on this index to serialize concurrent casts.
			CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_voter_target
			ON votes (voter_id, voter_role, target_type, target_id);

			CREATE INDEX IF NOT EXISTS idx_votes_target
			ON votes (target_type, target_id);

			-- Counters may never go negative; a violation here means the
			-- votes table and the cache have already diverged.
			ALTER TABLE vote_counters
			ADD CONSTRAINT chk_vote_counters_non_negative
			CHECK (upvotes >= 0 AND downvotes >= 0);

			-- Keyset pagination over a user's ledger history.
			CREATE INDEX IF NOT EXISTS idx_reputation_events_user_time
			ON reputation_events (user_id, role, created_at DESC, id DESC);

			CREATE INDEX IF NOT EXISTS idx_reputation_events_source_ref
			ON reputation_events (source_ref)
			WHERE source_ref IS NOT NULL;

			CREATE INDEX IF NOT EXISTS idx_user_badges_user
			ON user_badges (user_id, role);
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create constraints and indexes: %w", err)
		}

		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		_, err := db.NewRaw(`
			DROP INDEX IF EXISTS idx_user_badges_user;
			DROP INDEX IF EXISTS idx_reputation_events_source_ref;
			DROP INDEX IF EXISTS idx_reputation_events_user_time;
			ALTER TABLE vote_counters DROP CONSTRAINT IF EXISTS chk_vote_counters_non_negative;
			DROP INDEX IF EXISTS idx_votes_target;
			DROP INDEX IF EXISTS idx_votes_voter_target;
		`).Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop constraints and indexes: %w", err)
		}

		return nil
	})
}
