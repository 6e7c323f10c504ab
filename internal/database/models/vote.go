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

// VoteModel handles database operations for votes and their cached
// per-target counters.
type VoteModel struct {
	db     *bun.DB
	logger *zap.Logger
}

// NewVote creates a new vote model.
func NewVote(db *bun.DB, logger *zap.Logger) *VoteModel {
	return &VoteModel{
		db:     db,
		logger: logger.Named("db_vote"),
	}
}

// CastVote applies one toggle transition for a voter on a target and
// moves the cached counters inside the same transaction. A concurrent
// cast on the same (voter, target) pair surfaces as ErrCastConflict so
// the caller can re-read and retry.
func (r *VoteModel) CastVote(
	ctx context.Context, voterID int64, voterRole types.Role, target types.Target, voteType types.VoteType,
) (*types.CastResult, error) {
	var result types.CastResult

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()

		// Lock the voter's existing vote row, if any, so two casts on the
		// same pair serialize instead of double-applying counter deltas.
		existing := new(types.Vote)

		err := tx.NewSelect().
			Model(existing).
			Where("voter_id = ?", voterID).
			Where("voter_role = ?", voterRole).
			Where("target_type = ?", target.Type).
			Where("target_id = ?", target.ID).
			For("UPDATE").
			Scan(ctx)

		var existingType *types.VoteType

		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("failed to get existing vote: %w", err)
		default:
			existingType = &existing.VoteType
			result.PreviousType = existing.VoteType
		}

		result.Transition = types.ResolveTransition(existingType, voteType)

		switch result.Transition {
		case types.VoteTransitionCreated:
			vote := &types.Vote{
				VoterID:    voterID,
				VoterRole:  voterRole,
				TargetType: target.Type,
				TargetID:   target.ID,
				VoteType:   voteType,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if _, err := tx.NewInsert().Model(vote).Exec(ctx); err != nil {
				if dbretry.IsUniqueViolation(err) {
					return types.ErrCastConflict
				}

				return fmt.Errorf("failed to insert vote: %w", err)
			}
		case types.VoteTransitionRemoved:
			if _, err := tx.NewDelete().
				Model((*types.Vote)(nil)).
				Where("id = ?", existing.ID).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to remove vote: %w", err)
			}
		case types.VoteTransitionSwitched:
			if _, err := tx.NewUpdate().
				Model((*types.Vote)(nil)).
				Set("vote_type = ?", voteType).
				Set("updated_at = ?", now).
				Where("id = ?", existing.ID).
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to switch vote: %w", err)
			}
		}

		delta := types.TransitionDelta(result.Transition, result.PreviousType, voteType)

		counters, err := applyCounterDelta(ctx, tx, target, delta, now)
		if err != nil {
			return err
		}

		result.Counters = *counters

		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Cast vote",
		zap.Int64("voterID", voterID),
		zap.String("voterRole", string(voterRole)),
		zap.String("targetType", string(target.Type)),
		zap.Int64("targetID", target.ID),
		zap.String("transition", string(result.Transition)))

	return &result, nil
}

// applyCounterDelta upserts the counters row for a target, creating it
// on first vote. The check constraint on the table backs up the
// in-application negative guard.
func applyCounterDelta(
	ctx context.Context, tx bun.Tx, target types.Target, delta types.CounterDelta, now time.Time,
) (*types.VoteCounters, error) {
	initial, err := types.VoteCounters{
		TargetType: target.Type,
		TargetID:   target.ID,
		UpdatedAt:  now,
	}.Apply(delta)
	if err != nil {
		return nil, err
	}

	counters := &initial

	err = tx.NewInsert().
		Model(counters).
		On("CONFLICT (target_type, target_id) DO UPDATE").
		Set("upvotes = vote_counters.upvotes + ?", delta.Upvotes).
		Set("downvotes = vote_counters.downvotes + ?", delta.Downvotes).
		Set("updated_at = EXCLUDED.updated_at").
		Returning("upvotes, downvotes, updated_at").
		Scan(ctx)
	if err != nil {
		if dbretry.IsCheckViolation(err) {
			return nil, types.ErrCounterInvariant
		}

		return nil, fmt.Errorf("failed to update vote counters: %w", err)
	}

	if counters.Upvotes < 0 || counters.Downvotes < 0 {
		return nil, types.ErrCounterInvariant
	}

	return counters, nil
}

// GetVote retrieves a voter's current vote on a target. Returns
// ErrVoteNotFound when the voter holds no vote.
func (r *VoteModel) GetVote(
	ctx context.Context, voterID int64, voterRole types.Role, target types.Target,
) (*types.Vote, error) {
	vote := new(types.Vote)

	err := r.db.NewSelect().
		Model(vote).
		Where("voter_id = ?", voterID).
		Where("voter_role = ?", voterRole).
		Where("target_type = ?", target.Type).
		Where("target_id = ?", target.ID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrVoteNotFound
		}

		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return vote, nil
}

// GetCounters retrieves the cached counters for a target. A target with
// no counters row reads as zero.
func (r *VoteModel) GetCounters(ctx context.Context, target types.Target) (*types.VoteCounters, error) {
	counters := new(types.VoteCounters)

	err := r.db.NewSelect().
		Model(counters).
		Where("target_type = ?", target.Type).
		Where("target_id = ?", target.ID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &types.VoteCounters{TargetType: target.Type, TargetID: target.ID}, nil
		}

		return nil, fmt.Errorf("failed to get vote counters: %w", err)
	}

	return counters, nil
}

// RecountCounters rebuilds a target's counters from the votes table and
// overwrites the cached row. Returns the rebuilt counters and whether
// the cached row had drifted.
func (r *VoteModel) RecountCounters(ctx context.Context, target types.Target) (*types.VoteCounters, bool, error) {
	var (
		rebuilt types.VoteCounters
		drifted bool
	)

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			Model((*types.Vote)(nil)).
			ColumnExpr("count(*) FILTER (WHERE vote_type = ?) AS upvotes", types.VoteTypeUpvote).
			ColumnExpr("count(*) FILTER (WHERE vote_type = ?) AS downvotes", types.VoteTypeDownvote).
			Where("target_type = ?", target.Type).
			Where("target_id = ?", target.ID).
			Scan(ctx, &rebuilt.Upvotes, &rebuilt.Downvotes)
		if err != nil {
			return fmt.Errorf("failed to recount votes: %w", err)
		}

		rebuilt.TargetType = target.Type
		rebuilt.TargetID = target.ID
		rebuilt.UpdatedAt = time.Now()

		cached := new(types.VoteCounters)

		err = tx.NewSelect().
			Model(cached).
			Where("target_type = ?", target.Type).
			Where("target_id = ?", target.ID).
			For("UPDATE").
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to get cached counters: %w", err)
		}

		drifted = cached.Upvotes != rebuilt.Upvotes || cached.Downvotes != rebuilt.Downvotes
		if !drifted {
			return nil
		}

		_, err = tx.NewInsert().
			Model(&rebuilt).
			On("CONFLICT (target_type, target_id) DO UPDATE").
			Set("upvotes = EXCLUDED.upvotes").
			Set("downvotes = EXCLUDED.downvotes").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to overwrite counters: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if drifted {
		r.logger.Warn("Vote counters drifted from votes table",
			zap.String("targetType", string(target.Type)),
			zap.Int64("targetID", target.ID),
			zap.Int64("upvotes", rebuilt.Upvotes),
			zap.Int64("downvotes", rebuilt.Downvotes))
	}

	return &rebuilt, drifted, nil
}

// ListVotedTargets returns the distinct targets that currently have a
// counters row, for reconciliation sweeps.
func (r *VoteModel) ListVotedTargets(ctx context.Context) ([]types.Target, error) {
	var rows []types.VoteCounters

	err := r.db.NewSelect().
		Model(&rows).
		Column("target_type", "target_id").
		Order("target_type", "target_id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list voted targets: %w", err)
	}

	targets := make([]types.Target, len(rows))
	for i, row := range rows {
		targets[i] = types.Target{Type: row.TargetType, ID: row.TargetID}
	}

	return targets, nil
}
