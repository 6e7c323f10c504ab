package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mentorhub/repengine/internal/database/types"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// ReputationStore is the persistence surface the reputation service
// needs. *models.ReputationModel satisfies it.
type ReputationStore interface {
	Append(ctx context.Context, event *types.ReputationEvent) (int64, error)
	GetTotal(ctx context.Context, userID int64, role types.Role) (int64, error)
	GetHistory(
		ctx context.Context, userID int64, role types.Role, cursor *types.HistoryCursor, limit int,
	) ([]*types.ReputationEvent, *types.HistoryCursor, error)
	Reconcile(ctx context.Context, userID int64, role types.Role) (int64, bool, error)
}

const (
	// DefaultHistoryLimit is the page size when the caller does not ask
	// for one.
	DefaultHistoryLimit = 20
	// MaxHistoryLimit caps the page size a caller may request.
	MaxHistoryLimit = 100
)

// ReputationService owns the reputation ledger business logic: organic
// vote credit, manual adjustments, the cached projection, and badge
// evaluation after every total change.
type ReputationService struct {
	store    ReputationStore
	badges   *BadgeService
	cache    rueidis.Client
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewReputation creates a new reputation service. cache may be nil to
// disable the read-side total cache.
func NewReputation(
	store ReputationStore, badges *BadgeService, cache rueidis.Client, cacheTTL time.Duration, logger *zap.Logger,
) *ReputationService {
	return &ReputationService{
		store:    store,
		badges:   badges,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger.Named("reputation_service"),
	}
}

// Apply validates and appends one ledger event, refreshes the read
// cache, and evaluates badges against the new total.
func (s *ReputationService) Apply(ctx context.Context, event *types.ReputationEvent) (int64, error) {
	if !event.Role.Valid() {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidRole, event.Role)
	}

	if !event.ReasonCode.Valid() {
		return 0, fmt.Errorf("invalid reason code: %q", event.ReasonCode)
	}

	if event.ReasonCode == types.ReasonManualAdjustment && strings.TrimSpace(event.Description) == "" {
		return 0, types.ErrBlankDescription
	}

	total, err := s.store.Append(ctx, event)
	if err != nil {
		return 0, err
	}

	s.refreshCachedTotal(ctx, event.UserID, event.Role, total)

	// Badge evaluation is replay-safe, so a failure here only delays the
	// award until the next total change.
	if _, err := s.badges.Evaluate(ctx, event.UserID, event.Role, total); err != nil {
		s.logger.Warn("Failed to evaluate badges after ledger append",
			zap.Error(err),
			zap.Int64("userID", event.UserID),
			zap.String("role", string(event.Role)))
	}

	return total, nil
}

// Adjust appends a manual reputation adjustment on behalf of an
// administrator and returns the new total.
func (s *ReputationService) Adjust(
	ctx context.Context, userID int64, role types.Role, points int64, reason string,
) (int64, error) {
	if points == 0 {
		return 0, types.ErrZeroDelta
	}

	total, err := s.Apply(ctx, &types.ReputationEvent{
		UserID:      userID,
		Role:        role,
		Delta:       points,
		ReasonCode:  types.ReasonManualAdjustment,
		Description: reason,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Applied manual reputation adjustment",
		zap.Int64("userID", userID),
		zap.String("role", string(role)),
		zap.Int64("points", points),
		zap.Int64("newTotal", total))

	return total, nil
}

// CurrentReputation returns a (user, role) pair's reputation total,
// served from the read cache when possible.
func (s *ReputationService) CurrentReputation(ctx context.Context, userID int64, role types.Role) (int64, error) {
	if !role.Valid() {
		return 0, fmt.Errorf("%w: %q", types.ErrInvalidRole, role)
	}

	if s.cache != nil {
		resp := s.cache.Do(ctx, s.cache.B().Get().Key(totalCacheKey(userID, role)).Build())
		if total, err := resp.AsInt64(); err == nil {
			return total, nil
		}
	}

	total, err := s.store.GetTotal(ctx, userID, role)
	if err != nil {
		return 0, err
	}

	s.refreshCachedTotal(ctx, userID, role, total)

	return total, nil
}

// History returns a page of ledger events and the cursor for the next
// page. The limit is clamped to [1, MaxHistoryLimit]; zero means the
// default page size.
func (s *ReputationService) History(
	ctx context.Context, userID int64, role types.Role, cursor *types.HistoryCursor, limit int,
) ([]*types.ReputationEvent, *types.HistoryCursor, error) {
	if !role.Valid() {
		return nil, nil, fmt.Errorf("%w: %q", types.ErrInvalidRole, role)
	}

	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	return s.store.GetHistory(ctx, userID, role, cursor, limit)
}

// Reconcile recomputes the pair's ledger sum and repairs the cached
// total on drift. Drift surfaces as ErrLedgerDrift alongside the
// authoritative sum; the ledger itself is never touched.
func (s *ReputationService) Reconcile(ctx context.Context, userID int64, role types.Role) (int64, error) {
	sum, repaired, err := s.store.Reconcile(ctx, userID, role)
	if err != nil {
		return 0, err
	}

	if !repaired {
		return sum, nil
	}

	s.refreshCachedTotal(ctx, userID, role, sum)

	return sum, types.ErrLedgerDrift
}

// refreshCachedTotal best-effort updates the read cache. Postgres holds
// the authoritative projection, so cache failures are only logged.
func (s *ReputationService) refreshCachedTotal(ctx context.Context, userID int64, role types.Role, total int64) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	cmd := s.cache.B().Set().
		Key(totalCacheKey(userID, role)).
		Value(strconv.FormatInt(total, 10)).
		Ex(s.cacheTTL).
		Build()
	if err := s.cache.Do(ctx, cmd).Error(); err != nil {
		s.logger.Warn("Failed to refresh cached reputation total",
			zap.Error(err),
			zap.Int64("userID", userID),
			zap.String("role", string(role)))
	}
}

func totalCacheKey(userID int64, role types.Role) string {
	return fmt.Sprintf("reputation:total:%d:%s", userID, role)
}
