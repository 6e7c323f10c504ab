package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mentorhub/repengine/internal/database/types"
)

// voteKey identifies one voter's vote on one target.
type voteKey struct {
	voterID   int64
	voterRole types.Role
	target    types.Target
}

// fakeVoteStore is an in-memory vote store driving the same transition
// logic the SQL model uses. conflicts simulates lost toggle races.
type fakeVoteStore struct {
	mu        sync.Mutex
	votes     map[voteKey]types.VoteType
	counters  map[types.Target]types.VoteCounters
	conflicts int
	nextID    int64
}

func newFakeVoteStore() *fakeVoteStore {
	return &fakeVoteStore{
		votes:    make(map[voteKey]types.VoteType),
		counters: make(map[types.Target]types.VoteCounters),
	}
}

func (f *fakeVoteStore) CastVote(
	_ context.Context, voterID int64, voterRole types.Role, target types.Target, voteType types.VoteType,
) (*types.CastResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conflicts > 0 {
		f.conflicts--
		return nil, types.ErrCastConflict
	}

	key := voteKey{voterID: voterID, voterRole: voterRole, target: target}

	var existing *types.VoteType

	if current, ok := f.votes[key]; ok {
		existing = &current
	}

	transition := types.ResolveTransition(existing, voteType)

	var previous types.VoteType
	if existing != nil {
		previous = *existing
	}

	next, err := f.counters[target].Apply(types.TransitionDelta(transition, previous, voteType))
	if err != nil {
		return nil, err
	}

	next.TargetType = target.Type
	next.TargetID = target.ID
	f.counters[target] = next

	switch transition {
	case types.VoteTransitionRemoved:
		delete(f.votes, key)
	case types.VoteTransitionCreated, types.VoteTransitionSwitched:
		f.votes[key] = voteType
	}

	return &types.CastResult{
		Transition:   transition,
		PreviousType: previous,
		Counters:     next,
	}, nil
}

func (f *fakeVoteStore) GetVote(
	_ context.Context, voterID int64, voterRole types.Role, target types.Target,
) (*types.Vote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	voteType, ok := f.votes[voteKey{voterID: voterID, voterRole: voterRole, target: target}]
	if !ok {
		return nil, types.ErrVoteNotFound
	}

	f.nextID++

	return &types.Vote{
		ID:         f.nextID,
		VoterID:    voterID,
		VoterRole:  voterRole,
		TargetType: target.Type,
		TargetID:   target.ID,
		VoteType:   voteType,
	}, nil
}

func (f *fakeVoteStore) GetCounters(_ context.Context, target types.Target) (*types.VoteCounters, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counters := f.counters[target]
	counters.TargetType = target.Type
	counters.TargetID = target.ID

	return &counters, nil
}

func (f *fakeVoteStore) RecountCounters(
	_ context.Context, target types.Target,
) (*types.VoteCounters, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var rebuilt types.VoteCounters

	rebuilt.TargetType = target.Type
	rebuilt.TargetID = target.ID

	for key, voteType := range f.votes {
		if key.target != target {
			continue
		}

		if voteType == types.VoteTypeUpvote {
			rebuilt.Upvotes++
		} else {
			rebuilt.Downvotes++
		}
	}

	cached := f.counters[target]
	drifted := cached.Upvotes != rebuilt.Upvotes || cached.Downvotes != rebuilt.Downvotes
	f.counters[target] = rebuilt

	return &rebuilt, drifted, nil
}

// seedDrift corrupts the cached counters for a target.
func (f *fakeVoteStore) seedDrift(target types.Target, upvotes, downvotes int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	counters := f.counters[target]
	counters.Upvotes = upvotes
	counters.Downvotes = downvotes
	f.counters[target] = counters
}

// fakeTargetStore is an in-memory target registry.
type fakeTargetStore struct {
	mu      sync.Mutex
	targets map[types.Target]*types.TargetRef
}

func newFakeTargetStore() *fakeTargetStore {
	return &fakeTargetStore{targets: make(map[types.Target]*types.TargetRef)}
}

func (f *fakeTargetStore) GetTarget(_ context.Context, target types.Target) (*types.TargetRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	ref, ok := f.targets[target]
	if !ok {
		return nil, types.ErrTargetNotFound
	}

	return ref, nil
}

func (f *fakeTargetStore) RegisterTarget(_ context.Context, ref *types.TargetRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := types.Target{Type: ref.TargetType, ID: ref.TargetID}
	if _, ok := f.targets[key]; !ok {
		f.targets[key] = ref
	}

	return nil
}

// repKey identifies one (user, role) reputation pair.
type repKey struct {
	userID int64
	role   types.Role
}

// fakeReputationStore is an in-memory ledger with the cached-total
// projection the SQL model maintains.
type fakeReputationStore struct {
	mu        sync.Mutex
	events    []*types.ReputationEvent
	totals    map[repKey]int64
	nextID    int64
	now       time.Time
	appendErr error
}

func newFakeReputationStore() *fakeReputationStore {
	return &fakeReputationStore{
		totals: make(map[repKey]int64),
		now:    time.Now(),
	}
}

func (f *fakeReputationStore) Append(_ context.Context, event *types.ReputationEvent) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.appendErr != nil {
		return 0, f.appendErr
	}

	f.nextID++
	event.ID = f.nextID

	if event.CreatedAt.IsZero() {
		// Strictly increasing timestamps keep keyset ordering unambiguous.
		f.now = f.now.Add(time.Millisecond)
		event.CreatedAt = f.now
	}

	f.events = append(f.events, event)

	key := repKey{userID: event.UserID, role: event.Role}
	f.totals[key] += event.Delta

	return f.totals[key], nil
}

func (f *fakeReputationStore) GetTotal(_ context.Context, userID int64, role types.Role) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.totals[repKey{userID: userID, role: role}], nil
}

func (f *fakeReputationStore) GetHistory(
	_ context.Context, userID int64, role types.Role, cursor *types.HistoryCursor, limit int,
) ([]*types.ReputationEvent, *types.HistoryCursor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*types.ReputationEvent

	for _, event := range f.events {
		if event.UserID != userID || event.Role != role {
			continue
		}

		if cursor != nil {
			after := event.CreatedAt.After(cursor.CreatedAt) ||
				(event.CreatedAt.Equal(cursor.CreatedAt) && event.ID >= cursor.ID)
			if after {
				continue
			}
		}

		matched = append(matched, event)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}

		return matched[i].ID > matched[j].ID
	})

	var nextCursor *types.HistoryCursor

	if len(matched) > limit {
		last := matched[limit-1]
		nextCursor = &types.HistoryCursor{CreatedAt: last.CreatedAt, ID: last.ID}
		matched = matched[:limit]
	}

	return matched, nextCursor, nil
}

func (f *fakeReputationStore) Reconcile(
	_ context.Context, userID int64, role types.Role,
) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var sum int64

	for _, event := range f.events {
		if event.UserID == userID && event.Role == role {
			sum += event.Delta
		}
	}

	key := repKey{userID: userID, role: role}
	repaired := f.totals[key] != sum
	f.totals[key] = sum

	return sum, repaired, nil
}

// seedDrift corrupts the cached total for a pair.
func (f *fakeReputationStore) seedDrift(userID int64, role types.Role, total int64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.totals[repKey{userID: userID, role: role}] = total
}

// eventsFor snapshots the ledger entries for a pair, oldest first.
func (f *fakeReputationStore) eventsFor(userID int64, role types.Role) []*types.ReputationEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*types.ReputationEvent

	for _, event := range f.events {
		if event.UserID == userID && event.Role == role {
			matched = append(matched, event)
		}
	}

	return matched
}

// awardKey identifies one badge award.
type awardKey struct {
	userID  int64
	role    types.Role
	badgeID int64
}

// fakeBadgeStore is an in-memory badge store with the same award-once
// semantics the unique index enforces.
type fakeBadgeStore struct {
	mu      sync.Mutex
	badges  []*types.Badge
	awards  map[awardKey]time.Time
	failure error
}

func newFakeBadgeStore(badges ...*types.Badge) *fakeBadgeStore {
	return &fakeBadgeStore{
		badges: badges,
		awards: make(map[awardKey]time.Time),
	}
}

func (f *fakeBadgeStore) GetBadges(_ context.Context) ([]*types.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.badges, nil
}

func (f *fakeBadgeStore) AwardEligible(
	_ context.Context, userID int64, role types.Role, total int64,
) ([]*types.Badge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failure != nil {
		return nil, f.failure
	}

	var awarded []*types.Badge

	for _, badge := range f.badges {
		if badge.ReputationThreshold > total {
			continue
		}

		key := awardKey{userID: userID, role: role, badgeID: badge.ID}
		if _, ok := f.awards[key]; ok {
			continue
		}

		f.awards[key] = time.Now()
		awarded = append(awarded, badge)
	}

	return awarded, nil
}

func (f *fakeBadgeStore) GetUserBadges(
	_ context.Context, userID int64, role types.Role,
) ([]*types.AwardedBadge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var held []*types.AwardedBadge

	for _, badge := range f.badges {
		awardedAt, ok := f.awards[awardKey{userID: userID, role: role, badgeID: badge.ID}]
		if !ok {
			continue
		}

		held = append(held, &types.AwardedBadge{Badge: *badge, AwardedAt: awardedAt})
	}

	return held, nil
}

func (f *fakeBadgeStore) awardCount(userID int64, role types.Role) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0

	for key := range f.awards {
		if key.userID == userID && key.role == role {
			count++
		}
	}

	return count
}
