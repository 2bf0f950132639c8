// Package match implements the rating state machine. For any unordered
// pair of users the persisted state is at most two directed affinity
// edges; a mutual match is a transition observed when the second edge
// would be created, and its effect is to clear both edges while a single
// MatchEvent leaves through the notifier.
package match

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Sazoks/apptrix-test/internal/domain/model"
	"github.com/Sazoks/apptrix-test/internal/notify"
	pgrepo "github.com/Sazoks/apptrix-test/internal/repo/postgres"
)

// User-facing messages, kept verbatim from the product copy.
const (
	msgMutualMatch = "Есть взаимная симпатия!"
	msgUserRated   = "Вы оценили %s."
)

var (
	ErrValidation   = errors.New("validation error")
	ErrUserNotFound = errors.New("user not found")
	ErrSelfRating   = errors.New("self rating is not allowed")
	ErrAlreadyRated = errors.New("target is already rated")
)

type TooFastError struct {
	RetryAfterSec int64
}

func (e TooFastError) Error() string {
	return "too fast"
}

func (e TooFastError) RetryAfter() int64 {
	if e.RetryAfterSec <= 0 {
		return 1
	}
	return e.RetryAfterSec
}

func IsTooFast(err error) (*TooFastError, bool) {
	var tf TooFastError
	if errors.As(err, &tf) {
		return &tf, true
	}
	return nil, false
}

// AffinityStore owns the directed has-rated relation. Edge existence is
// the only persisted state of the matching process.
type AffinityStore interface {
	HasEdge(ctx context.Context, raterID, ratedID int64) (bool, error)
	AddEdge(ctx context.Context, raterID, ratedID int64) error
	RemoveEdge(ctx context.Context, raterID, ratedID int64) error
	ClearMutual(ctx context.Context, userA, userB int64) error
	RatersOf(ctx context.Context, userID int64) ([]int64, error)
}

type UserDirectory interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
}

type RateLimiter interface {
	AllowLike(ctx context.Context, userID int64) (int64, bool, error)
}

type Outcome struct {
	Matched    bool
	Message    string
	LoverEmail string
}

type Dependencies struct {
	Affinity    AffinityStore
	Directory   UserDirectory
	Notifier    notify.Notifier
	RateLimiter RateLimiter
	Logger      *zap.Logger
}

type Service struct {
	affinity    AffinityStore
	directory   UserDirectory
	notifier    notify.Notifier
	rateLimiter RateLimiter
	logger      *zap.Logger
	locks       pairLocks
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		affinity:    deps.Affinity,
		directory:   deps.Directory,
		notifier:    deps.Notifier,
		rateLimiter: deps.RateLimiter,
		logger:      logger,
	}
}

// Rate records that rater liked the target. When the target had already
// liked the rater the pending edges are cleared, one MatchEvent is handed
// to the notifier, and the outcome reports the match with the lover's
// contact. Concurrent opposite-direction calls on the same pair are
// serialized so exactly one of them observes the match transition.
func (s *Service) Rate(ctx context.Context, raterID, ratedID int64) (Outcome, error) {
	if raterID <= 0 || ratedID <= 0 {
		return Outcome{}, ErrValidation
	}
	if s.affinity == nil || s.directory == nil {
		return Outcome{}, fmt.Errorf("match dependencies are not configured")
	}

	rater, err := s.directory.GetByID(ctx, raterID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Outcome{}, ErrUserNotFound
		}
		return Outcome{}, fmt.Errorf("resolve rater: %w", err)
	}

	rated, err := s.directory.GetByID(ctx, ratedID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return Outcome{}, ErrUserNotFound
		}
		return Outcome{}, fmt.Errorf("resolve rated user: %w", err)
	}

	if rater.ID == rated.ID {
		return Outcome{}, ErrSelfRating
	}

	if s.rateLimiter != nil {
		retryAfter, allowed, err := s.rateLimiter.AllowLike(ctx, raterID)
		if err != nil {
			return Outcome{}, fmt.Errorf("apply like rate limiter: %w", err)
		}
		if !allowed {
			return Outcome{}, TooFastError{RetryAfterSec: retryAfter}
		}
	}

	// The check-then-act window below must not interleave with the
	// opposite-direction call on the same pair.
	mu := s.locks.pair(raterID, ratedID)
	mu.Lock()
	defer mu.Unlock()

	alreadyRated, err := s.affinity.HasEdge(ctx, raterID, ratedID)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup own edge: %w", err)
	}
	if alreadyRated {
		return Outcome{}, ErrAlreadyRated
	}

	reciprocal, err := s.affinity.HasEdge(ctx, ratedID, raterID)
	if err != nil {
		return Outcome{}, fmt.Errorf("lookup reciprocal edge: %w", err)
	}

	if reciprocal {
		// Mutual affinity resolved: nothing left to track for this pair.
		if err := s.affinity.ClearMutual(ctx, raterID, ratedID); err != nil {
			return Outcome{}, fmt.Errorf("clear mutual affinity: %w", err)
		}

		s.dispatchMatch(ctx, rater, rated)

		return Outcome{
			Matched:    true,
			Message:    msgMutualMatch,
			LoverEmail: rated.Email,
		}, nil
	}

	if err := s.affinity.AddEdge(ctx, raterID, ratedID); err != nil {
		if errors.Is(err, pgrepo.ErrSelfReference) {
			return Outcome{}, ErrSelfRating
		}
		return Outcome{}, fmt.Errorf("add affinity edge: %w", err)
	}

	return Outcome{
		Message: fmt.Sprintf(msgUserRated, rated.DisplayName()),
	}, nil
}

// Admirers lists the users who rated the given user and are still waiting
// for reciprocity. Ids the directory no longer resolves are skipped.
func (s *Service) Admirers(ctx context.Context, userID int64) ([]model.User, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.affinity == nil || s.directory == nil {
		return nil, fmt.Errorf("match dependencies are not configured")
	}

	ids, err := s.affinity.RatersOf(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list raters: %w", err)
	}

	admirers := make([]model.User, 0, len(ids))
	for _, id := range ids {
		user, err := s.directory.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, pgrepo.ErrUserNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolve admirer: %w", err)
		}
		admirers = append(admirers, user)
	}

	return admirers, nil
}

// dispatchMatch hands exactly one event per detected transition to the
// notifier. Delivery failures are the notifier's problem: the match has
// already been resolved and the edges cleared.
func (s *Service) dispatchMatch(ctx context.Context, rater, rated model.User) {
	if s.notifier == nil {
		return
	}

	event := notify.MatchEvent{
		ID:    uuid.NewString(),
		UserA: party(rater),
		UserB: party(rated),
	}

	if err := s.notifier.NotifyMatch(ctx, event); err != nil {
		s.logger.Error("dispatch match event",
			zap.String("event_id", event.ID),
			zap.Int64("user_a", rater.ID),
			zap.Int64("user_b", rated.ID),
			zap.Error(err),
		)
	}
}

func party(u model.User) notify.Party {
	return notify.Party{
		UserID:      u.ID,
		DisplayName: u.DisplayName(),
		Email:       u.Email,
	}
}

// pairLocks serializes rating calls per unordered pair. Stripes keep the
// lock table bounded; unrelated pairs sharing a stripe only cost a little
// extra contention.
type pairLocks struct {
	stripes [64]sync.Mutex
}

func (p *pairLocks) pair(a, b int64) *sync.Mutex {
	if a > b {
		a, b = b, a
	}
	h := uint64(a)*31 + uint64(b)
	return &p.stripes[h%uint64(len(p.stripes))]
}
