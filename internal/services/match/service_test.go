package match

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Sazoks/apptrix-test/internal/domain/model"
	"github.com/Sazoks/apptrix-test/internal/notify"
	"github.com/Sazoks/apptrix-test/internal/repo/memory"
)

type notifierStub struct {
	mu     sync.Mutex
	events []notify.MatchEvent
	err    error
}

func (n *notifierStub) NotifyMatch(_ context.Context, event notify.MatchEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.events = append(n.events, event)
	return n.err
}

func (n *notifierStub) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.events)
}

type rateLimiterStub struct {
	retryAfter int64
	allowed    bool
}

func (s rateLimiterStub) AllowLike(context.Context, int64) (int64, bool, error) {
	return s.retryAfter, s.allowed, nil
}

func newTestService(notifier notify.Notifier) (*Service, *memory.AffinityRepo) {
	affinity := memory.NewAffinityRepo()
	directory := memory.NewUserDirectory(
		model.User{ID: 101, Username: "alice", Email: "alice@example.com"},
		model.User{ID: 202, Username: "bob", Email: "bob@example.com"},
		model.User{ID: 303, Username: "carol", Email: "carol@example.com"},
	)

	svc := NewService(Dependencies{
		Affinity:  affinity,
		Directory: directory,
		Notifier:  notifier,
	})

	return svc, affinity
}

func TestRateRecordsThenRejectsDuplicate(t *testing.T) {
	svc, affinity := newTestService(nil)
	ctx := context.Background()

	outcome, err := svc.Rate(ctx, 101, 202)
	if err != nil {
		t.Fatalf("first rate: %v", err)
	}
	if outcome.Matched {
		t.Fatalf("first rate must not match")
	}
	if outcome.Message != "Вы оценили bob." {
		t.Fatalf("unexpected message: %q", outcome.Message)
	}

	if has, _ := affinity.HasEdge(ctx, 101, 202); !has {
		t.Fatalf("expected edge 101->202 after rating")
	}

	if _, err := svc.Rate(ctx, 101, 202); !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("expected ErrAlreadyRated on repeat, got %v", err)
	}
}

func TestRateMutualMatchClearsStateAndNotifiesOnce(t *testing.T) {
	n := &notifierStub{}
	svc, affinity := newTestService(n)
	ctx := context.Background()

	if _, err := svc.Rate(ctx, 101, 202); err != nil {
		t.Fatalf("rate 101->202: %v", err)
	}

	outcome, err := svc.Rate(ctx, 202, 101)
	if err != nil {
		t.Fatalf("rate 202->101: %v", err)
	}
	if !outcome.Matched {
		t.Fatalf("expected mutual match on reciprocal rating")
	}
	if outcome.Message != "Есть взаимная симпатия!" {
		t.Fatalf("unexpected match message: %q", outcome.Message)
	}
	if outcome.LoverEmail != "alice@example.com" {
		t.Fatalf("unexpected lover email: %q", outcome.LoverEmail)
	}

	if has, _ := affinity.HasEdge(ctx, 101, 202); has {
		t.Fatalf("edge 101->202 must be cleared after match")
	}
	if has, _ := affinity.HasEdge(ctx, 202, 101); has {
		t.Fatalf("edge 202->101 must be cleared after match")
	}

	if n.count() != 1 {
		t.Fatalf("expected exactly one match event, got %d", n.count())
	}
	event := n.events[0]
	if event.ID == "" {
		t.Fatalf("match event must carry an id")
	}
	if event.UserA.Email != "bob@example.com" || event.UserB.Email != "alice@example.com" {
		t.Fatalf("unexpected event parties: %+v", event)
	}
}

func TestRateAfterResolvedMatchStartsFresh(t *testing.T) {
	svc, affinity := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Rate(ctx, 101, 202); err != nil {
		t.Fatalf("rate 101->202: %v", err)
	}
	if _, err := svc.Rate(ctx, 202, 101); err != nil {
		t.Fatalf("rate 202->101: %v", err)
	}

	outcome, err := svc.Rate(ctx, 101, 202)
	if err != nil {
		t.Fatalf("rate after resolved match: %v", err)
	}
	if outcome.Matched {
		t.Fatalf("rating after a resolved match must record a fresh edge")
	}
	if has, _ := affinity.HasEdge(ctx, 101, 202); !has {
		t.Fatalf("expected fresh edge 101->202")
	}
}

func TestRateRejectsSelfRating(t *testing.T) {
	svc, affinity := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Rate(ctx, 101, 101); !errors.Is(err, ErrSelfRating) {
		t.Fatalf("expected ErrSelfRating, got %v", err)
	}
	if has, _ := affinity.HasEdge(ctx, 101, 101); has {
		t.Fatalf("self rating must not mutate state")
	}
}

func TestRateUnknownTarget(t *testing.T) {
	svc, _ := newTestService(nil)

	if _, err := svc.Rate(context.Background(), 101, 999); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestRateRespectsRateLimiter(t *testing.T) {
	affinity := memory.NewAffinityRepo()
	directory := memory.NewUserDirectory(
		model.User{ID: 101, Username: "alice"},
		model.User{ID: 202, Username: "bob"},
	)
	svc := NewService(Dependencies{
		Affinity:    affinity,
		Directory:   directory,
		RateLimiter: rateLimiterStub{retryAfter: 7, allowed: false},
	})

	_, err := svc.Rate(context.Background(), 101, 202)
	tf, ok := IsTooFast(err)
	if !ok {
		t.Fatalf("expected TooFastError, got %v", err)
	}
	if tf.RetryAfter() != 7 {
		t.Fatalf("unexpected retry_after: got %d want 7", tf.RetryAfter())
	}
	if has, _ := affinity.HasEdge(context.Background(), 101, 202); has {
		t.Fatalf("rate-limited call must not mutate state")
	}
}

func TestConcurrentOppositeRatingsProduceExactlyOneMatch(t *testing.T) {
	ctx := context.Background()

	// Repeat to give the race a chance to show up under -race.
	for i := 0; i < 200; i++ {
		n := &notifierStub{}
		svc, affinity := newTestService(n)

		var (
			wg       sync.WaitGroup
			outcomes [2]Outcome
			errs     [2]error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			outcomes[0], errs[0] = svc.Rate(ctx, 101, 202)
		}()
		go func() {
			defer wg.Done()
			outcomes[1], errs[1] = svc.Rate(ctx, 202, 101)
		}()
		wg.Wait()

		for i, err := range errs {
			if err != nil && !errors.Is(err, ErrAlreadyRated) {
				t.Fatalf("unexpected error from call %d: %v", i, err)
			}
		}

		matched := 0
		for _, o := range outcomes {
			if o.Matched {
				matched++
			}
		}
		if matched != 1 {
			t.Fatalf("expected exactly one matched outcome, got %d (outcomes=%+v errs=%v)", matched, outcomes, errs)
		}
		if n.count() != 1 {
			t.Fatalf("expected exactly one match event, got %d", n.count())
		}

		if has, _ := affinity.HasEdge(ctx, 101, 202); has {
			t.Fatalf("edge 101->202 left set after concurrent match")
		}
		if has, _ := affinity.HasEdge(ctx, 202, 101); has {
			t.Fatalf("edge 202->101 left set after concurrent match")
		}
	}
}

func TestAdmirersResolvesRaters(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := context.Background()

	if _, err := svc.Rate(ctx, 202, 101); err != nil {
		t.Fatalf("rate 202->101: %v", err)
	}
	if _, err := svc.Rate(ctx, 303, 101); err != nil {
		t.Fatalf("rate 303->101: %v", err)
	}

	admirers, err := svc.Admirers(ctx, 101)
	if err != nil {
		t.Fatalf("admirers: %v", err)
	}
	if len(admirers) != 2 {
		t.Fatalf("expected two admirers, got %d", len(admirers))
	}

	seen := map[int64]bool{}
	for _, u := range admirers {
		seen[u.ID] = true
	}
	if !seen[202] || !seen[303] {
		t.Fatalf("unexpected admirer set: %+v", admirers)
	}
}

func TestNotifierFailureDoesNotFailTheMatch(t *testing.T) {
	n := &notifierStub{err: errors.New("delivery down")}
	svc, affinity := newTestService(n)
	ctx := context.Background()

	if _, err := svc.Rate(ctx, 101, 202); err != nil {
		t.Fatalf("rate 101->202: %v", err)
	}

	outcome, err := svc.Rate(ctx, 202, 101)
	if err != nil {
		t.Fatalf("rate 202->101 with failing notifier: %v", err)
	}
	if !outcome.Matched {
		t.Fatalf("match must be reported even when delivery fails")
	}
	if has, _ := affinity.HasEdge(ctx, 101, 202); has {
		t.Fatalf("edges must be cleared even when delivery fails")
	}
}
