// Package memory holds in-process implementations of the affinity store
// and the user directory. They back the service tests and let the API boot
// without postgres, mirroring the degraded mode the app supports.
package memory

import (
	"context"
	"sync"

	pgrepo "github.com/Sazoks/apptrix-test/internal/repo/postgres"
)

type edge struct {
	rater int64
	rated int64
}

type AffinityRepo struct {
	mu    sync.RWMutex
	edges map[edge]struct{}
}

func NewAffinityRepo() *AffinityRepo {
	return &AffinityRepo{edges: make(map[edge]struct{})}
}

func (r *AffinityRepo) HasEdge(_ context.Context, raterID, ratedID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.edges[edge{rater: raterID, rated: ratedID}]
	return ok, nil
}

func (r *AffinityRepo) AddEdge(_ context.Context, raterID, ratedID int64) error {
	if raterID == ratedID {
		return pgrepo.ErrSelfReference
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.edges[edge{rater: raterID, rated: ratedID}] = struct{}{}
	return nil
}

func (r *AffinityRepo) RemoveEdge(_ context.Context, raterID, ratedID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.edges, edge{rater: raterID, rated: ratedID})
	return nil
}

func (r *AffinityRepo) ClearMutual(_ context.Context, userA, userB int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.edges, edge{rater: userA, rated: userB})
	delete(r.edges, edge{rater: userB, rated: userA})
	return nil
}

func (r *AffinityRepo) RatersOf(_ context.Context, userID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []int64
	for e := range r.edges {
		if e.rated == userID {
			ids = append(ids, e.rater)
		}
	}
	return ids, nil
}
