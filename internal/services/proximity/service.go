// Package proximity answers "who is within R kilometers of this user",
// brute-force over the directory. The dataset is small enough that a full
// scan per request beats maintaining a spatial index.
package proximity

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Sazoks/apptrix-test/internal/domain/model"
	"github.com/Sazoks/apptrix-test/internal/geo"
	pgrepo "github.com/Sazoks/apptrix-test/internal/repo/postgres"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrOriginNotFound = errors.New("origin user has no resolvable coordinate")
)

type UserDirectory interface {
	GetByID(ctx context.Context, userID int64) (model.User, error)
	List(ctx context.Context, filter pgrepo.ListFilter) ([]model.User, error)
}

// Filters narrows the candidate set before any distance math. Nearest
// switches the result to ascending distance; the default order is
// directory order, annotated with distances.
type Filters struct {
	Gender    string
	FirstName string
	LastName  string
	Nearest   bool
}

type Candidate struct {
	User       model.User
	DistanceKM float64
}

type Service struct {
	directory UserDirectory
}

func NewService(directory UserDirectory) *Service {
	return &Service{directory: directory}
}

// ListWithin returns every candidate within maxKm of the origin user's
// stored coordinate. The origin itself and candidates without coordinates
// are excluded. Results are materialized per call; coordinates may change
// between requests.
func (s *Service) ListWithin(ctx context.Context, originID int64, maxKm float64, filters Filters) ([]Candidate, error) {
	if originID <= 0 {
		return nil, ErrValidation
	}
	if maxKm < 0 {
		return nil, fmt.Errorf("negative max distance: %w", ErrValidation)
	}
	if s.directory == nil {
		return nil, fmt.Errorf("proximity directory is not configured")
	}

	origin, err := s.directory.GetByID(ctx, originID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrUserNotFound) {
			return nil, ErrOriginNotFound
		}
		return nil, fmt.Errorf("resolve origin: %w", err)
	}
	if origin.Coordinate == nil {
		return nil, ErrOriginNotFound
	}

	users, err := s.directory.List(ctx, pgrepo.ListFilter{
		Gender:    filters.Gender,
		FirstName: filters.FirstName,
		LastName:  filters.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	candidates := make([]Candidate, 0, len(users))
	for _, user := range users {
		if user.ID == origin.ID || user.Coordinate == nil {
			continue
		}

		distance := geo.DistanceKM(*origin.Coordinate, *user.Coordinate)
		if distance > maxKm {
			continue
		}

		candidates = append(candidates, Candidate{
			User:       user,
			DistanceKM: distance,
		})
	}

	if filters.Nearest {
		sort.Slice(candidates, func(i, j int) bool {
			return candidates[i].DistanceKM < candidates[j].DistanceKM
		})
	}

	return candidates, nil
}
