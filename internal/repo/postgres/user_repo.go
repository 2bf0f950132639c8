package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sazoks/apptrix-test/internal/domain/model"
	"github.com/Sazoks/apptrix-test/internal/geo"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepo is the user directory backed by the users/profiles tables.
// Profile attributes are optional; a user without a profile row has no
// coordinate and is invisible to distance queries.
type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

type ListFilter struct {
	Gender    string
	FirstName string
	LastName  string
}

const userColumns = `
	u.id,
	u.username,
	COALESCE(u.first_name, ''),
	COALESCE(u.last_name, ''),
	COALESCE(u.email, ''),
	COALESCE(p.gender, ''),
	p.latitude,
	p.longitude
`

func (r *UserRepo) GetByID(ctx context.Context, userID int64) (model.User, error) {
	if userID <= 0 {
		return model.User{}, fmt.Errorf("invalid user id")
	}
	if r.pool == nil {
		return model.User{}, fmt.Errorf("postgres pool is nil")
	}

	row := r.pool.QueryRow(ctx, `
SELECT `+userColumns+`
FROM users u
LEFT JOIN profiles p ON p.user_id = u.id
WHERE u.id = $1
`, userID)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (r *UserRepo) List(ctx context.Context, filter ListFilter) ([]model.User, error) {
	if r.pool == nil {
		return []model.User{}, nil
	}

	query := `
SELECT ` + userColumns + `
FROM users u
LEFT JOIN profiles p ON p.user_id = u.id
`
	var (
		conds []string
		args  []any
	)
	if strings.TrimSpace(filter.Gender) != "" {
		args = append(args, filter.Gender)
		conds = append(conds, fmt.Sprintf("p.gender = $%d", len(args)))
	}
	if strings.TrimSpace(filter.FirstName) != "" {
		args = append(args, filter.FirstName)
		conds = append(conds, fmt.Sprintf("u.first_name = $%d", len(args)))
	}
	if strings.TrimSpace(filter.LastName) != "" {
		args = append(args, filter.LastName)
		conds = append(conds, fmt.Sprintf("u.last_name = $%d", len(args)))
	}
	if len(conds) > 0 {
		query += "WHERE " + strings.Join(conds, " AND ") + "\n"
	}
	query += "ORDER BY u.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate users: %w", rows.Err())
	}

	return users, nil
}

func scanUser(row pgx.Row) (model.User, error) {
	var (
		user     model.User
		lat, lon *float64
	)
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Gender,
		&lat,
		&lon,
	); err != nil {
		return model.User{}, err
	}

	if lat != nil && lon != nil {
		user.Coordinate = &geo.Coordinate{Lat: *lat, Lon: *lon}
	}

	return user, nil
}
