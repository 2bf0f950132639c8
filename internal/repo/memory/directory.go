package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Sazoks/apptrix-test/internal/domain/model"
	pgrepo "github.com/Sazoks/apptrix-test/internal/repo/postgres"
)

type UserDirectory struct {
	mu    sync.RWMutex
	users map[int64]model.User
}

func NewUserDirectory(users ...model.User) *UserDirectory {
	d := &UserDirectory{users: make(map[int64]model.User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *UserDirectory) Put(user model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.users[user.ID] = user
}

func (d *UserDirectory) GetByID(_ context.Context, userID int64) (model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	user, ok := d.users[userID]
	if !ok {
		return model.User{}, pgrepo.ErrUserNotFound
	}
	return user, nil
}

func (d *UserDirectory) List(_ context.Context, filter pgrepo.ListFilter) ([]model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	users := make([]model.User, 0, len(d.users))
	for _, u := range d.users {
		if !matches(u, filter) {
			continue
		}
		users = append(users, u)
	}

	// Stable directory order, like the SQL directory.
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users, nil
}

func matches(u model.User, filter pgrepo.ListFilter) bool {
	if strings.TrimSpace(filter.Gender) != "" && u.Gender != filter.Gender {
		return false
	}
	if strings.TrimSpace(filter.FirstName) != "" && u.FirstName != filter.FirstName {
		return false
	}
	if strings.TrimSpace(filter.LastName) != "" && u.LastName != filter.LastName {
		return false
	}
	return true
}
