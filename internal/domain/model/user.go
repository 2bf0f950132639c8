package model

import "github.com/Sazoks/apptrix-test/internal/geo"

const (
	GenderMale   = "M"
	GenderFemale = "F"
)

type User struct {
	ID         int64           `json:"id"`
	Username   string          `json:"username"`
	FirstName  string          `json:"first_name"`
	LastName   string          `json:"last_name"`
	Email      string          `json:"email"`
	Gender     string          `json:"gender"`
	Coordinate *geo.Coordinate `json:"-"`
}

// DisplayName is what user-facing messages call the user.
func (u User) DisplayName() string {
	return u.Username
}
