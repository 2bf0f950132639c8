package dto

type LikeResponse struct {
	Msg         string `json:"msg"`
	LoversEmail string `json:"lovers_email,omitempty"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Gender    string `json:"gender"`
}

type UserWithDistanceResponse struct {
	UserResponse
	DistanceKM float64 `json:"distance_to_user"`
}

type UserListResponse struct {
	Items []UserResponse `json:"items"`
}

type UserDistanceListResponse struct {
	Items []UserWithDistanceResponse `json:"items"`
}
