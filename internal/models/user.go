package models

import "time"

const (
	RoleEntrepreneur = "entrepreneur"
	RoleInvestor     = "investor"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	AvatarURL string    `json:"avatarUrl"`
	IsOnline  bool      `json:"isOnline"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserSummary is the participant shape attached to conversation listings.
type UserSummary struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatarUrl"`
	IsOnline  bool   `json:"isOnline"`
}

func ValidRole(role string) bool {
	return role == RoleEntrepreneur || role == RoleInvestor
}
