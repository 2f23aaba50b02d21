package models

import "time"

// User is an account created on first sign-in through the identity provider.
type User struct {
	ID        string    `json:"id"`
	GoogleID  string    `json:"googleId"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionUser is the identity attached to an authenticated request.
type SessionUser struct {
	ID       string  `json:"id"`
	GoogleID string  `json:"googleId"`
	Email    string  `json:"email"`
	Name     *string `json:"name"`
}

func (u *User) SessionUser() *SessionUser {
	return &SessionUser{
		ID:       u.ID,
		GoogleID: u.GoogleID,
		Email:    u.Email,
		Name:     u.Name,
	}
}
