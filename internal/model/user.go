package model

import (
	"time"
)

// User represents a registered account
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	IsActive   bool      `json:"isActive"`
	DateJoined time.Time `json:"dateJoined"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AbsoluteURL returns the canonical path of the user's detail page
func (u *User) AbsoluteURL() string {
	return "/users/" + u.ID + "/"
}
