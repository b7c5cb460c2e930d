// Package models contains the persisted and projected shapes of a portal user.
package models

import "time"

// User is a row of the users (profile) table. UserName is the join key
// with Credential and never changes after creation.
type User struct {
	ID          int64
	UserName    string
	DisplayName string
	Email       string
	Enabled     bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Summary projects the user into the read-only form handed to callers.
func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID: u.UserName,
		Name:   u.DisplayName,
		Email:  u.Email,
	}
}

// UserSummary is what lookups and searches return.
type UserSummary struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Credential is the security-side record for a username.
type Credential struct {
	UserName     string
	PasswordHash string
	Authorities  []string
	Enabled      bool
}

// UserCandidate is the input of a create-or-update call.
type UserCandidate struct {
	UserName    string `json:"username" validate:"required,max=64"`
	Password    string `json:"password" validate:"required,min=6,maxbytes=72"`
	Email       string `json:"email" validate:"required,email,max=64"`
	DisplayName string `json:"userDisplayName" validate:"max=512"`
}

// Summaries maps users to their projections, always returning a non-nil slice.
func Summaries(users []*User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for _, u := range users {
		out = append(out, u.Summary())
	}
	return out
}
