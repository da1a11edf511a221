// Package model defines domain entities for the application.
package model

import (
	"slices"
	"time"
)

// DefaultStatus is assigned to every user at signup.
const DefaultStatus = "I am new!"

// User is a registered author.
// PostIDs is the owned-post set and always mirrors the posts whose creator is this user.
type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Status       string    `json:"status"`
	PostIDs      []string  `json:"posts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// OwnsPost reports whether postID is in the user's owned-post set.
func (u *User) OwnsPost(postID string) bool {
	return slices.Contains(u.PostIDs, postID)
}

// Identity is the authenticated caller decoded from a bearer token.
// It is injected into the request context by the auth middleware.
type Identity struct {
	UserID string
	Email  string
}
