// Package models holds the persisted entities of the drive: users, folders
// and the text files inside them.
package models

import "time"

type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Role         Role
	OIDCProvider string
	OIDCID       string
	CreatedAt    time.Time
}

// ExternalIdentity is what an external identity provider tells us about a
// user after a successful handshake.
type ExternalIdentity struct {
	Provider string
	ID       string
	Login    string
	Email    string
}

// PreferredUserName is the email when the provider disclosed one and the
// login handle otherwise.
func (e ExternalIdentity) PreferredUserName() string {
	if e.Email != "" {
		return e.Email
	}
	return e.Login
}
