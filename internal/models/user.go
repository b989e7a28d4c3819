package models

import "time"

type User struct {
	ID           int64     `json:"id" yaml:"-"`
	Name         string    `json:"name" yaml:"name"`
	Username     string    `json:"username" yaml:"username"`
	Email        string    `json:"email" yaml:"email"`
	Role         string    `json:"role" yaml:"role"`
	PasswordHash string    `json:"-" yaml:"-"`
	CreatedAt    time.Time `json:"created_at" yaml:"-"`
}

// Identity is the caller of a request as resolved from its credentials.
// An empty Role means the caller is anonymous.
type Identity struct {
	Username string
	Role     string
}

func (i Identity) Authenticated() bool {
	return i.Role != ""
}

// Anonymous is the identity of a request without usable credentials.
var Anonymous = Identity{}
