package models

import (
	"time"
)

// User represents a worker that tasks rotate through
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a copy safe to mutate.
func (u *User) Clone() *User {
	c := *u
	return &c
}
