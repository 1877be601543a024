package models

import "time"

// User represents a row in the PostgreSQL users table.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"` // bcrypt hash, never serialize
	CreatedAt time.Time `json:"created_at"`
}

// RegisterForm holds the fields posted to /register.
type RegisterForm struct {
	Username string
	Password string
	Email    string
}

// LoginForm holds the fields posted to /login.
type LoginForm struct {
	Username string
	Password string
}
