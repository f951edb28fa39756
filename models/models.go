package models

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated identity a request or view acts as.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Item is a single to-do entry. Owner is always assigned by the platform.
type Item struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Completed bool      `json:"completed"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

type UserSettings struct {
	Owner       string `json:"owner"`
	DisplayName string `json:"display_name"`
}

// Session is the token pair handed out by sign-in and refresh.
type Session struct {
	AccessToken  string    `json:"token" yaml:"access_token"`
	RefreshToken string    `json:"refresh_token" yaml:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" yaml:"expires_at"`
	User         Principal `json:"user" yaml:"user"`
}
