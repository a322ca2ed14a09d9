package model

import "time"

type Person struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	PhoneNo      string    `json:"phoneNo"`
	Email        *string   `json:"email"`
	Category     *string   `json:"category"`
	Role         *string   `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Owner is the projection of a person embedded in schedule listings.
type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type NewPerson struct {
	Name         string
	PhoneNo      string
	Username     string
	PasswordHash string
	Email        *string
	Category     *string
	Role         *string
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Name     string `json:"name"`
	PhoneNo  string `json:"phoneNo"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Category string `json:"category"`
	Role     string `json:"role"`
}

// LoginRequest is the body of POST /auth/login. Identifier is a username or
// a phone number.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}
