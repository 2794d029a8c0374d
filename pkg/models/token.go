package models

import "time"

// Token is a camera session token
type Token struct {
	Value     string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Valid reports whether the token can be used at the given instant
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}
