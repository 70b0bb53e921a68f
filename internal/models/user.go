package models

import "time"

// User represents an account. Email is the login identity and is unique.
type User struct {
	ID           string    `json:"_id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// Public returns a copy of the user without the password hash.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
