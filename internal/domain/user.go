package domain

import "time"

// User is an account holder. The ledger core only ever references the ID;
// credentials live behind the auth gateway.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"` // unique, lowercase
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
