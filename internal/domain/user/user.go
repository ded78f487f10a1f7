package user

import "context"

// User is the minimal identity the booking engine needs: callers are
// trusted numeric ids, users are only ever looked up, never mutated here.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Repository defines the identity lookup contract.
type Repository interface {
	// GetByID retrieves a user or a not-found error.
	GetByID(ctx context.Context, id int64) (*User, error)
}
