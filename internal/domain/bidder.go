package domain

import "github.com/google/uuid"

// Bidder is a registered identity allowed to place bids. Email is unique
// case-insensitively across all bidders.
type Bidder struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// NewBidder creates a bidder with a fresh id.
func NewBidder(name, email string) *Bidder {
	return &Bidder{
		ID:    uuid.New(),
		Name:  name,
		Email: email,
	}
}
