package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
// The wallet address is the member identifier used in groups; the core treats it
// as an opaque string.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Address is the user's wallet address (unique). Used as the member identifier.
	Address string

	// DisplayName is the name shown to other members.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps.
func NewUser(address, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Address:      address,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Participation is one line of a member's history across groups.
type Participation struct {
	GroupID   string
	GroupName string
	Status    GroupStatus

	// CurrentCycle and DurationCycles locate the group in its run.
	CurrentCycle   int
	DurationCycles int

	// WonCycle is the cycle the member won, 0 if not yet.
	WonCycle int

	Contributed      Amount
	PayoutReceived   Amount
	DiscountReceived Amount
}

// MemberProfile aggregates a member's position across all groups.
type MemberProfile struct {
	Member                string
	TotalGroups           int
	TotalContributed      Amount
	TotalPayoutReceived   Amount
	TotalDiscountReceived Amount
	Participations        []Participation
}
