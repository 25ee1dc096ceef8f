package models

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by the core wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrGroupFull        = errors.New("group is full")
	ErrAlreadyMember    = errors.New("already a member of this group")
	ErrIneligibleBidder = errors.New("member is not eligible to bid")
	ErrDuplicateBid     = errors.New("member already bid in this cycle")
	ErrInvalidBid       = errors.New("bid must be greater than zero and less than the contribution")
	ErrInvalidState     = errors.New("invalid state")
	ErrNoBids           = errors.New("no bids were placed")
	ErrInvalidAmount    = errors.New("amount must not be negative")
	ErrGroupNotFound    = errors.New("group not found")
)

// StateError reports an operation attempted in the wrong state.
type StateError struct {
	Op       string
	Expected string
	Actual   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Op, e.Expected, e.Actual)
}

// Is makes errors.Is(err, ErrInvalidState) match.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// NewStateError builds a StateError.
func NewStateError(op, expected, actual string) error {
	return &StateError{Op: op, Expected: expected, Actual: actual}
}

var kinds = []struct {
	err  error
	name string
}{
	{ErrValidation, "ValidationError"},
	{ErrGroupFull, "GroupFullError"},
	{ErrAlreadyMember, "AlreadyMemberError"},
	{ErrIneligibleBidder, "IneligibleBidderError"},
	{ErrDuplicateBid, "DuplicateBidError"},
	{ErrInvalidBid, "InvalidBidError"},
	{ErrInvalidState, "InvalidStateError"},
	{ErrNoBids, "NoBidsError"},
	{ErrInvalidAmount, "InvalidAmountError"},
	{ErrGroupNotFound, "GroupNotFoundError"},
}

// ErrorKind names the taxonomy entry err belongs to, or "" if none.
func ErrorKind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return ""
}
