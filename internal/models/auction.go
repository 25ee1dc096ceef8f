package models

import (
	"maps"
	"slices"
	"time"
)

// AuctionStatus is the state of one cycle's auction. Open → Settled, nothing else.
type AuctionStatus string

const (
	AuctionOpen    AuctionStatus = "open"
	AuctionSettled AuctionStatus = "settled"
)

// Bid is one member's offer: the amount they accept to contribute this cycle
// in exchange for taking the pool now.
type Bid struct {
	Member      string
	Amount      Amount
	SubmittedAt time.Time

	// Seq is the insertion order within the auction, used when timestamps collide.
	Seq int
}

// Auction is the reverse auction for one (group, cycle) pair.
type Auction struct {
	GroupID string
	Cycle   int

	// Bids holds at most one bid per member.
	Bids map[string]Bid

	OpenedAt time.Time
	EndTime  time.Time
	Status   AuctionStatus

	// Extensions counts how many times the deadline was pushed back after closing empty.
	Extensions int

	// Populated on settlement.
	Winner     string
	WinningBid Amount
	Discount   Amount
	SettledAt  time.Time
}

// IsOpen reports whether the auction still accepts bids (ignoring the deadline).
func (a *Auction) IsOpen() bool {
	return a.Status == AuctionOpen
}

// Expired reports whether the deadline has passed at now.
func (a *Auction) Expired(now time.Time) bool {
	return !now.Before(a.EndTime)
}

// Ranked returns the bids ordered best first: lowest amount, then earliest
// submission, then insertion order. The order does not depend on map iteration.
func (a *Auction) Ranked() []Bid {
	bids := slices.Collect(maps.Values(a.Bids))
	slices.SortFunc(bids, compareBids)
	return bids
}

func compareBids(x, y Bid) int {
	switch {
	case x.Amount != y.Amount:
		if x.Amount < y.Amount {
			return -1
		}
		return 1
	case !x.SubmittedAt.Equal(y.SubmittedAt):
		if x.SubmittedAt.Before(y.SubmittedAt) {
			return -1
		}
		return 1
	default:
		return x.Seq - y.Seq
	}
}

// Clone returns a deep copy.
func (a *Auction) Clone() *Auction {
	c := *a
	c.Bids = maps.Clone(a.Bids)
	if c.Bids == nil {
		c.Bids = make(map[string]Bid)
	}
	return &c
}
