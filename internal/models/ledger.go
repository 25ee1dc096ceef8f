package models

// LedgerEntry records what one member contributed and received in one settled cycle.
// Entries are created at settlement and never modified afterwards.
type LedgerEntry struct {
	GroupID string
	Member  string
	Cycle   int

	// Contributed is what the member actually pays into the pool this cycle.
	Contributed Amount

	// PayoutReceived is the full pool for the cycle winner, zero otherwise.
	PayoutReceived Amount

	// DiscountReceived is the member's share of the winner's discount. Zero for the winner.
	DiscountReceived Amount

	// DiscountForgone is the discount the winner gave up. Zero for everyone else.
	// Contributed + DiscountReceived + DiscountForgone always equals the group's
	// contribution amount.
	DiscountForgone Amount
}

// Gross returns the member's full obligation for the cycle.
func (e LedgerEntry) Gross() Amount {
	return e.Contributed + e.DiscountReceived + e.DiscountForgone
}

// Settlement is the outcome of settling one cycle.
type Settlement struct {
	GroupID    string
	Cycle      int
	Winner     string
	WinningBid Amount

	// Discount is ContributionAmount - WinningBid.
	Discount Amount

	// DiscountPerMember is the even share each non-winner receives.
	DiscountPerMember Amount

	// Remainder is the part of Discount that does not divide evenly; it goes to RemainderTo.
	Remainder   Amount
	RemainderTo string

	// Pool is the payout the winner receives.
	Pool Amount

	// Entries are the ledger entries posted for this cycle, in roster order.
	Entries []LedgerEntry

	// Completed is true when this settlement finished the group.
	Completed bool
}

// GroupSnapshot is everything needed to persist and rebuild one group.
type GroupSnapshot struct {
	Group   *Group
	Current *Auction // open auction, nil when none
	History []*Auction
	Entries []LedgerEntry
}
