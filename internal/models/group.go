package models

import "slices"

// Amount is a currency value in integer minor units (e.g. cents).
type Amount int64

// GroupStatus is the lifecycle state of a group.
type GroupStatus string

const (
	// GroupForming accepts joins until the roster is full.
	GroupForming GroupStatus = "forming"
	// GroupActive runs one auction per cycle.
	GroupActive GroupStatus = "active"
	// GroupCompleted is terminal.
	GroupCompleted GroupStatus = "completed"
)

// Group represents a chit fund group.
// A group owns its auctions and ledger entries; members are referenced by identifier.
type Group struct {
	// ID is the unique identifier for the group (UUID format). Immutable.
	ID string

	// Name is the display name of the group (e.g., "Tech Professionals Savings").
	Name string

	// ContributionAmount is what every member owes per cycle. Fixed for the group's lifetime.
	ContributionAmount Amount

	// TotalMembers is the roster capacity (3..50).
	TotalMembers int

	// DurationCycles is the number of cycles the group runs. Never less than TotalMembers.
	DurationCycles int

	// Members is the roster in join order. The creator is always first.
	Members []string

	// CurrentCycle counts settled cycles; 0 before the first auction settles.
	CurrentCycle int

	// Status is the lifecycle state.
	Status GroupStatus

	// Winners lists cycle winners in cycle order; Winners[i] won cycle i+1.
	Winners []string

	// CreatedBy is the member identifier of the creator.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// Version increases on every mutation so stale snapshots can be discarded.
	Version int64
}

// CurrentMembers returns the roster size.
func (g *Group) CurrentMembers() int {
	return len(g.Members)
}

// IsFull reports whether the roster reached capacity.
func (g *Group) IsFull() bool {
	return len(g.Members) >= g.TotalMembers
}

// IsMember reports whether member is on the roster.
func (g *Group) IsMember(member string) bool {
	return slices.Contains(g.Members, member)
}

// HasWon reports whether member already won a cycle.
func (g *Group) HasWon(member string) bool {
	return slices.Contains(g.Winners, member)
}

// EligibleBidders returns roster members who have not won yet, in roster order.
func (g *Group) EligibleBidders() []string {
	eligible := make([]string, 0, len(g.Members)-len(g.Winners))
	for _, m := range g.Members {
		if !g.HasWon(m) {
			eligible = append(eligible, m)
		}
	}
	return eligible
}

// WonCycle returns the cycle member won, or 0.
func (g *Group) WonCycle(member string) int {
	if i := slices.Index(g.Winners, member); i >= 0 {
		return i + 1
	}
	return 0
}

// Pool is the full payout a cycle winner receives.
func (g *Group) Pool() Amount {
	return g.ContributionAmount * Amount(len(g.Members))
}

// Clone returns a deep copy safe to hand to callers.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = slices.Clone(g.Members)
	c.Winners = slices.Clone(g.Winners)
	return &c
}
