// Package lifecycle drives a group through Forming → Active → Completed and is the
// single point of exclusive access to a group's roster, auction and ledger.
package lifecycle

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/mmynk/chitfund/internal/auction"
	"github.com/mmynk/chitfund/internal/ledger"
	"github.com/mmynk/chitfund/internal/membership"
	"github.com/mmynk/chitfund/internal/models"
)

// transitions lists the allowed status changes. There are no regressions.
var transitions = map[models.GroupStatus][]models.GroupStatus{
	models.GroupForming: {models.GroupActive},
	models.GroupActive:  {models.GroupCompleted},
}

// Group guards one chit fund group. Every method locks the group, so a late bid and a
// settlement can never both succeed. Returned values are copies.
type Group struct {
	mu      sync.Mutex
	group   *models.Group
	current *models.Auction
	history []*models.Auction
	ledger  *ledger.Ledger
	engine  *auction.Engine
}

// New creates a Forming group with the creator as its only member.
func New(id string, p membership.Params, engine *auction.Engine) (*Group, error) {
	g, err := membership.NewGroup(id, p, engine.Now().Unix())
	if err != nil {
		return nil, err
	}
	g.Version = 1
	return &Group{
		group:  g,
		ledger: ledger.New(id),
		engine: engine,
	}, nil
}

// Restore rebuilds a group from a snapshot.
func Restore(snap *models.GroupSnapshot, engine *auction.Engine) (*Group, error) {
	if snap == nil || snap.Group == nil {
		return nil, fmt.Errorf("%w: empty snapshot", models.ErrValidation)
	}
	g := snap.Group.Clone()
	if len(g.Winners) != g.CurrentCycle {
		return nil, fmt.Errorf("%w: group %s has %d winners for %d settled cycles", models.ErrValidation, g.ID, len(g.Winners), g.CurrentCycle)
	}
	l, err := ledger.Restore(g.ID, snap.Entries)
	if err != nil {
		return nil, err
	}

	out := &Group{group: g, ledger: l, engine: engine}
	if snap.Current != nil {
		if !snap.Current.IsOpen() {
			return nil, fmt.Errorf("%w: current auction of group %s is %s", models.ErrValidation, g.ID, snap.Current.Status)
		}
		out.current = snap.Current.Clone()
	}
	for _, a := range snap.History {
		out.history = append(out.history, a.Clone())
	}
	return out, nil
}

// ID returns the group identifier.
func (g *Group) ID() string {
	return g.group.ID
}

func (g *Group) transition(to models.GroupStatus) error {
	from := g.group.Status
	if !slices.Contains(transitions[from], to) {
		return models.NewStateError("transition to "+string(to), fmt.Sprintf("%v", transitions[from]), string(from))
	}
	g.group.Status = to
	return nil
}

func (g *Group) requireStatus(op string, want models.GroupStatus) error {
	if g.group.Status != want {
		return models.NewStateError(op, string(want), string(g.group.Status))
	}
	return nil
}

// Join admits member. The group becomes Active when the roster fills.
func (g *Group) Join(member string) (*models.Group, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	full, err := membership.Join(g.group, member)
	if err != nil {
		return nil, err
	}
	if full {
		if err := g.transition(models.GroupActive); err != nil {
			return nil, err
		}
	}
	g.group.Version++
	return g.group.Clone(), nil
}

// OpenCycle starts the auction for the next cycle.
func (g *Group) OpenCycle() (*models.Auction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireStatus("open cycle", models.GroupActive); err != nil {
		return nil, err
	}
	a, err := g.engine.Open(g.group, g.current)
	if err != nil {
		return nil, err
	}
	g.current = a
	g.group.Version++
	return a.Clone(), nil
}

// PlaceBid submits member's bid in the open auction.
func (g *Group) PlaceBid(member string, amount models.Amount) (models.Bid, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireStatus("place bid", models.GroupActive); err != nil {
		return models.Bid{}, err
	}
	if g.current == nil {
		return models.Bid{}, models.NewStateError("place bid", "open auction", "no auction")
	}
	bid, err := g.engine.PlaceBid(g.group, g.current, member, amount)
	if err != nil {
		return models.Bid{}, err
	}
	g.group.Version++
	return bid, nil
}

// CanSettle reports whether the open auction is ready to settle.
func (g *Group) CanSettle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.group.Status == models.GroupActive && g.engine.CanSettle(g.group, g.current)
}

// Settle settles the open auction, archives it and advances the group. The group
// completes when its last cycle settles or when no member is left who has not won.
func (g *Group) Settle() (*models.Settlement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireStatus("settle", models.GroupActive); err != nil {
		return nil, err
	}
	if g.current == nil {
		return nil, models.NewStateError("settle", "open auction", "no auction")
	}
	s, err := g.engine.Settle(g.group, g.current, g.ledger)
	if err != nil {
		return nil, err
	}

	g.history = append(g.history, g.current)
	g.current = nil

	if g.group.CurrentCycle == g.group.DurationCycles || len(g.group.EligibleBidders()) == 0 {
		if err := g.transition(models.GroupCompleted); err != nil {
			return nil, err
		}
		s.Completed = true
	}
	g.group.Version++
	return s, nil
}

// ExtendCycle pushes back the deadline of an auction that closed without bids.
func (g *Group) ExtendCycle(window time.Duration) (*models.Auction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.requireStatus("extend cycle", models.GroupActive); err != nil {
		return nil, err
	}
	if g.current == nil {
		return nil, models.NewStateError("extend cycle", "open auction", "no auction")
	}
	if err := g.engine.Extend(g.current, window); err != nil {
		return nil, err
	}
	g.group.Version++
	return g.current.Clone(), nil
}

// Summary returns a copy of the group.
func (g *Group) Summary() *models.Group {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.group.Clone()
}

// CurrentAuction returns a copy of the open auction, or an error if there is none.
func (g *Group) CurrentAuction() (*models.Auction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.current == nil {
		return nil, models.NewStateError("get auction", "open auction", "no auction")
	}
	return g.current.Clone(), nil
}

// History returns copies of settled auctions in cycle order.
func (g *Group) History() []*models.Auction {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*models.Auction, len(g.history))
	for i, a := range g.history {
		out[i] = a.Clone()
	}
	return out
}

// Balance returns member's ledger balance.
func (g *Group) Balance(member string) ledger.Balance {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ledger.Balance(member)
}

// Snapshot captures the whole group for persistence.
func (g *Group) Snapshot() *models.GroupSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	snap := &models.GroupSnapshot{
		Group:   g.group.Clone(),
		Entries: g.ledger.All(),
	}
	if g.current != nil {
		snap.Current = g.current.Clone()
	}
	for _, a := range g.history {
		snap.History = append(snap.History, a.Clone())
	}
	return snap
}

// Participation summarizes member's involvement in the group; ok is false when
// member is not on the roster.
func (g *Group) Participation(member string) (p models.Participation, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.group.IsMember(member) {
		return models.Participation{}, false
	}
	bal := g.ledger.Balance(member)
	return models.Participation{
		GroupID:          g.group.ID,
		GroupName:        g.group.Name,
		Status:           g.group.Status,
		CurrentCycle:     g.group.CurrentCycle,
		DurationCycles:   g.group.DurationCycles,
		WonCycle:         g.group.WonCycle(member),
		Contributed:      bal.Contributed,
		PayoutReceived:   bal.PayoutReceived,
		DiscountReceived: bal.DiscountReceived,
	}, true
}
