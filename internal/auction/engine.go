// Package auction runs the per-cycle reverse auction of a chit fund group: it accepts
// bids, picks the lowest one and distributes the resulting discount through the ledger.
//
// The engine holds no per-group state. Callers pass the group, its current auction and
// its ledger, and must serialize calls for the same group.
package auction

import (
	"fmt"
	"time"

	"github.com/mmynk/chitfund/internal/clock"
	"github.com/mmynk/chitfund/internal/ledger"
	"github.com/mmynk/chitfund/internal/models"
)

// DefaultWindow is how long an auction accepts bids unless configured otherwise.
const DefaultWindow = 24 * time.Hour

// Engine runs reverse auctions.
type Engine struct {
	window time.Duration
	clock  clock.Clock
}

// NewEngine creates an engine whose auctions stay open for window.
func NewEngine(window time.Duration, clk clock.Clock) *Engine {
	if window <= 0 {
		window = DefaultWindow
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Engine{window: window, clock: clk}
}

// Window returns the configured bidding window.
func (e *Engine) Window() time.Duration {
	return e.window
}

// Now returns the engine's current time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// Open starts the auction for the group's next cycle. current is the group's
// open auction, if any.
func (e *Engine) Open(g *models.Group, current *models.Auction) (*models.Auction, error) {
	if g.Status != models.GroupActive {
		return nil, models.NewStateError("open cycle", string(models.GroupActive), string(g.Status))
	}
	if current != nil && current.IsOpen() {
		return nil, models.NewStateError("open cycle", "no open auction", fmt.Sprintf("cycle %d open", current.Cycle))
	}
	if g.CurrentCycle >= g.DurationCycles {
		return nil, models.NewStateError("open cycle", "cycles remaining", fmt.Sprintf("%d of %d settled", g.CurrentCycle, g.DurationCycles))
	}
	if len(g.EligibleBidders()) == 0 {
		return nil, models.NewStateError("open cycle", "eligible bidders", "every member has won")
	}

	now := e.clock.Now()
	return &models.Auction{
		GroupID:  g.ID,
		Cycle:    g.CurrentCycle + 1,
		Bids:     make(map[string]models.Bid),
		OpenedAt: now,
		EndTime:  now.Add(e.window),
		Status:   models.AuctionOpen,
	}, nil
}

// PlaceBid records member's bid of amount. Either the bid is recorded or nothing changes.
func (e *Engine) PlaceBid(g *models.Group, a *models.Auction, member string, amount models.Amount) (models.Bid, error) {
	now := e.clock.Now()

	if !a.IsOpen() {
		return models.Bid{}, models.NewStateError("place bid", string(models.AuctionOpen), string(a.Status))
	}
	if a.Expired(now) {
		return models.Bid{}, models.NewStateError("place bid", "auction before deadline", "deadline passed at "+a.EndTime.Format(time.RFC3339))
	}
	if amount <= 0 || amount >= g.ContributionAmount {
		return models.Bid{}, fmt.Errorf("%w: got %d, contribution is %d", models.ErrInvalidBid, amount, g.ContributionAmount)
	}
	if !g.IsMember(member) {
		return models.Bid{}, fmt.Errorf("%w: %s is not a member of group %s", models.ErrIneligibleBidder, member, g.ID)
	}
	if g.HasWon(member) {
		return models.Bid{}, fmt.Errorf("%w: %s already won cycle %d", models.ErrIneligibleBidder, member, g.WonCycle(member))
	}
	if _, ok := a.Bids[member]; ok {
		return models.Bid{}, fmt.Errorf("%w: %s in cycle %d", models.ErrDuplicateBid, member, a.Cycle)
	}

	bid := models.Bid{
		Member:      member,
		Amount:      amount,
		SubmittedAt: now,
		Seq:         len(a.Bids) + 1,
	}
	a.Bids[member] = bid
	return bid, nil
}

// allEligibleBid reports whether every member still able to win has bid.
func allEligibleBid(g *models.Group, a *models.Auction) bool {
	for _, m := range g.EligibleBidders() {
		if _, ok := a.Bids[m]; !ok {
			return false
		}
	}
	return true
}

// CanSettle reports whether Settle would be attempted now: the deadline passed
// or every eligible member has bid.
func (e *Engine) CanSettle(g *models.Group, a *models.Auction) bool {
	if a == nil || !a.IsOpen() {
		return false
	}
	return a.Expired(e.clock.Now()) || allEligibleBid(g, a)
}

// Settle closes the auction, picks the winner and posts the cycle to the ledger.
// It advances g.CurrentCycle and g.Winners; the lifecycle decides what happens next.
// On error neither the group, the auction nor the ledger is modified.
func (e *Engine) Settle(g *models.Group, a *models.Auction, l *ledger.Ledger) (*models.Settlement, error) {
	if !a.IsOpen() {
		return nil, models.NewStateError("settle", string(models.AuctionOpen), string(a.Status))
	}
	now := e.clock.Now()
	if !a.Expired(now) && !allEligibleBid(g, a) {
		return nil, models.NewStateError("settle", "deadline passed or all eligible members bid",
			fmt.Sprintf("%d of %d bids before %s", len(a.Bids), len(g.EligibleBidders()), a.EndTime.Format(time.RFC3339)))
	}
	if len(a.Bids) == 0 {
		return nil, fmt.Errorf("%w: group %s cycle %d", models.ErrNoBids, g.ID, a.Cycle)
	}

	best := a.Ranked()[0]
	s, err := Plan(g, a.Cycle, best)
	if err != nil {
		return nil, err
	}
	if err := post(l, s); err != nil {
		// Plan only yields non-negative amounts, so this is unreachable in practice.
		return nil, err
	}

	a.Status = models.AuctionSettled
	a.Winner = s.Winner
	a.WinningBid = s.WinningBid
	a.Discount = s.Discount
	a.SettledAt = now

	g.Winners = append(g.Winners, s.Winner)
	g.CurrentCycle++
	return s, nil
}

// Extend reopens bidding on an auction that closed without bids by moving its
// deadline to now + window (the engine's window when window <= 0).
func (e *Engine) Extend(a *models.Auction, window time.Duration) error {
	if !a.IsOpen() {
		return models.NewStateError("extend", string(models.AuctionOpen), string(a.Status))
	}
	now := e.clock.Now()
	if !a.Expired(now) {
		return models.NewStateError("extend", "deadline passed", "open until "+a.EndTime.Format(time.RFC3339))
	}
	if len(a.Bids) > 0 {
		return models.NewStateError("extend", "no bids", fmt.Sprintf("%d bids", len(a.Bids)))
	}
	if window <= 0 {
		window = e.window
	}

	a.EndTime = now.Add(window)
	a.Extensions++
	return nil
}

func post(l *ledger.Ledger, s *models.Settlement) error {
	for _, entry := range s.Entries {
		if err := l.RecordContribution(entry.Cycle, entry.Member, entry.Contributed); err != nil {
			return err
		}
		if entry.PayoutReceived > 0 {
			if err := l.RecordPayout(entry.Cycle, entry.Member, entry.PayoutReceived); err != nil {
				return err
			}
		}
		if entry.DiscountReceived > 0 {
			if err := l.RecordDiscount(entry.Cycle, entry.Member, entry.DiscountReceived); err != nil {
				return err
			}
		}
		if entry.DiscountForgone > 0 {
			if err := l.RecordDiscountForgone(entry.Cycle, entry.Member, entry.DiscountForgone); err != nil {
				return err
			}
		}
	}
	return nil
}
