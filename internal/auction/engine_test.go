package auction

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/chitfund/internal/clock"
	"github.com/mmynk/chitfund/internal/ledger"
	"github.com/mmynk/chitfund/internal/models"
)

var start = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func activeGroup(contribution models.Amount, members ...string) *models.Group {
	return &models.Group{
		ID:                 "g1",
		Name:               "Savers",
		ContributionAmount: contribution,
		TotalMembers:       len(members),
		DurationCycles:     len(members),
		Members:            members,
		Status:             models.GroupActive,
	}
}

func newEngine() (*Engine, *clock.Manual) {
	clk := clock.NewManual(start)
	return NewEngine(time.Hour, clk), clk
}

func TestOpen(t *testing.T) {
	e, _ := newEngine()
	g := activeGroup(10000, "A", "B", "C")

	a, err := e.Open(g, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Cycle)
	assert.Equal(t, start.Add(time.Hour), a.EndTime)
	assert.Equal(t, models.AuctionOpen, a.Status)

	_, err = e.Open(g, a)
	require.ErrorIs(t, err, models.ErrInvalidState, "second open auction")

	g.Status = models.GroupForming
	_, err = e.Open(g, nil)
	require.ErrorIs(t, err, models.ErrInvalidState)

	g.Status = models.GroupActive
	g.CurrentCycle = g.DurationCycles
	_, err = e.Open(g, nil)
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestPlaceBidValidation(t *testing.T) {
	e, clk := newEngine()
	g := activeGroup(10000, "A", "B", "C", "D")
	g.Winners = []string{"D"}
	g.CurrentCycle = 1
	a, err := e.Open(g, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		member string
		amount models.Amount
		want   error
	}{
		{"equal to contribution", "A", 10000, models.ErrInvalidBid},
		{"above contribution", "A", 12000, models.ErrInvalidBid},
		{"zero", "A", 0, models.ErrInvalidBid},
		{"negative", "A", -1, models.ErrInvalidBid},
		{"not a member", "Z", 9000, models.ErrIneligibleBidder},
		{"prior winner", "D", 9000, models.ErrIneligibleBidder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.PlaceBid(g, a, tt.member, tt.amount)
			require.ErrorIs(t, err, tt.want)
			assert.Empty(t, a.Bids, "rejected bid must not be recorded")
		})
	}

	bid, err := e.PlaceBid(g, a, "A", 9500)
	require.NoError(t, err)
	assert.Equal(t, start, bid.SubmittedAt)
	assert.Equal(t, 1, bid.Seq)

	_, err = e.PlaceBid(g, a, "A", 9000)
	require.ErrorIs(t, err, models.ErrDuplicateBid)
	assert.Equal(t, models.Amount(9500), a.Bids["A"].Amount, "no bid revision")

	clk.Advance(time.Hour)
	_, err = e.PlaceBid(g, a, "B", 9000)
	require.ErrorIs(t, err, models.ErrInvalidState, "late bid")
}

func TestSettleScenario(t *testing.T) {
	e, clk := newEngine()
	g := activeGroup(10000, "A", "B", "C", "D", "E")
	l := ledger.New(g.ID)
	a, err := e.Open(g, nil)
	require.NoError(t, err)

	for _, b := range []struct {
		m   string
		amt models.Amount
	}{{"A", 9500}, {"B", 9200}, {"C", 9800}} {
		_, err := e.PlaceBid(g, a, b.m, b.amt)
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	_, err = e.Settle(g, a, l)
	require.ErrorIs(t, err, models.ErrInvalidState, "settle before deadline with missing bids")

	clk.Set(a.EndTime)
	s, err := e.Settle(g, a, l)
	require.NoError(t, err)

	assert.Equal(t, "B", s.Winner)
	assert.Equal(t, models.Amount(9200), s.WinningBid)
	assert.Equal(t, models.Amount(800), s.Discount)
	assert.Equal(t, models.Amount(200), s.DiscountPerMember)
	assert.Zero(t, s.Remainder)
	assert.Equal(t, models.Amount(50000), s.Pool)

	b := l.Balance("B")
	assert.Equal(t, models.Amount(50000), b.PayoutReceived)
	assert.Equal(t, models.Amount(9200), b.Contributed)
	assert.Zero(t, b.DiscountReceived)

	for _, m := range []string{"A", "C", "D", "E"} {
		bal := l.Balance(m)
		assert.Equal(t, models.Amount(200), bal.DiscountReceived, m)
		assert.Equal(t, models.Amount(9800), bal.Contributed, m)
	}

	assert.Equal(t, []string{"B"}, g.Winners)
	assert.Equal(t, 1, g.CurrentCycle)
	assert.Equal(t, models.AuctionSettled, a.Status)
	assert.Equal(t, "B", a.Winner)

	totals := l.CycleTotals(1)
	assert.Equal(t, models.Amount(50000), totals.Gross())
	assert.Equal(t, s.Discount, totals.DiscountReceived)
}

func TestSettleTwiceHasNoSideEffects(t *testing.T) {
	e, _ := newEngine()
	g := activeGroup(100, "A", "B", "C")
	l := ledger.New(g.ID)
	a, _ := e.Open(g, nil)
	for _, m := range []string{"A", "B", "C"} {
		_, err := e.PlaceBid(g, a, m, 90)
		require.NoError(t, err)
	}

	_, err := e.Settle(g, a, l)
	require.NoError(t, err, "all eligible members bid, settles before deadline")
	before := l.All()

	_, err = e.Settle(g, a, l)
	require.ErrorIs(t, err, models.ErrInvalidState)
	assert.Equal(t, before, l.All())
	assert.Equal(t, 1, g.CurrentCycle)
	assert.Len(t, g.Winners, 1)
}

func TestSettleTieBreak(t *testing.T) {
	for run := 0; run < 20; run++ {
		e, clk := newEngine()
		g := activeGroup(1000, "A", "B", "C", "D")
		l := ledger.New(g.ID)
		a, _ := e.Open(g, nil)

		_, err := e.PlaceBid(g, a, "C", 900)
		require.NoError(t, err)
		clk.Advance(time.Second)
		_, err = e.PlaceBid(g, a, "A", 800)
		require.NoError(t, err)
		clk.Advance(time.Second)
		_, err = e.PlaceBid(g, a, "D", 800)
		require.NoError(t, err)
		_, err = e.PlaceBid(g, a, "B", 800) // same timestamp as D, inserted later
		require.NoError(t, err)

		s, err := e.Settle(g, a, l)
		require.NoError(t, err)
		require.Equal(t, "A", s.Winner, "run %d", run)
	}
}

func TestSettleTieOnIdenticalTimestampsUsesInsertionOrder(t *testing.T) {
	e, _ := newEngine()
	g := activeGroup(1000, "A", "B", "C")
	a, _ := e.Open(g, nil)
	_, _ = e.PlaceBid(g, a, "C", 700)
	_, _ = e.PlaceBid(g, a, "B", 700)
	_, _ = e.PlaceBid(g, a, "A", 750)

	s, err := e.Settle(g, a, ledger.New(g.ID))
	require.NoError(t, err)
	assert.Equal(t, "C", s.Winner)
}

func TestSettleNoBids(t *testing.T) {
	e, clk := newEngine()
	g := activeGroup(1000, "A", "B", "C")
	l := ledger.New(g.ID)
	a, _ := e.Open(g, nil)

	assert.False(t, e.CanSettle(g, a))
	clk.Advance(time.Hour)
	assert.True(t, e.CanSettle(g, a))

	_, err := e.Settle(g, a, l)
	require.ErrorIs(t, err, models.ErrNoBids)
	assert.True(t, a.IsOpen(), "auction stays open for a retry")
	assert.Empty(t, l.All())
	assert.Zero(t, g.CurrentCycle)
}

func TestExtend(t *testing.T) {
	e, clk := newEngine()
	g := activeGroup(1000, "A", "B", "C")
	a, _ := e.Open(g, nil)

	require.ErrorIs(t, e.Extend(a, 0), models.ErrInvalidState, "still open")

	clk.Advance(2 * time.Hour)
	require.NoError(t, e.Extend(a, 30*time.Minute))
	assert.Equal(t, clk.Now().Add(30*time.Minute), a.EndTime)
	assert.Equal(t, 1, a.Extensions)

	_, err := e.PlaceBid(g, a, "A", 900)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	require.ErrorIs(t, e.Extend(a, 0), models.ErrInvalidState, "has bids")
}

func TestPriorWinnersStillReceiveDiscount(t *testing.T) {
	e, _ := newEngine()
	g := activeGroup(1000, "A", "B", "C")
	l := ledger.New(g.ID)

	a, _ := e.Open(g, nil)
	for _, m := range []string{"A", "B", "C"} {
		_, _ = e.PlaceBid(g, a, m, 900)
	}
	_, err := e.Settle(g, a, l)
	require.NoError(t, err)

	a2, err := e.Open(g, a)
	require.NoError(t, err)
	assert.Equal(t, 2, a2.Cycle)
	_, err = e.PlaceBid(g, a2, "B", 700)
	require.NoError(t, err)
	_, err = e.PlaceBid(g, a2, "C", 800)
	require.NoError(t, err)

	s, err := e.Settle(g, a2, l)
	require.NoError(t, err)
	assert.Equal(t, "B", s.Winner)
	assert.Equal(t, models.Amount(150), l.Entries(2)[0].DiscountReceived, "A won cycle 1 and still gets a share")
}

func TestDistributeConservesDiscount(t *testing.T) {
	for members := 3; members <= 50; members++ {
		for _, discount := range []models.Amount{1, 7, 99, 800, 12345, 999999} {
			t.Run(fmt.Sprintf("%d/%d", members, discount), func(t *testing.T) {
				recipients := make([]string, members-1)
				for i := range recipients {
					recipients[i] = fmt.Sprintf("m%d", i)
				}
				per, rem, shares := Distribute(discount, recipients)

				var sum models.Amount
				for _, s := range shares {
					sum += s.Amount
				}
				require.Equal(t, discount, sum)
				require.Equal(t, per+rem, shares[0].Amount)
				require.Equal(t, discount/models.Amount(members-1), per)
			})
		}
	}
}

func TestDistributeWithoutRecipients(t *testing.T) {
	per, rem, shares := Distribute(500, nil)
	assert.Zero(t, per)
	assert.Zero(t, rem)
	assert.Nil(t, shares)
}

func TestPlanRemainderGoesToLowestIndexedNonWinner(t *testing.T) {
	g := activeGroup(1000, "A", "B", "C", "D")
	s, err := Plan(g, 1, models.Bid{Member: "A", Amount: 990})
	require.NoError(t, err)

	assert.Equal(t, models.Amount(10), s.Discount)
	assert.Equal(t, models.Amount(3), s.DiscountPerMember)
	assert.Equal(t, models.Amount(1), s.Remainder)
	assert.Equal(t, "B", s.RemainderTo)

	var received, gross models.Amount
	for _, e := range s.Entries {
		received += e.DiscountReceived
		gross += e.Gross()
		assert.Equal(t, g.ContributionAmount, e.Gross(), e.Member)
	}
	assert.Equal(t, s.Discount, received)
	assert.Equal(t, g.ContributionAmount*4, gross)
}
