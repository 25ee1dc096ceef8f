package lifecycle

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/chitfund/internal/auction"
	"github.com/mmynk/chitfund/internal/clock"
	"github.com/mmynk/chitfund/internal/membership"
	"github.com/mmynk/chitfund/internal/models"
)

func setup(t *testing.T, members int, duration int) (*Group, *clock.Manual, []string) {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	engine := auction.NewEngine(time.Hour, clk)

	roster := make([]string, members)
	for i := range roster {
		roster[i] = fmt.Sprintf("m%02d", i)
	}
	g, err := New("g1", membership.Params{
		Name:               "Neighbours",
		ContributionAmount: 1000,
		TotalMembers:       members,
		DurationCycles:     duration,
		Creator:            roster[0],
	}, engine)
	require.NoError(t, err)
	return g, clk, roster
}

func fill(t *testing.T, g *Group, roster []string) {
	t.Helper()
	for _, m := range roster[1:] {
		_, err := g.Join(m)
		require.NoError(t, err)
	}
}

func TestFormingToActive(t *testing.T) {
	g, _, roster := setup(t, 3, 3)

	_, err := g.OpenCycle()
	require.ErrorIs(t, err, models.ErrInvalidState, "forming groups cannot run auctions")

	summary, err := g.Join(roster[1])
	require.NoError(t, err)
	assert.Equal(t, models.GroupForming, summary.Status)

	summary, err = g.Join(roster[2])
	require.NoError(t, err)
	assert.Equal(t, models.GroupActive, summary.Status)

	_, err = g.Join("late")
	require.ErrorIs(t, err, models.ErrGroupFull)
	assert.Len(t, g.Summary().Members, 3)
}

func TestFullRunCompletesAndConservesMoney(t *testing.T) {
	const members = 5
	g, clk, roster := setup(t, members, members)
	fill(t, g, roster)

	for cycle := 1; cycle <= members; cycle++ {
		a, err := g.OpenCycle()
		require.NoError(t, err)
		require.Equal(t, cycle, a.Cycle)

		for i, m := range g.Summary().EligibleBidders() {
			_, err := g.PlaceBid(m, models.Amount(900+i*7))
			require.NoError(t, err)
		}
		for _, w := range g.Summary().Winners {
			_, err := g.PlaceBid(w, 500)
			require.ErrorIs(t, err, models.ErrIneligibleBidder)
		}

		clk.Advance(time.Minute)
		s, err := g.Settle()
		require.NoError(t, err)
		assert.Equal(t, cycle == members, s.Completed)

		summary := g.Summary()
		assert.Equal(t, cycle, summary.CurrentCycle)
		assert.Len(t, summary.Winners, summary.CurrentCycle)
	}

	summary := g.Summary()
	assert.Equal(t, models.GroupCompleted, summary.Status)
	assert.ElementsMatch(t, roster, summary.Winners)

	for _, m := range roster {
		assert.Equal(t, models.Amount(1000*members), g.Balance(m).PayoutReceived, "%s receives the pool exactly once", m)
	}
	assert.Len(t, g.History(), members)

	_, err := g.OpenCycle()
	require.ErrorIs(t, err, models.ErrInvalidState)
	_, err = g.Settle()
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestCompletesEarlyWhenEveryMemberWon(t *testing.T) {
	g, _, roster := setup(t, 3, 6)
	fill(t, g, roster)

	for range roster {
		_, err := g.OpenCycle()
		require.NoError(t, err)
		for _, m := range g.Summary().EligibleBidders() {
			_, err := g.PlaceBid(m, 900)
			require.NoError(t, err)
		}
		_, err = g.Settle()
		require.NoError(t, err)
	}

	summary := g.Summary()
	assert.Equal(t, models.GroupCompleted, summary.Status)
	assert.Equal(t, 3, summary.CurrentCycle)
}

func TestSettleWithoutAuction(t *testing.T) {
	g, _, roster := setup(t, 3, 3)
	fill(t, g, roster)

	_, err := g.Settle()
	require.ErrorIs(t, err, models.ErrInvalidState)
	_, err = g.PlaceBid(roster[0], 10)
	require.ErrorIs(t, err, models.ErrInvalidState)
	_, err = g.CurrentAuction()
	require.ErrorIs(t, err, models.ErrInvalidState)
}

func TestNoBidsThenExtend(t *testing.T) {
	g, clk, roster := setup(t, 3, 3)
	fill(t, g, roster)
	_, err := g.OpenCycle()
	require.NoError(t, err)

	clk.Advance(time.Hour)
	require.True(t, g.CanSettle())
	_, err = g.Settle()
	require.ErrorIs(t, err, models.ErrNoBids)

	a, err := g.ExtendCycle(0)
	require.NoError(t, err)
	assert.Equal(t, clk.Now().Add(time.Hour), a.EndTime)

	_, err = g.PlaceBid(roster[1], 800)
	require.NoError(t, err)
	clk.Advance(time.Hour)

	s, err := g.Settle()
	require.NoError(t, err)
	assert.Equal(t, roster[1], s.Winner)
}

func TestConcurrentBidsAndSettle(t *testing.T) {
	g, clk, roster := setup(t, 40, 40)
	fill(t, g, roster)
	_, err := g.OpenCycle()
	require.NoError(t, err)

	// Half the roster bids before the deadline.
	for _, m := range roster[:20] {
		_, err := g.PlaceBid(m, 900)
		require.NoError(t, err)
	}
	clk.Advance(time.Hour)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		settled  int
	)
	for _, m := range roster[20:] {
		wg.Add(1)
		go func(m string) {
			defer wg.Done()
			if _, err := g.PlaceBid(m, 100); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}(m)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Settle()
			if err == nil {
				mu.Lock()
				settled++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, models.ErrInvalidState))
		}()
	}
	wg.Wait()

	assert.Zero(t, accepted, "bids after the deadline are rejected")
	assert.Equal(t, 1, settled, "exactly one settlement")
	assert.Equal(t, 1, g.Summary().CurrentCycle)
}

func TestSnapshotRestore(t *testing.T) {
	g, clk, roster := setup(t, 3, 3)
	fill(t, g, roster)

	_, err := g.OpenCycle()
	require.NoError(t, err)
	for _, m := range roster {
		_, err := g.PlaceBid(m, 950)
		require.NoError(t, err)
	}
	_, err = g.Settle()
	require.NoError(t, err)
	_, err = g.OpenCycle()
	require.NoError(t, err)
	_, err = g.PlaceBid(roster[1], 900)
	require.NoError(t, err)

	snap := g.Snapshot()
	restored, err := Restore(snap, auction.NewEngine(time.Hour, clk))
	require.NoError(t, err)

	assert.Equal(t, g.Summary(), restored.Summary())
	assert.Equal(t, g.History(), restored.History())
	assert.Equal(t, g.Balance(roster[0]), restored.Balance(roster[0]))

	want, _ := g.CurrentAuction()
	got, err := restored.CurrentAuction()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// The restored group keeps running.
	clk.Advance(time.Hour)
	s, err := restored.Settle()
	require.NoError(t, err)
	assert.Equal(t, roster[1], s.Winner)

	snap.Group.Winners = nil
	_, err = Restore(snap, auction.NewEngine(time.Hour, clk))
	require.ErrorIs(t, err, models.ErrValidation)
}
