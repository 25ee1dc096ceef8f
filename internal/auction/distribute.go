package auction

import (
	"fmt"

	"github.com/mmynk/chitfund/internal/models"
)

// Share is one recipient's part of a distributed discount.
type Share struct {
	Member string
	Amount models.Amount
}

// Distribute splits discount evenly across recipients in their given order.
// The remainder of the integer division goes to the first recipient, so the shares
// always sum to discount exactly. With no recipients every share is zero and nothing
// is returned.
func Distribute(discount models.Amount, recipients []string) (perMember, remainder models.Amount, shares []Share) {
	n := models.Amount(len(recipients))
	if n == 0 {
		return 0, 0, nil
	}

	perMember = discount / n
	remainder = discount % n

	shares = make([]Share, len(recipients))
	for i, m := range recipients {
		shares[i] = Share{Member: m, Amount: perMember}
	}
	shares[0].Amount += remainder
	return perMember, remainder, shares
}

// Plan computes the settlement of cycle for winning bid best without touching any state.
//
//	discount          = contribution - winning bid
//	winner            contributes the winning bid and receives contribution × members
//	every other member contributes contribution - share and receives share
func Plan(g *models.Group, cycle int, best models.Bid) (*models.Settlement, error) {
	discount := g.ContributionAmount - best.Amount
	if discount <= 0 || best.Amount <= 0 {
		return nil, fmt.Errorf("%w: winning bid %d against contribution %d", models.ErrInvalidBid, best.Amount, g.ContributionAmount)
	}

	recipients := make([]string, 0, len(g.Members)-1)
	for _, m := range g.Members {
		if m != best.Member {
			recipients = append(recipients, m)
		}
	}
	perMember, remainder, shares := Distribute(discount, recipients)

	s := &models.Settlement{
		GroupID:           g.ID,
		Cycle:             cycle,
		Winner:            best.Member,
		WinningBid:        best.Amount,
		Discount:          discount,
		DiscountPerMember: perMember,
		Remainder:         remainder,
		Pool:              g.Pool(),
	}
	if len(shares) > 0 {
		s.RemainderTo = shares[0].Member
	}

	received := make(map[string]models.Amount, len(shares))
	for _, sh := range shares {
		received[sh.Member] = sh.Amount
	}

	for _, m := range g.Members {
		entry := models.LedgerEntry{GroupID: g.ID, Member: m, Cycle: cycle}
		if m == best.Member {
			entry.Contributed = best.Amount
			entry.PayoutReceived = s.Pool
			entry.DiscountForgone = discount
		} else {
			entry.DiscountReceived = received[m]
			entry.Contributed = g.ContributionAmount - entry.DiscountReceived
		}
		if entry.Contributed < 0 {
			return nil, fmt.Errorf("%w: %s would contribute %d", models.ErrInvalidAmount, m, entry.Contributed)
		}
		s.Entries = append(s.Entries, entry)
	}
	return s, nil
}
