// Package ledger keeps per-member bookkeeping for one group.
// It only accumulates; deciding who gets what is the auction engine's job.
package ledger

import (
	"fmt"
	"slices"

	"github.com/mmynk/chitfund/internal/models"
)

// Balance summarizes one member's position in a group across all settled cycles.
type Balance struct {
	Member           string
	Contributed      models.Amount
	PayoutReceived   models.Amount
	DiscountReceived models.Amount
	DiscountForgone  models.Amount

	// Net = PayoutReceived - Contributed. Positive means the member is ahead.
	Net models.Amount
}

// Totals sums one cycle's entries.
type Totals struct {
	Contributed      models.Amount
	PayoutReceived   models.Amount
	DiscountReceived models.Amount
	DiscountForgone  models.Amount
}

// Gross is the cycle's total obligation; equals contribution × members for a settled cycle.
func (t Totals) Gross() models.Amount {
	return t.Contributed + t.DiscountReceived + t.DiscountForgone
}

type key struct {
	cycle  int
	member string
}

// Ledger accumulates entries per (member, cycle). Not safe for concurrent use;
// the owning group serializes access.
type Ledger struct {
	groupID string
	entries map[key]*models.LedgerEntry
	order   []key // creation order
}

// New creates an empty ledger for a group.
func New(groupID string) *Ledger {
	return &Ledger{
		groupID: groupID,
		entries: make(map[key]*models.LedgerEntry),
	}
}

// Restore rebuilds a ledger from persisted entries.
func Restore(groupID string, entries []models.LedgerEntry) (*Ledger, error) {
	l := New(groupID)
	for _, e := range entries {
		for _, amt := range []models.Amount{e.Contributed, e.PayoutReceived, e.DiscountReceived, e.DiscountForgone} {
			if err := checkAmount(amt); err != nil {
				return nil, err
			}
		}
		entry := l.entry(e.Cycle, e.Member)
		entry.Contributed += e.Contributed
		entry.PayoutReceived += e.PayoutReceived
		entry.DiscountReceived += e.DiscountReceived
		entry.DiscountForgone += e.DiscountForgone
	}
	return l, nil
}

func checkAmount(amount models.Amount) error {
	if amount < 0 {
		return fmt.Errorf("%w: got %d", models.ErrInvalidAmount, amount)
	}
	return nil
}

func (l *Ledger) entry(cycle int, member string) *models.LedgerEntry {
	k := key{cycle: cycle, member: member}
	e, ok := l.entries[k]
	if !ok {
		e = &models.LedgerEntry{GroupID: l.groupID, Member: member, Cycle: cycle}
		l.entries[k] = e
		l.order = append(l.order, k)
	}
	return e
}

// RecordContribution adds to what member paid in cycle.
func (l *Ledger) RecordContribution(cycle int, member string, amount models.Amount) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.entry(cycle, member).Contributed += amount
	return nil
}

// RecordPayout adds to what member received as the pool in cycle.
func (l *Ledger) RecordPayout(cycle int, member string, amount models.Amount) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.entry(cycle, member).PayoutReceived += amount
	return nil
}

// RecordDiscount adds to member's share of the cycle's discount.
func (l *Ledger) RecordDiscount(cycle int, member string, amount models.Amount) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.entry(cycle, member).DiscountReceived += amount
	return nil
}

// RecordDiscountForgone adds to the discount the cycle winner gave up.
func (l *Ledger) RecordDiscountForgone(cycle int, member string, amount models.Amount) error {
	if err := checkAmount(amount); err != nil {
		return err
	}
	l.entry(cycle, member).DiscountForgone += amount
	return nil
}

// Balance returns member's totals across all cycles. Unknown members get a zero balance.
func (l *Ledger) Balance(member string) Balance {
	b := Balance{Member: member}
	for _, k := range l.order {
		if k.member != member {
			continue
		}
		e := l.entries[k]
		b.Contributed += e.Contributed
		b.PayoutReceived += e.PayoutReceived
		b.DiscountReceived += e.DiscountReceived
		b.DiscountForgone += e.DiscountForgone
	}
	b.Net = b.PayoutReceived - b.Contributed
	return b
}

// Entries returns copies of cycle's entries in creation order.
func (l *Ledger) Entries(cycle int) []models.LedgerEntry {
	var out []models.LedgerEntry
	for _, k := range l.order {
		if k.cycle == cycle {
			out = append(out, *l.entries[k])
		}
	}
	return out
}

// All returns copies of every entry, ordered by cycle then creation order.
func (l *Ledger) All() []models.LedgerEntry {
	out := make([]models.LedgerEntry, 0, len(l.order))
	for _, k := range l.order {
		out = append(out, *l.entries[k])
	}
	slices.SortStableFunc(out, func(a, b models.LedgerEntry) int { return a.Cycle - b.Cycle })
	return out
}

// CycleTotals sums cycle's entries.
func (l *Ledger) CycleTotals(cycle int) Totals {
	var t Totals
	for _, e := range l.Entries(cycle) {
		t.Contributed += e.Contributed
		t.PayoutReceived += e.PayoutReceived
		t.DiscountReceived += e.DiscountReceived
		t.DiscountForgone += e.DiscountForgone
	}
	return t
}
