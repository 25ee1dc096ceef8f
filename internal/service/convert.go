package service

import (
	"github.com/mmynk/chitfund/internal/ledger"
	"github.com/mmynk/chitfund/internal/models"
	"github.com/mmynk/chitfund/pkg/api"
)

func toAPIUser(u *models.User) *api.User {
	return &api.User{
		ID:          u.ID,
		Address:     u.Address,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// toAPIGroup converts a group; users supplies display names and may be nil.
func toAPIGroup(g *models.Group, users map[string]*models.User) *api.Group {
	members := make([]api.Member, len(g.Members))
	for i, m := range g.Members {
		members[i] = api.Member{Address: m, WonCycle: g.WonCycle(m)}
		if u := users[m]; u != nil {
			members[i].DisplayName = u.DisplayName
		}
	}
	winners := make([]string, len(g.Winners))
	copy(winners, g.Winners)

	return &api.Group{
		ID:                 g.ID,
		Name:               g.Name,
		ContributionAmount: int64(g.ContributionAmount),
		TotalMembers:       g.TotalMembers,
		DurationCycles:     g.DurationCycles,
		CurrentMembers:     g.CurrentMembers(),
		CurrentCycle:       g.CurrentCycle,
		Status:             string(g.Status),
		Pool:               int64(g.Pool()),
		Members:            members,
		Winners:            winners,
		CreatedBy:          g.CreatedBy,
		CreatedAt:          g.CreatedAt,
	}
}

func toAPIBid(b models.Bid) *api.Bid {
	return &api.Bid{
		Member:      b.Member,
		Amount:      int64(b.Amount),
		SubmittedAt: b.SubmittedAt,
	}
}

func toAPIAuction(a *models.Auction) *api.Auction {
	ranked := a.Ranked()
	bids := make([]api.Bid, len(ranked))
	for i, b := range ranked {
		bids[i] = *toAPIBid(b)
	}

	out := &api.Auction{
		GroupID:    a.GroupID,
		Cycle:      a.Cycle,
		Status:     string(a.Status),
		OpenedAt:   a.OpenedAt,
		EndTime:    a.EndTime,
		Extensions: a.Extensions,
		Bids:       bids,
	}
	if a.Status == models.AuctionSettled {
		settledAt := a.SettledAt
		out.Winner = a.Winner
		out.WinningBid = int64(a.WinningBid)
		out.Discount = int64(a.Discount)
		out.SettledAt = &settledAt
	}
	return out
}

func toAPIEntry(e models.LedgerEntry) api.LedgerEntry {
	return api.LedgerEntry{
		Member:           e.Member,
		Cycle:            e.Cycle,
		Contributed:      int64(e.Contributed),
		PayoutReceived:   int64(e.PayoutReceived),
		DiscountReceived: int64(e.DiscountReceived),
		DiscountForgone:  int64(e.DiscountForgone),
	}
}

func toAPISettlement(s *models.Settlement) *api.Settlement {
	entries := make([]api.LedgerEntry, len(s.Entries))
	for i, e := range s.Entries {
		entries[i] = toAPIEntry(e)
	}
	return &api.Settlement{
		GroupID:           s.GroupID,
		Cycle:             s.Cycle,
		Winner:            s.Winner,
		WinningBid:        int64(s.WinningBid),
		Discount:          int64(s.Discount),
		DiscountPerMember: int64(s.DiscountPerMember),
		Remainder:         int64(s.Remainder),
		RemainderTo:       s.RemainderTo,
		Pool:              int64(s.Pool),
		Entries:           entries,
		GroupCompleted:    s.Completed,
	}
}

func toAPIBalance(groupID string, b ledger.Balance) *api.Balance {
	return &api.Balance{
		GroupID:          groupID,
		Member:           b.Member,
		Contributed:      int64(b.Contributed),
		PayoutReceived:   int64(b.PayoutReceived),
		DiscountReceived: int64(b.DiscountReceived),
		DiscountForgone:  int64(b.DiscountForgone),
		Net:              int64(b.Net),
	}
}

func toAPIProfile(p *models.MemberProfile, displayName string) *api.Profile {
	parts := make([]api.Participation, len(p.Participations))
	for i, pt := range p.Participations {
		parts[i] = api.Participation{
			GroupID:          pt.GroupID,
			GroupName:        pt.GroupName,
			Status:           string(pt.Status),
			CurrentCycle:     pt.CurrentCycle,
			DurationCycles:   pt.DurationCycles,
			WonCycle:         pt.WonCycle,
			Contributed:      int64(pt.Contributed),
			PayoutReceived:   int64(pt.PayoutReceived),
			DiscountReceived: int64(pt.DiscountReceived),
		}
	}
	return &api.Profile{
		Member:                p.Member,
		DisplayName:           displayName,
		TotalGroups:           p.TotalGroups,
		TotalContributed:      int64(p.TotalContributed),
		TotalPayoutReceived:   int64(p.TotalPayoutReceived),
		TotalDiscountReceived: int64(p.TotalDiscountReceived),
		Participations:        parts,
	}
}
