package service

import (
	"context"
	"log/slog"

	"github.com/mmynk/chitfund/internal/lifecycle"
	"github.com/mmynk/chitfund/internal/metrics"
	"github.com/mmynk/chitfund/internal/middleware"
	"github.com/mmynk/chitfund/internal/registry"
	"github.com/mmynk/chitfund/internal/storage"
)

// Backend is what the group and auction services share: the in-memory groups,
// the store they are written through to, and the metrics they report into.
type Backend struct {
	Registry *registry.Registry
	Store    storage.Store
	Metrics  *metrics.Collector
}

// persist writes the group's snapshot to the store. The in-memory group stays
// authoritative, so a failed write is logged and the call still succeeds.
func (b *Backend) persist(ctx context.Context, g *lifecycle.Group) {
	if err := b.Store.SaveGroup(ctx, g.Snapshot()); err != nil {
		slog.Error("Failed to persist group", "group_id", g.ID(), "error", err)
	}
}

// caller returns the authenticated member.
func caller(ctx context.Context) (string, error) {
	member := middleware.GetMemberID(ctx)
	if member == "" {
		return "", errUnauthorized
	}
	return member, nil
}

// memberGroup looks up groupID and checks that member belongs to it.
func (b *Backend) memberGroup(groupID, member string) (*lifecycle.Group, error) {
	g, err := b.Registry.Get(groupID)
	if err != nil {
		return nil, err
	}
	if !g.Summary().IsMember(member) {
		return nil, errNotMember
	}
	return g, nil
}
