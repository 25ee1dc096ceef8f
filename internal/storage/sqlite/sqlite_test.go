package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/mmynk/chitfund/internal/auction"
	"github.com/mmynk/chitfund/internal/clock"
	"github.com/mmynk/chitfund/internal/lifecycle"
	"github.com/mmynk/chitfund/internal/membership"
	"github.com/mmynk/chitfund/internal/models"
)

// runningGroup returns a group with one settled cycle and an open auction holding one bid.
func runningGroup(t *testing.T) *lifecycle.Group {
	t.Helper()
	clk := clock.NewManual(time.Date(2025, 6, 1, 12, 0, 0, 123456789, time.UTC))
	engine := auction.NewEngine(time.Hour, clk)

	g, err := lifecycle.New("group-1", membership.Params{
		Name:               "Roommates",
		ContributionAmount: 10000,
		TotalMembers:       3,
		Creator:            "0xaaa",
	}, engine)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	for _, m := range []string{"0xbbb", "0xccc"} {
		if _, err := g.Join(m); err != nil {
			t.Fatalf("Join failed: %v", err)
		}
	}
	if _, err := g.OpenCycle(); err != nil {
		t.Fatalf("OpenCycle failed: %v", err)
	}
	for _, bid := range []struct {
		member string
		amount models.Amount
	}{{"0xaaa", 9700}, {"0xbbb", 9300}, {"0xccc", 9300}} {
		clk.Advance(time.Millisecond)
		if _, err := g.PlaceBid(bid.member, bid.amount); err != nil {
			t.Fatalf("PlaceBid failed: %v", err)
		}
	}
	if _, err := g.Settle(); err != nil {
		t.Fatalf("Settle failed: %v", err)
	}
	if _, err := g.OpenCycle(); err != nil {
		t.Fatalf("OpenCycle failed: %v", err)
	}
	if _, err := g.PlaceBid("0xccc", 9999); err != nil {
		t.Fatalf("PlaceBid failed: %v", err)
	}
	return g
}

func TestSQLiteStore(t *testing.T) {
	// Create temp directory for test database
	tempDir, err := os.MkdirTemp("", "chitfund-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")
	store, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("SaveGroup round-trips a snapshot", func(t *testing.T) {
		want := runningGroup(t).Snapshot()

		if err := store.SaveGroup(ctx, want); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		got, err := store.GetGroup(ctx, want.Group.ID)
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}

		if !reflect.DeepEqual(got.Group, want.Group) {
			t.Errorf("group mismatch:\n got %+v\nwant %+v", got.Group, want.Group)
		}
		if !reflect.DeepEqual(got.Current, want.Current) {
			t.Errorf("current auction mismatch:\n got %+v\nwant %+v", got.Current, want.Current)
		}
		if !reflect.DeepEqual(got.History, want.History) {
			t.Errorf("history mismatch:\n got %+v\nwant %+v", got.History, want.History)
		}
		if !reflect.DeepEqual(got.Entries, want.Entries) {
			t.Errorf("entries mismatch:\n got %+v\nwant %+v", got.Entries, want.Entries)
		}
		if got.History[0].Winner != "0xbbb" {
			t.Errorf("tie-break lost in round trip: winner %s", got.History[0].Winner)
		}
	})

	t.Run("restored snapshot rebuilds a working group", func(t *testing.T) {
		snap, err := store.GetGroup(ctx, "group-1")
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		g, err := lifecycle.Restore(snap, auction.NewEngine(time.Hour, clock.System{}))
		if err != nil {
			t.Fatalf("Restore failed: %v", err)
		}
		if bal := g.Balance("0xbbb"); bal.PayoutReceived != 30000 {
			t.Errorf("payout: expected 30000, got %d", bal.PayoutReceived)
		}
	})

	t.Run("SaveGroup ignores stale versions", func(t *testing.T) {
		snap := runningGroup(t).Snapshot()
		snap.Group.ID = "group-2"
		snap.Group.Version = 10
		if snap.Current != nil {
			snap.Current.GroupID = "group-2"
		}
		for _, a := range snap.History {
			a.GroupID = "group-2"
		}
		if err := store.SaveGroup(ctx, snap); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		stale := *snap
		staleGroup := *snap.Group
		staleGroup.Version = 9
		staleGroup.Name = "Stale"
		stale.Group = &staleGroup
		if err := store.SaveGroup(ctx, &stale); err != nil {
			t.Fatalf("SaveGroup failed: %v", err)
		}

		got, err := store.GetGroup(ctx, "group-2")
		if err != nil {
			t.Fatalf("GetGroup failed: %v", err)
		}
		if got.Group.Name != "Roommates" || got.Group.Version != 10 {
			t.Errorf("stale snapshot overwrote newer one: %+v", got.Group)
		}
	})

	t.Run("ListGroups returns all groups", func(t *testing.T) {
		snaps, err := store.ListGroups(ctx)
		if err != nil {
			t.Fatalf("ListGroups failed: %v", err)
		}
		if len(snaps) != 2 {
			t.Fatalf("expected 2 groups, got %d", len(snaps))
		}
		for _, s := range snaps {
			if len(s.Group.Members) != 3 {
				t.Errorf("group %s: expected 3 members, got %d", s.Group.ID, len(s.Group.Members))
			}
		}
	})

	t.Run("GetGroup unknown ID", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nope")
		if !errors.Is(err, models.ErrGroupNotFound) {
			t.Errorf("expected ErrGroupNotFound, got %v", err)
		}
	})

	t.Run("users by address", func(t *testing.T) {
		user := models.NewUser("0xaaa", "Alice", "hash")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		if err := store.CreateUser(ctx, models.NewUser("0xaaa", "Again", "hash")); err == nil {
			t.Error("expected duplicate address to fail")
		}

		got, err := store.GetUserByAddress(ctx, "0xaaa")
		if err != nil || got == nil {
			t.Fatalf("GetUserByAddress failed: %v", err)
		}
		if got.ID != user.ID || got.DisplayName != "Alice" {
			t.Errorf("unexpected user: %+v", got)
		}

		byID, err := store.GetUserByID(ctx, user.ID)
		if err != nil || byID == nil || byID.Address != "0xaaa" {
			t.Errorf("GetUserByID: %+v, %v", byID, err)
		}

		missing, err := store.GetUserByAddress(ctx, "0xzzz")
		if err != nil || missing != nil {
			t.Errorf("expected nil user for unknown address, got %+v, %v", missing, err)
		}

		users, err := store.GetUsersByAddresses(ctx, []string{"0xaaa", "0xzzz"})
		if err != nil {
			t.Fatalf("GetUsersByAddresses failed: %v", err)
		}
		if len(users) != 1 || users["0xaaa"] == nil {
			t.Errorf("unexpected users: %+v", users)
		}
	})
}
