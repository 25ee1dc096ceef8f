package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	"github.com/mmynk/chitfund/internal/models"
)

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func nanos(t time.Time) int64 {
	return t.UnixNano()
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullNanos(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

// SaveGroup replaces the stored snapshot of a group if snap is newer.
func (s *SQLiteStore) SaveGroup(ctx context.Context, snap *models.GroupSnapshot) error {
	g := snap.Group

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, contribution_amount, total_members, duration_cycles, current_cycle, status, created_by, created_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     name = excluded.name,
		     current_cycle = excluded.current_cycle,
		     status = excluded.status,
		     version = excluded.version
		 WHERE excluded.version > groups.version`,
		g.ID, g.Name, int64(g.ContributionAmount), g.TotalMembers, g.DurationCycles,
		g.CurrentCycle, string(g.Status), g.CreatedBy, g.CreatedAt, g.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert group: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check upsert result: %w", err)
	}
	if n == 0 {
		// A newer snapshot is already stored.
		return nil
	}

	for _, table := range []string{"bids", "auctions", "group_members", "ledger_entries"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE group_id = ?", g.ID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for i, m := range g.Members {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO group_members (group_id, member, position) VALUES (?, ?, ?)",
			g.ID, m, i,
		); err != nil {
			return fmt.Errorf("failed to insert member: %w", err)
		}
	}

	auctions := slices.Clone(snap.History)
	if snap.Current != nil {
		auctions = append(auctions, snap.Current)
	}
	for _, a := range auctions {
		if err := insertAuction(ctx, tx, a); err != nil {
			return err
		}
	}

	for i, e := range snap.Entries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_entries (group_id, cycle, member, position, contributed, payout_received, discount_received, discount_forgone)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			g.ID, e.Cycle, e.Member, i, int64(e.Contributed), int64(e.PayoutReceived),
			int64(e.DiscountReceived), int64(e.DiscountForgone),
		); err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertAuction(ctx context.Context, tx *sql.Tx, a *models.Auction) error {
	var winner sql.NullString
	var winningBid, discount sql.NullInt64
	if a.Status == models.AuctionSettled {
		winner = sql.NullString{String: a.Winner, Valid: true}
		winningBid = sql.NullInt64{Int64: int64(a.WinningBid), Valid: true}
		discount = sql.NullInt64{Int64: int64(a.Discount), Valid: true}
	}

	_, err := tx.ExecContext(ctx,
		`INSERT INTO auctions (group_id, cycle, status, opened_at, end_time, extensions, winner, winning_bid, discount, settled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.GroupID, a.Cycle, string(a.Status), nanos(a.OpenedAt), nanos(a.EndTime), a.Extensions,
		winner, winningBid, discount, nullNanos(a.SettledAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert auction: %w", err)
	}

	for _, b := range a.Bids {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO bids (group_id, cycle, member, amount, submitted_at, seq) VALUES (?, ?, ?, ?, ?, ?)",
			a.GroupID, a.Cycle, b.Member, int64(b.Amount), nanos(b.SubmittedAt), b.Seq,
		); err != nil {
			return fmt.Errorf("failed to insert bid: %w", err)
		}
	}
	return nil
}

const selectGroup = `SELECT id, name, contribution_amount, total_members, duration_cycles, current_cycle, status, created_by, created_at, version FROM groups`

func scanGroup(row interface{ Scan(...any) error }) (*models.Group, error) {
	g := &models.Group{}
	var status string
	var amount int64
	err := row.Scan(&g.ID, &g.Name, &amount, &g.TotalMembers, &g.DurationCycles,
		&g.CurrentCycle, &status, &g.CreatedBy, &g.CreatedAt, &g.Version)
	if err != nil {
		return nil, err
	}
	g.ContributionAmount = models.Amount(amount)
	g.Status = models.GroupStatus(status)
	return g, nil
}

// GetGroup loads a group snapshot by ID.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.GroupSnapshot, error) {
	g, err := scanGroup(s.db.QueryRowContext(ctx, selectGroup+" WHERE id = ?", groupID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", models.ErrGroupNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return s.loadSnapshot(ctx, s.db, g)
}

// ListGroups loads every stored group in creation order.
func (s *SQLiteStore) ListGroups(ctx context.Context) ([]*models.GroupSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, selectGroup+" ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}

	var groups []*models.Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}

	// Rows are drained before loading children: the pool has a single connection.
	snaps := make([]*models.GroupSnapshot, 0, len(groups))
	for _, g := range groups {
		snap, err := s.loadSnapshot(ctx, s.db, g)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

func (s *SQLiteStore) loadSnapshot(ctx context.Context, q queryer, g *models.Group) (*models.GroupSnapshot, error) {
	members, err := loadMembers(ctx, q, g.ID)
	if err != nil {
		return nil, err
	}
	g.Members = members

	auctions, err := loadAuctions(ctx, q, g.ID)
	if err != nil {
		return nil, err
	}
	if err := loadBids(ctx, q, g.ID, auctions); err != nil {
		return nil, err
	}

	snap := &models.GroupSnapshot{Group: g}
	for _, a := range auctions {
		if a.IsOpen() {
			snap.Current = a
			continue
		}
		snap.History = append(snap.History, a)
		g.Winners = append(g.Winners, a.Winner)
	}

	snap.Entries, err = loadEntries(ctx, q, g.ID)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func loadMembers(ctx context.Context, q queryer, groupID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT member FROM group_members WHERE group_id = ? ORDER BY position", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

func loadAuctions(ctx context.Context, q queryer, groupID string) ([]*models.Auction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT cycle, status, opened_at, end_time, extensions, winner, winning_bid, discount, settled_at
		 FROM auctions WHERE group_id = ? ORDER BY cycle`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*models.Auction
	for rows.Next() {
		a := &models.Auction{GroupID: groupID, Bids: make(map[string]models.Bid)}
		var (
			status            string
			openedAt, endTime int64
			winner            sql.NullString
			winningBid, disc  sql.NullInt64
			settledAt         sql.NullInt64
		)
		if err := rows.Scan(&a.Cycle, &status, &openedAt, &endTime, &a.Extensions,
			&winner, &winningBid, &disc, &settledAt); err != nil {
			return nil, fmt.Errorf("failed to scan auction: %w", err)
		}
		a.Status = models.AuctionStatus(status)
		a.OpenedAt = fromNanos(openedAt)
		a.EndTime = fromNanos(endTime)
		a.Winner = winner.String
		a.WinningBid = models.Amount(winningBid.Int64)
		a.Discount = models.Amount(disc.Int64)
		if settledAt.Valid {
			a.SettledAt = fromNanos(settledAt.Int64)
		}
		auctions = append(auctions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate auctions: %w", err)
	}
	return auctions, nil
}

func loadBids(ctx context.Context, q queryer, groupID string, auctions []*models.Auction) error {
	byCycle := make(map[int]*models.Auction, len(auctions))
	for _, a := range auctions {
		byCycle[a.Cycle] = a
	}

	rows, err := q.QueryContext(ctx,
		"SELECT cycle, member, amount, submitted_at, seq FROM bids WHERE group_id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to get bids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cycle       int
			b           models.Bid
			amount      int64
			submittedAt int64
		)
		if err := rows.Scan(&cycle, &b.Member, &amount, &submittedAt, &b.Seq); err != nil {
			return fmt.Errorf("failed to scan bid: %w", err)
		}
		b.Amount = models.Amount(amount)
		b.SubmittedAt = fromNanos(submittedAt)
		if a, ok := byCycle[cycle]; ok {
			a.Bids[b.Member] = b
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate bids: %w", err)
	}
	return nil
}

func loadEntries(ctx context.Context, q queryer, groupID string) ([]models.LedgerEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT cycle, member, contributed, payout_received, discount_received, discount_forgone
		 FROM ledger_entries WHERE group_id = ? ORDER BY position`, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		e := models.LedgerEntry{GroupID: groupID}
		var contributed, payout, received, forgone int64
		if err := rows.Scan(&e.Cycle, &e.Member, &contributed, &payout, &received, &forgone); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Contributed = models.Amount(contributed)
		e.PayoutReceived = models.Amount(payout)
		e.DiscountReceived = models.Amount(received)
		e.DiscountForgone = models.Amount(forgone)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}
