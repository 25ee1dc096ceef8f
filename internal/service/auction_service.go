package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/chitfund/internal/models"
	"github.com/mmynk/chitfund/pkg/api"
	"github.com/mmynk/chitfund/pkg/api/apiconnect"
)

var _ apiconnect.AuctionServiceHandler = (*AuctionService)(nil)

// AuctionService implements the Connect AuctionService. Every call acts on
// behalf of the authenticated member and requires membership of the group.
type AuctionService struct {
	*Backend
}

// NewAuctionService creates a new AuctionService over the shared backend.
func NewAuctionService(b *Backend) *AuctionService {
	return &AuctionService{Backend: b}
}

// OpenCycle starts the auction for the group's next cycle.
func (s *AuctionService) OpenCycle(ctx context.Context, req *connect.Request[api.OpenCycleRequest]) (*connect.Response[api.OpenCycleResponse], error) {
	member, err := caller(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("OpenCycle request received", "group_id", req.Msg.GroupID, "member_id", member)

	g, err := s.memberGroup(req.Msg.GroupID, member)
	if err != nil {
		slog.Error("OpenCycle failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	a, err := g.OpenCycle()
	if err != nil {
		slog.Error("OpenCycle failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	s.persist(ctx, g)
	s.Metrics.RecordCycleOpened()

	slog.Info("OpenCycle successful", "group_id", a.GroupID, "cycle", a.Cycle, "end_time", a.EndTime)

	return connect.NewResponse(&api.OpenCycleResponse{Auction: toAPIAuction(a)}), nil
}

// PlaceBid submits the caller's bid in the open auction.
func (s *AuctionService) PlaceBid(ctx context.Context, req *connect.Request[api.PlaceBidRequest]) (*connect.Response[api.PlaceBidResponse], error) {
	member, err := caller(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("PlaceBid request received", "group_id", req.Msg.GroupID, "member_id", member, "amount", req.Msg.Amount)

	g, err := s.Registry.Get(req.Msg.GroupID)
	if err != nil {
		slog.Error("PlaceBid failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	// Non-members are rejected by the engine as ineligible bidders.
	bid, err := g.PlaceBid(member, models.Amount(req.Msg.Amount))
	s.Metrics.RecordBid(err)
	if err != nil {
		slog.Error("PlaceBid failed", "group_id", req.Msg.GroupID, "member_id", member, "error", err)
		return nil, toConnectError(err)
	}
	s.persist(ctx, g)

	slog.Info("PlaceBid successful", "group_id", req.Msg.GroupID, "member_id", member, "seq", bid.Seq)

	return connect.NewResponse(&api.PlaceBidResponse{Bid: toAPIBid(bid)}), nil
}

// SettleCycle settles the open auction once its deadline passed or every eligible member bid.
func (s *AuctionService) SettleCycle(ctx context.Context, req *connect.Request[api.SettleCycleRequest]) (*connect.Response[api.SettleCycleResponse], error) {
	member, err := caller(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("SettleCycle request received", "group_id", req.Msg.GroupID, "member_id", member)

	g, err := s.memberGroup(req.Msg.GroupID, member)
	if err != nil {
		slog.Error("SettleCycle failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	settlement, err := g.Settle()
	if err != nil {
		if errors.Is(err, models.ErrNoBids) {
			s.Metrics.RecordNoBids()
		}
		slog.Error("SettleCycle failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	s.persist(ctx, g)
	s.Metrics.RecordSettlement("rpc", settlement, g.Summary().ContributionAmount)

	slog.Info("SettleCycle successful",
		"group_id", settlement.GroupID,
		"cycle", settlement.Cycle,
		"winner", settlement.Winner,
		"winning_bid", settlement.WinningBid,
		"discount", settlement.Discount,
		"group_completed", settlement.Completed,
	)

	return connect.NewResponse(&api.SettleCycleResponse{Settlement: toAPISettlement(settlement)}), nil
}

// ExtendCycle pushes back the deadline of an expired auction that received no bids.
func (s *AuctionService) ExtendCycle(ctx context.Context, req *connect.Request[api.ExtendCycleRequest]) (*connect.Response[api.ExtendCycleResponse], error) {
	member, err := caller(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	if req.Msg.WindowSeconds < 0 {
		return nil, toConnectError(fmt.Errorf("%w: window must not be negative", models.ErrValidation))
	}

	slog.Info("ExtendCycle request received", "group_id", req.Msg.GroupID, "member_id", member, "window_seconds", req.Msg.WindowSeconds)

	g, err := s.memberGroup(req.Msg.GroupID, member)
	if err != nil {
		slog.Error("ExtendCycle failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	a, err := g.ExtendCycle(time.Duration(req.Msg.WindowSeconds) * time.Second)
	if err != nil {
		slog.Error("ExtendCycle failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}
	s.persist(ctx, g)
	s.Metrics.RecordExtension()

	slog.Info("ExtendCycle successful", "group_id", a.GroupID, "cycle", a.Cycle, "end_time", a.EndTime, "extensions", a.Extensions)

	return connect.NewResponse(&api.ExtendCycleResponse{Auction: toAPIAuction(a)}), nil
}

// GetAuction returns the group's open auction.
func (s *AuctionService) GetAuction(ctx context.Context, req *connect.Request[api.GetAuctionRequest]) (*connect.Response[api.GetAuctionResponse], error) {
	slog.Info("GetAuction request received", "group_id", req.Msg.GroupID)

	g, err := s.Registry.Get(req.Msg.GroupID)
	if err != nil {
		slog.Error("GetAuction failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	a, err := g.CurrentAuction()
	if err != nil {
		slog.Error("GetAuction failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	slog.Info("GetAuction successful", "group_id", a.GroupID, "cycle", a.Cycle, "bids", len(a.Bids))

	return connect.NewResponse(&api.GetAuctionResponse{Auction: toAPIAuction(a)}), nil
}

// ListAuctionHistory returns the group's settled auctions in cycle order.
func (s *AuctionService) ListAuctionHistory(ctx context.Context, req *connect.Request[api.ListAuctionHistoryRequest]) (*connect.Response[api.ListAuctionHistoryResponse], error) {
	slog.Info("ListAuctionHistory request received", "group_id", req.Msg.GroupID)

	g, err := s.Registry.Get(req.Msg.GroupID)
	if err != nil {
		slog.Error("ListAuctionHistory failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	history := g.History()
	auctions := make([]*api.Auction, len(history))
	for i, a := range history {
		auctions[i] = toAPIAuction(a)
	}

	slog.Info("ListAuctionHistory successful", "group_id", req.Msg.GroupID, "count", len(auctions))

	return connect.NewResponse(&api.ListAuctionHistoryResponse{Auctions: auctions}), nil
}
