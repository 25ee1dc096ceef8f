package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/chitfund/internal/auth"
	"github.com/mmynk/chitfund/internal/membership"
	"github.com/mmynk/chitfund/internal/models"
	"github.com/mmynk/chitfund/pkg/api"
	"github.com/mmynk/chitfund/pkg/api/apiconnect"
)

var _ apiconnect.GroupServiceHandler = (*GroupService)(nil)

// GroupService implements the Connect GroupService
type GroupService struct {
	*Backend
}

// NewGroupService creates a new GroupService over the shared backend.
func NewGroupService(b *Backend) *GroupService {
	return &GroupService{Backend: b}
}

// displayNames resolves member addresses to registered users. Lookup failures
// only cost the names, so they are logged and ignored.
func (s *GroupService) displayNames(ctx context.Context, addresses []string) map[string]*models.User {
	users, err := s.Store.GetUsersByAddresses(ctx, addresses)
	if err != nil {
		slog.Warn("Failed to resolve display names", "error", err)
		return nil
	}
	return users
}

// CreateGroup creates a new Forming group with the caller as its first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.CreateGroupResponse], error) {
	creator, err := caller(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"contribution_amount", req.Msg.ContributionAmount,
		"total_members", req.Msg.TotalMembers,
		"member_id", creator,
	)

	g, err := s.Registry.Create(membership.Params{
		Name:               req.Msg.Name,
		ContributionAmount: models.Amount(req.Msg.ContributionAmount),
		TotalMembers:       req.Msg.TotalMembers,
		DurationCycles:     req.Msg.DurationCycles,
		Creator:            creator,
	})
	if err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, toConnectError(err)
	}
	s.persist(ctx, g)
	s.Metrics.RecordGroupCreated()

	group := g.Summary()
	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&api.CreateGroupResponse{
		Group: toAPIGroup(group, s.displayNames(ctx, group.Members)),
	}), nil
}

// JoinGroup adds the caller to a Forming group.
func (s *GroupService) JoinGroup(ctx context.Context, req *connect.Request[api.JoinGroupRequest]) (*connect.Response[api.JoinGroupResponse], error) {
	member, err := caller(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info("JoinGroup request received", "group_id", req.Msg.GroupID, "member_id", member)

	g, err := s.Registry.Get(req.Msg.GroupID)
	if err != nil {
		slog.Error("JoinGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	group, err := g.Join(member)
	s.Metrics.RecordJoin(err)
	if err != nil {
		slog.Error("JoinGroup failed", "group_id", req.Msg.GroupID, "member_id", member, "error", err)
		return nil, toConnectError(err)
	}
	s.persist(ctx, g)

	slog.Info("JoinGroup successful",
		"group_id", group.ID,
		"members", group.CurrentMembers(),
		"status", group.Status,
	)

	return connect.NewResponse(&api.JoinGroupResponse{
		Group: toAPIGroup(group, s.displayNames(ctx, group.Members)),
	}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	g, err := s.Registry.Get(req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, toConnectError(err)
	}

	group := g.Summary()
	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&api.GetGroupResponse{
		Group: toAPIGroup(group, s.displayNames(ctx, group.Members)),
	}), nil
}

// ListGroups retrieves groups, optionally filtered by status or by the caller's membership.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[api.ListGroupsRequest]) (*connect.Response[api.ListGroupsResponse], error) {
	slog.Info("ListGroups request received", "status", req.Msg.Status, "member_only", req.Msg.MemberOnly)

	member := ""
	if req.Msg.MemberOnly {
		var err error
		if member, err = caller(ctx); err != nil {
			return nil, toConnectError(err)
		}
	}

	groups := make([]*api.Group, 0)
	for _, g := range s.Registry.List() {
		group := g.Summary()
		if req.Msg.Status != "" && string(group.Status) != req.Msg.Status {
			continue
		}
		if member != "" && !group.IsMember(member) {
			continue
		}
		groups = append(groups, toAPIGroup(group, nil))
	}

	slog.Info("ListGroups successful", "count", len(groups))

	return connect.NewResponse(&api.ListGroupsResponse{Groups: groups}), nil
}

// GetBalance returns a member's ledger balance in one group. The member defaults to the caller.
func (s *GroupService) GetBalance(ctx context.Context, req *connect.Request[api.GetBalanceRequest]) (*connect.Response[api.GetBalanceResponse], error) {
	member := auth.NormalizeAddress(req.Msg.Member)
	if member == "" {
		var err error
		if member, err = caller(ctx); err != nil {
			return nil, toConnectError(err)
		}
	}

	slog.Info("GetBalance request received", "group_id", req.Msg.GroupID, "member_id", member)

	g, err := s.memberGroup(req.Msg.GroupID, member)
	if err != nil {
		slog.Error("GetBalance failed", "group_id", req.Msg.GroupID, "member_id", member, "error", err)
		return nil, toConnectError(err)
	}

	bal := g.Balance(member)
	slog.Info("GetBalance successful", "group_id", req.Msg.GroupID, "member_id", member, "net", bal.Net)

	return connect.NewResponse(&api.GetBalanceResponse{
		Balance: toAPIBalance(g.ID(), bal),
	}), nil
}

// GetProfile aggregates a member's participation across all groups. The member defaults to the caller.
func (s *GroupService) GetProfile(ctx context.Context, req *connect.Request[api.GetProfileRequest]) (*connect.Response[api.GetProfileResponse], error) {
	member := auth.NormalizeAddress(req.Msg.Member)
	if member == "" {
		var err error
		if member, err = caller(ctx); err != nil {
			return nil, toConnectError(err)
		}
	}

	slog.Info("GetProfile request received", "member_id", member)

	profile := s.Registry.Profile(member)
	displayName := ""
	if u := s.displayNames(ctx, []string{member})[member]; u != nil {
		displayName = u.DisplayName
	}

	slog.Info("GetProfile successful", "member_id", member, "groups", profile.TotalGroups)

	return connect.NewResponse(&api.GetProfileResponse{
		Profile: toAPIProfile(profile, displayName),
	}), nil
}
