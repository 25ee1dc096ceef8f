// Package api defines the request and response messages of the chitfund.v1 services.
// Messages travel as JSON over Connect; amounts are integer minor units.
package api

import "time"

// ErrorKindHeader carries the error taxonomy name on failed calls.
const ErrorKindHeader = "Chit-Error-Kind"

type User struct {
	ID          string `json:"id"`
	Address     string `json:"address"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

type Member struct {
	Address     string `json:"address"`
	DisplayName string `json:"displayName,omitempty"`
	// WonCycle is 0 until the member wins an auction.
	WonCycle int `json:"wonCycle"`
}

type Group struct {
	ID                 string   `json:"id"`
	Name               string   `json:"name"`
	ContributionAmount int64    `json:"contributionAmount"`
	TotalMembers       int      `json:"totalMembers"`
	DurationCycles     int      `json:"durationCycles"`
	CurrentMembers     int      `json:"currentMembers"`
	CurrentCycle       int      `json:"currentCycle"`
	Status             string   `json:"status"`
	Pool               int64    `json:"pool"`
	Members            []Member `json:"members"`
	Winners            []string `json:"winners"`
	CreatedBy          string   `json:"createdBy"`
	CreatedAt          int64    `json:"createdAt"`
}

type Bid struct {
	Member      string    `json:"member"`
	Amount      int64     `json:"amount"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type Auction struct {
	GroupID    string    `json:"groupId"`
	Cycle      int       `json:"cycle"`
	Status     string    `json:"status"`
	OpenedAt   time.Time `json:"openedAt"`
	EndTime    time.Time `json:"endTime"`
	Extensions int       `json:"extensions"`
	// Bids are ordered best first.
	Bids       []Bid      `json:"bids"`
	Winner     string     `json:"winner,omitempty"`
	WinningBid int64      `json:"winningBid,omitempty"`
	Discount   int64      `json:"discount,omitempty"`
	SettledAt  *time.Time `json:"settledAt,omitempty"`
}

type LedgerEntry struct {
	Member           string `json:"member"`
	Cycle            int    `json:"cycle"`
	Contributed      int64  `json:"contributed"`
	PayoutReceived   int64  `json:"payoutReceived"`
	DiscountReceived int64  `json:"discountReceived"`
	DiscountForgone  int64  `json:"discountForgone"`
}

type Settlement struct {
	GroupID           string        `json:"groupId"`
	Cycle             int           `json:"cycle"`
	Winner            string        `json:"winner"`
	WinningBid        int64         `json:"winningBid"`
	Discount          int64         `json:"discount"`
	DiscountPerMember int64         `json:"discountPerMember"`
	Remainder         int64         `json:"remainder"`
	RemainderTo       string        `json:"remainderTo,omitempty"`
	Pool              int64         `json:"pool"`
	Entries           []LedgerEntry `json:"entries"`
	GroupCompleted    bool          `json:"groupCompleted"`
}

type Balance struct {
	GroupID          string `json:"groupId"`
	Member           string `json:"member"`
	Contributed      int64  `json:"contributed"`
	PayoutReceived   int64  `json:"payoutReceived"`
	DiscountReceived int64  `json:"discountReceived"`
	DiscountForgone  int64  `json:"discountForgone"`
	Net              int64  `json:"net"`
}

type Participation struct {
	GroupID          string `json:"groupId"`
	GroupName        string `json:"groupName"`
	Status           string `json:"status"`
	CurrentCycle     int    `json:"currentCycle"`
	DurationCycles   int    `json:"durationCycles"`
	WonCycle         int    `json:"wonCycle"`
	Contributed      int64  `json:"contributed"`
	PayoutReceived   int64  `json:"payoutReceived"`
	DiscountReceived int64  `json:"discountReceived"`
}

type Profile struct {
	Member                string          `json:"member"`
	DisplayName           string          `json:"displayName,omitempty"`
	TotalGroups           int             `json:"totalGroups"`
	TotalContributed      int64           `json:"totalContributed"`
	TotalPayoutReceived   int64           `json:"totalPayoutReceived"`
	TotalDiscountReceived int64           `json:"totalDiscountReceived"`
	Participations        []Participation `json:"participations"`
}

// AuthService

type RegisterRequest struct {
	Address     string `json:"address"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type LoginRequest struct {
	Address  string `json:"address"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// GroupService

type CreateGroupRequest struct {
	Name               string `json:"name"`
	ContributionAmount int64  `json:"contributionAmount"`
	TotalMembers       int    `json:"totalMembers"`
	// DurationCycles defaults to TotalMembers when zero.
	DurationCycles int `json:"durationCycles"`
}

type CreateGroupResponse struct {
	Group *Group `json:"group"`
}

type JoinGroupRequest struct {
	GroupID string `json:"groupId"`
}

type JoinGroupResponse struct {
	Group *Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group *Group `json:"group"`
}

type ListGroupsRequest struct {
	// Status filters by group status when set.
	Status string `json:"status,omitempty"`
	// MemberOnly limits the result to groups the caller belongs to.
	MemberOnly bool `json:"memberOnly,omitempty"`
}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type GetBalanceRequest struct {
	GroupID string `json:"groupId"`
	// Member defaults to the caller.
	Member string `json:"member,omitempty"`
}

type GetBalanceResponse struct {
	Balance *Balance `json:"balance"`
}

type GetProfileRequest struct {
	// Member defaults to the caller.
	Member string `json:"member,omitempty"`
}

type GetProfileResponse struct {
	Profile *Profile `json:"profile"`
}

// AuctionService

type OpenCycleRequest struct {
	GroupID string `json:"groupId"`
}

type OpenCycleResponse struct {
	Auction *Auction `json:"auction"`
}

type PlaceBidRequest struct {
	GroupID string `json:"groupId"`
	Amount  int64  `json:"amount"`
}

type PlaceBidResponse struct {
	Bid *Bid `json:"bid"`
}

type SettleCycleRequest struct {
	GroupID string `json:"groupId"`
}

type SettleCycleResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ExtendCycleRequest struct {
	GroupID string `json:"groupId"`
	// WindowSeconds of zero uses the server's auction window.
	WindowSeconds int64 `json:"windowSeconds,omitempty"`
}

type ExtendCycleResponse struct {
	Auction *Auction `json:"auction"`
}

type GetAuctionRequest struct {
	GroupID string `json:"groupId"`
}

type GetAuctionResponse struct {
	Auction *Auction `json:"auction"`
}

type ListAuctionHistoryRequest struct {
	GroupID string `json:"groupId"`
}

type ListAuctionHistoryResponse struct {
	Auctions []*Auction `json:"auctions"`
}
