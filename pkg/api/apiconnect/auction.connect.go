package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/chitfund/pkg/api"
)

// AuctionServiceName is the fully-qualified name of the AuctionService service.
const AuctionServiceName = "chitfund.v1.AuctionService"

const (
	AuctionServiceOpenCycleProcedure          = "/chitfund.v1.AuctionService/OpenCycle"
	AuctionServicePlaceBidProcedure           = "/chitfund.v1.AuctionService/PlaceBid"
	AuctionServiceSettleCycleProcedure        = "/chitfund.v1.AuctionService/SettleCycle"
	AuctionServiceExtendCycleProcedure        = "/chitfund.v1.AuctionService/ExtendCycle"
	AuctionServiceGetAuctionProcedure         = "/chitfund.v1.AuctionService/GetAuction"
	AuctionServiceListAuctionHistoryProcedure = "/chitfund.v1.AuctionService/ListAuctionHistory"
)

// AuctionServiceClient is a client for the chitfund.v1.AuctionService service.
type AuctionServiceClient interface {
	OpenCycle(context.Context, *connect.Request[api.OpenCycleRequest]) (*connect.Response[api.OpenCycleResponse], error)
	PlaceBid(context.Context, *connect.Request[api.PlaceBidRequest]) (*connect.Response[api.PlaceBidResponse], error)
	SettleCycle(context.Context, *connect.Request[api.SettleCycleRequest]) (*connect.Response[api.SettleCycleResponse], error)
	ExtendCycle(context.Context, *connect.Request[api.ExtendCycleRequest]) (*connect.Response[api.ExtendCycleResponse], error)
	GetAuction(context.Context, *connect.Request[api.GetAuctionRequest]) (*connect.Response[api.GetAuctionResponse], error)
	ListAuctionHistory(context.Context, *connect.Request[api.ListAuctionHistoryRequest]) (*connect.Response[api.ListAuctionHistoryResponse], error)
}

// NewAuctionServiceClient constructs a client for the chitfund.v1.AuctionService service.
func NewAuctionServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuctionServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &auctionServiceClient{
		openCycle:          connect.NewClient[api.OpenCycleRequest, api.OpenCycleResponse](httpClient, baseURL+AuctionServiceOpenCycleProcedure, opts...),
		placeBid:           connect.NewClient[api.PlaceBidRequest, api.PlaceBidResponse](httpClient, baseURL+AuctionServicePlaceBidProcedure, opts...),
		settleCycle:        connect.NewClient[api.SettleCycleRequest, api.SettleCycleResponse](httpClient, baseURL+AuctionServiceSettleCycleProcedure, opts...),
		extendCycle:        connect.NewClient[api.ExtendCycleRequest, api.ExtendCycleResponse](httpClient, baseURL+AuctionServiceExtendCycleProcedure, opts...),
		getAuction:         connect.NewClient[api.GetAuctionRequest, api.GetAuctionResponse](httpClient, baseURL+AuctionServiceGetAuctionProcedure, opts...),
		listAuctionHistory: connect.NewClient[api.ListAuctionHistoryRequest, api.ListAuctionHistoryResponse](httpClient, baseURL+AuctionServiceListAuctionHistoryProcedure, opts...),
	}
}

type auctionServiceClient struct {
	openCycle          *connect.Client[api.OpenCycleRequest, api.OpenCycleResponse]
	placeBid           *connect.Client[api.PlaceBidRequest, api.PlaceBidResponse]
	settleCycle        *connect.Client[api.SettleCycleRequest, api.SettleCycleResponse]
	extendCycle        *connect.Client[api.ExtendCycleRequest, api.ExtendCycleResponse]
	getAuction         *connect.Client[api.GetAuctionRequest, api.GetAuctionResponse]
	listAuctionHistory *connect.Client[api.ListAuctionHistoryRequest, api.ListAuctionHistoryResponse]
}

func (c *auctionServiceClient) OpenCycle(ctx context.Context, req *connect.Request[api.OpenCycleRequest]) (*connect.Response[api.OpenCycleResponse], error) {
	return c.openCycle.CallUnary(ctx, req)
}

func (c *auctionServiceClient) PlaceBid(ctx context.Context, req *connect.Request[api.PlaceBidRequest]) (*connect.Response[api.PlaceBidResponse], error) {
	return c.placeBid.CallUnary(ctx, req)
}

func (c *auctionServiceClient) SettleCycle(ctx context.Context, req *connect.Request[api.SettleCycleRequest]) (*connect.Response[api.SettleCycleResponse], error) {
	return c.settleCycle.CallUnary(ctx, req)
}

func (c *auctionServiceClient) ExtendCycle(ctx context.Context, req *connect.Request[api.ExtendCycleRequest]) (*connect.Response[api.ExtendCycleResponse], error) {
	return c.extendCycle.CallUnary(ctx, req)
}

func (c *auctionServiceClient) GetAuction(ctx context.Context, req *connect.Request[api.GetAuctionRequest]) (*connect.Response[api.GetAuctionResponse], error) {
	return c.getAuction.CallUnary(ctx, req)
}

func (c *auctionServiceClient) ListAuctionHistory(ctx context.Context, req *connect.Request[api.ListAuctionHistoryRequest]) (*connect.Response[api.ListAuctionHistoryResponse], error) {
	return c.listAuctionHistory.CallUnary(ctx, req)
}

// AuctionServiceHandler is implemented by the server side of chitfund.v1.AuctionService.
type AuctionServiceHandler interface {
	OpenCycle(context.Context, *connect.Request[api.OpenCycleRequest]) (*connect.Response[api.OpenCycleResponse], error)
	PlaceBid(context.Context, *connect.Request[api.PlaceBidRequest]) (*connect.Response[api.PlaceBidResponse], error)
	SettleCycle(context.Context, *connect.Request[api.SettleCycleRequest]) (*connect.Response[api.SettleCycleResponse], error)
	ExtendCycle(context.Context, *connect.Request[api.ExtendCycleRequest]) (*connect.Response[api.ExtendCycleResponse], error)
	GetAuction(context.Context, *connect.Request[api.GetAuctionRequest]) (*connect.Response[api.GetAuctionResponse], error)
	ListAuctionHistory(context.Context, *connect.Request[api.ListAuctionHistoryRequest]) (*connect.Response[api.ListAuctionHistoryResponse], error)
}

// NewAuctionServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuctionServiceHandler(svc AuctionServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AuctionServiceName + "/", route(map[string]http.Handler{
		AuctionServiceOpenCycleProcedure:          connect.NewUnaryHandler(AuctionServiceOpenCycleProcedure, svc.OpenCycle, opts...),
		AuctionServicePlaceBidProcedure:           connect.NewUnaryHandler(AuctionServicePlaceBidProcedure, svc.PlaceBid, opts...),
		AuctionServiceSettleCycleProcedure:        connect.NewUnaryHandler(AuctionServiceSettleCycleProcedure, svc.SettleCycle, opts...),
		AuctionServiceExtendCycleProcedure:        connect.NewUnaryHandler(AuctionServiceExtendCycleProcedure, svc.ExtendCycle, opts...),
		AuctionServiceGetAuctionProcedure:         connect.NewUnaryHandler(AuctionServiceGetAuctionProcedure, svc.GetAuction, opts...),
		AuctionServiceListAuctionHistoryProcedure: connect.NewUnaryHandler(AuctionServiceListAuctionHistoryProcedure, svc.ListAuctionHistory, opts...),
	})
}
