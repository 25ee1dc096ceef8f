package service

import (
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/chitfund/internal/auth"
	"github.com/mmynk/chitfund/internal/middleware"
	"github.com/mmynk/chitfund/pkg/api/apiconnect"
)

// PublicProcedures can be called without a token.
var PublicProcedures = []string{
	apiconnect.AuthServiceRegisterProcedure,
	apiconnect.AuthServiceLoginProcedure,
}

// Mount registers the three Connect services on mux behind the auth, logging
// and rate limiting interceptors, in that order.
func Mount(mux *http.ServeMux, b *Backend, authSvc *AuthService, jwtManager *auth.JWTManager, limiter *middleware.RateLimiter) {
	interceptors := connect.WithInterceptors(
		middleware.RequireAuth(jwtManager, PublicProcedures...),
		middleware.LoggingInterceptor(),
		limiter.Interceptor(),
	)

	mux.Handle(apiconnect.NewAuthServiceHandler(authSvc, interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(NewGroupService(b), interceptors))
	mux.Handle(apiconnect.NewAuctionServiceHandler(NewAuctionService(b), interceptors))
}
