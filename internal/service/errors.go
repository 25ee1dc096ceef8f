package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/chitfund/internal/auth"
	"github.com/mmynk/chitfund/internal/models"
	"github.com/mmynk/chitfund/pkg/api"
)

var (
	errNotMember    = errors.New("caller is not a member of this group")
	errUnauthorized = errors.New("authenticated member required")
)

// codes maps each error kind to the Connect code clients see.
var codes = map[string]connect.Code{
	"ValidationError":       connect.CodeInvalidArgument,
	"InvalidBidError":       connect.CodeInvalidArgument,
	"InvalidAmountError":    connect.CodeInvalidArgument,
	"GroupFullError":        connect.CodeFailedPrecondition,
	"InvalidStateError":     connect.CodeFailedPrecondition,
	"NoBidsError":           connect.CodeFailedPrecondition,
	"AlreadyMemberError":    connect.CodeAlreadyExists,
	"DuplicateBidError":     connect.CodeAlreadyExists,
	"IneligibleBidderError": connect.CodePermissionDenied,
	"GroupNotFoundError":    connect.CodeNotFound,
}

// toConnectError converts a core error into a Connect error whose metadata
// names the error kind.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	switch {
	case errors.Is(err, errNotMember):
		return connect.NewError(connect.CodePermissionDenied, err)
	case errors.Is(err, errUnauthorized):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, auth.ErrAddressExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, auth.ErrInvalidAddress):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	}

	kind := models.ErrorKind(err)
	code, ok := codes[kind]
	if !ok {
		return connect.NewError(connect.CodeInternal, err)
	}
	connectErr = connect.NewError(code, err)
	connectErr.Meta().Set(api.ErrorKindHeader, kind)
	return connectErr
}
