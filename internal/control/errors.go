package control

import (
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/datatable"
)

// ErrInvalidRequest marks malformed request fields.
var ErrInvalidRequest = errors.New("invalid request")

// ToStatusError maps store errors onto gRPC status codes.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, datastore.ErrNotFound),
		errors.Is(err, datatable.ErrTableNotFound),
		errors.Is(err, datatable.ErrColumnNotFound),
		errors.Is(err, datatable.ErrOwnerNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, datastore.ErrTypeMismatch),
		errors.Is(err, datatable.ErrTypeMismatch):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, datastore.ErrTransactionClosed):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, datatable.ErrTableExists),
		errors.Is(err, datatable.ErrColumnExists):
		return status.Error(codes.AlreadyExists, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
