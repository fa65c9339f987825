package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/formrel/internal/types"
)

// Auth errors are mapped in the auth package interceptor.
// Definition and value errors map to INVALID_ARGUMENT, self dependency to
// FAILED_PRECONDITION. Store errors map to NOT_FOUND or UNAVAILABLE.
// Context timeouts map to DEADLINE_EXCEEDED.

// inputError maps a failure to parse, build or evaluate a caller-supplied form.
func inputError(err error) error {
	switch {
	case errors.Is(err, types.ErrSelfDependency):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.InvalidArgument, err.Error())
	}
}

// storeError maps a form store failure.
func storeError(err error) error {
	switch {
	case errors.Is(err, types.ErrFormNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}
