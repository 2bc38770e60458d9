// Package errors provides structured error handling with stable machine codes.
package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Bulk plan errors
	CodePlanNotFound       Code = "PLAN_NOT_FOUND"
	CodePlanAlreadyStarted Code = "PLAN_ALREADY_STARTED"
	CodePlanNotCompleted   Code = "PLAN_NOT_COMPLETED"

	// Action and input errors
	CodeAlertCodeRequired    Code = "PLAN_ALERT_CODE_REQUIRED"
	CodeEmptyPrisonNumberSet Code = "PLAN_EMPTY_PRISON_NUMBER_SET"
	CodeBatchSizeOutOfRange  Code = "PLAN_BATCH_SIZE_OUT_OF_RANGE"
	CodeDescriptionTooLong   Code = "PLAN_DESCRIPTION_TOO_LONG"
	CodeInvalidCleanupMode   Code = "PLAN_INVALID_CLEANUP_MODE"

	// Reference data and population errors
	CodeAlertCodeNotFound Code = "ALERT_CODE_NOT_FOUND"
	CodePrisonerNotFound  Code = "PRISONER_NOT_FOUND"

	// Collaborator errors
	CodeDownstreamFailure Code = "DOWNSTREAM_FAILURE"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeAlertCodeRequired,
		CodeEmptyPrisonNumberSet,
		CodeBatchSizeOutOfRange,
		CodeDescriptionTooLong,
		CodeInvalidCleanupMode:
		return codes.InvalidArgument

	// NotFound - missing records
	case CodePlanNotFound,
		CodeAlertCodeNotFound,
		CodePrisonerNotFound:
		return codes.NotFound

	// FailedPrecondition - lifecycle conflicts
	case CodePlanAlreadyStarted,
		CodePlanNotCompleted:
		return codes.FailedPrecondition

	// Unavailable - collaborator outages
	case CodeDownstreamFailure:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}

// HTTPStatus maps domain codes to the REST status semantics of the service.
func (c Code) HTTPStatus() int {
	switch c.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Unavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
