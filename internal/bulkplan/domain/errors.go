package domain

import (
	perrors "github.com/openjustice/prisonalerts/internal/platform/errors"
)

// Stable domain errors. Match with errors.Is; platform error codes carry the
// transport mapping (HTTP status, gRPC code).
var (
	// ErrPlanNotFound indicates the bulk plan does not exist.
	ErrPlanNotFound = perrors.New(perrors.CodePlanNotFound, "bulk alert plan not found")
	// ErrPlanAlreadyStarted indicates the plan has been started and can no
	// longer be mutated or re-started.
	ErrPlanAlreadyStarted = perrors.New(perrors.CodePlanAlreadyStarted, "bulk alert plan already started")
	// ErrPlanNotCompleted indicates the plan has not finished a run, so there
	// is no durable outcome to replay.
	ErrPlanNotCompleted = perrors.New(perrors.CodePlanNotCompleted, "bulk alert plan has not completed")
	// ErrAlertCodeRequired indicates an operation needs the plan's alert code
	// and it has not been set.
	ErrAlertCodeRequired = perrors.New(perrors.CodeAlertCodeRequired, "bulk alert plan has no alert code set")
	// ErrAlertCodeNotFound indicates the alert code is absent from reference data.
	ErrAlertCodeNotFound = perrors.New(perrors.CodeAlertCodeNotFound, "alert code not found in reference data")
	// ErrPrisonerNotFound indicates a prison number did not resolve to a person summary.
	ErrPrisonerNotFound = perrors.New(perrors.CodePrisonerNotFound, "prisoner not found")
	// ErrEmptyPrisonNumberSet indicates an add/remove action carried no prison numbers.
	ErrEmptyPrisonNumberSet = perrors.New(perrors.CodeEmptyPrisonNumberSet, "prison number set must not be empty")
	// ErrBatchSizeOutOfRange indicates a start batch size outside [1, 1000].
	ErrBatchSizeOutOfRange = perrors.New(perrors.CodeBatchSizeOutOfRange, "batch size must be between 1 and 1000")
	// ErrDescriptionTooLong indicates a plan description over the persisted bound.
	ErrDescriptionTooLong = perrors.New(perrors.CodeDescriptionTooLong, "description exceeds maximum length")
	// ErrInvalidCleanupMode indicates an unrecognised cleanup mode value.
	ErrInvalidCleanupMode = perrors.New(perrors.CodeInvalidCleanupMode, "invalid cleanup mode")
	// ErrDownstreamFailure indicates a collaborator lookup was unavailable.
	ErrDownstreamFailure = perrors.New(perrors.CodeDownstreamFailure, "downstream collaborator unavailable")
)
