package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	t.Parallel()

	sentinel := New(CodePlanNotFound, "bulk alert plan not found")
	wrapped := fmt.Errorf("load plan: %w", New(CodePlanNotFound, "plan p-1 not found"))
	if !errors.Is(wrapped, sentinel) {
		t.Fatal("expected code match through wrapping")
	}

	other := New(CodePlanAlreadyStarted, "already started")
	if errors.Is(wrapped, other) {
		t.Fatal("expected different codes not to match")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := Wrap(CodeDownstreamFailure, "resolve prisoner", cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
}

func TestGRPCCodeMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code Code
		want codes.Code
	}{
		{CodePlanNotFound, codes.NotFound},
		{CodeAlertCodeNotFound, codes.NotFound},
		{CodePrisonerNotFound, codes.NotFound},
		{CodePlanAlreadyStarted, codes.FailedPrecondition},
		{CodePlanNotCompleted, codes.FailedPrecondition},
		{CodeBatchSizeOutOfRange, codes.InvalidArgument},
		{CodeEmptyPrisonNumberSet, codes.InvalidArgument},
		{CodeAlertCodeRequired, codes.InvalidArgument},
		{CodeDownstreamFailure, codes.Unavailable},
		{CodeUnknown, codes.Internal},
	}
	for _, tc := range cases {
		if got := tc.code.GRPCCode(); got != tc.want {
			t.Fatalf("GRPCCode(%s) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code Code
		want int
	}{
		{CodePlanNotFound, http.StatusNotFound},
		{CodePlanAlreadyStarted, http.StatusConflict},
		{CodeBatchSizeOutOfRange, http.StatusBadRequest},
		{CodeDownstreamFailure, http.StatusBadGateway},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.code.HTTPStatus(); got != tc.want {
			t.Fatalf("HTTPStatus(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestToGRPCStatusCarriesReason(t *testing.T) {
	t.Parallel()

	err := WithMetadata(CodePlanNotFound, "bulk alert plan not found", map[string]string{"planId": "p-1"}).ToGRPCStatus()
	st, ok := status.FromError(err)
	if !ok {
		t.Fatal("expected grpc status error")
	}
	if st.Code() != codes.NotFound {
		t.Fatalf("status code = %v, want %v", st.Code(), codes.NotFound)
	}
	if len(st.Details()) != 1 {
		t.Fatalf("details = %d, want 1", len(st.Details()))
	}
}
