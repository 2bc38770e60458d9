package requestctx

import (
	"context"
	"testing"
)

func TestCallerFromContextRoundTrip(t *testing.T) {
	caller := Caller{Username: "AB11DZ", DisplayName: "A. Officer", Source: "DPS"}
	ctx := WithCaller(context.Background(), caller)
	got := CallerFromContext(ctx)
	if got != caller {
		t.Fatalf("CallerFromContext = %+v, want %+v", got, caller)
	}
}

func TestCallerFromContextEmpty(t *testing.T) {
	got := CallerFromContext(context.Background())
	if got != (Caller{}) {
		t.Fatalf("expected zero caller, got %+v", got)
	}
}

func TestCallerFromContextNil(t *testing.T) {
	got := CallerFromContext(nil)
	if got != (Caller{}) {
		t.Fatalf("expected zero caller for nil context, got %+v", got)
	}
}

func TestWithCallerNilContext(t *testing.T) {
	ctx := WithCaller(nil, Caller{Username: "CD22EA"})
	if ctx == nil {
		t.Fatalf("expected non-nil context")
	}
	if got := CallerFromContext(ctx); got.Username != "CD22EA" {
		t.Fatalf("username = %q, want %q", got.Username, "CD22EA")
	}
}
