package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHasCodeWalksWrappedChain(t *testing.T) {
	base := New(CodeConflict, "transaction already registered")
	wrapped := Wrap(base, CodeInternal, "create registration")

	if !HasCode(wrapped, CodeInternal) {
		t.Fatalf("expected outer code to match")
	}
	if !HasCode(wrapped, CodeConflict) {
		t.Fatalf("expected inner code to match through the chain")
	}
	if HasCode(wrapped, CodeNotFound) {
		t.Fatalf("did not expect CodeNotFound")
	}
}

func TestCodeOfUncodedError(t *testing.T) {
	err := fmt.Errorf("dial tcp: %w", errors.New("connection refused"))
	if got := CodeOf(err); got != CodeInternal {
		t.Fatalf("expected CodeInternal for uncoded error, got %s", got)
	}
	if got := MessageOf(err); got != "internal error" {
		t.Fatalf("expected generic message, got %q", got)
	}
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:   http.StatusBadRequest,
		CodeNotFound:     http.StatusNotFound,
		CodeConflict:     http.StatusConflict,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeUnavailable:  http.StatusServiceUnavailable,
		CodeTimeout:      http.StatusGatewayTimeout,
		CodeInternal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		if got := ToHTTPStatus(code); got != want {
			t.Errorf("ToHTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
}
