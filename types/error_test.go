package types

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrLoadFailed, "model load failed").
		WithCause(root).
		WithComponent("llm").
		WithRetryable(true)

	if GetErrorCode(err) != ErrLoadFailed {
		t.Fatalf("expected code %s, got %s", ErrLoadFailed, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
}

func TestError_WrappedCodeExtraction(t *testing.T) {
	t.Parallel()

	inner := NewError(ErrNotLoaded, "no model loaded")
	wrapped := fmt.Errorf("turn aborted: %w", inner)

	if GetErrorCode(wrapped) != ErrNotLoaded {
		t.Fatalf("expected code to survive wrapping, got %s", GetErrorCode(wrapped))
	}
	if !IsCode(wrapped, ErrNotLoaded) {
		t.Fatalf("expected IsCode match through wrapping")
	}
}

func TestIsCancelled(t *testing.T) {
	t.Parallel()

	if !IsCancelled(NewError(ErrCancelled, "stopped by caller")) {
		t.Fatalf("expected CANCELLED code to be cancellation")
	}
	if !IsCancelled(context.Canceled) {
		t.Fatalf("expected context.Canceled to be cancellation")
	}
	if IsCancelled(NewError(ErrTimeout, "deadline")) {
		t.Fatalf("timeout is not a cancellation")
	}
	if IsCancelled(nil) {
		t.Fatalf("nil is not a cancellation")
	}
}
