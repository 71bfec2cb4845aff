package errors_test

import (
	"errors"
	"fmt"
	"testing"

	berr "github.com/next-trace/scg-banking-services/contract/errors"
)

func TestCode_IsComparableThroughWrapping(t *testing.T) {
	err := fmt.Errorf("declare queue %q: %w", "x.queue", berr.ErrDeclareConflict)

	if !errors.Is(err, berr.ErrDeclareConflict) {
		t.Fatalf("wrapped code not matched: %v", err)
	}

	if errors.Is(err, berr.ErrPublishFailed) {
		t.Fatalf("unrelated code matched: %v", err)
	}
}

func TestCode_MessageIsTheCode(t *testing.T) {
	if got := berr.ErrClientNotFound.Error(); got != berr.ErrCodeClientNotFound {
		t.Fatalf("got %q", got)
	}
}

func TestCode_SameCodeIsSameError(t *testing.T) {
	if !errors.Is(berr.Code(berr.ErrCodeNotFound), berr.ErrNotFound) {
		t.Fatal("codes with equal strings must match")
	}
}
