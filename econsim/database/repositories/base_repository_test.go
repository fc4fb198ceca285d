package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
)

func TestErrorClassification(t *testing.T) {
	var (
		notFound   error = &NotFoundError{Entity: "household_tier", ID: "civ1"}
		conflict   error = &ConflictError{Entity: "social_mobility_event", Field: "outcome", Value: "success"}
		validation error = &ValidationError{Entity: "price_basket", Reason: "weights must sum to 100"}
		transient  error = &RepositoryError{Operation: "get_effect", Entity: "fiscal_policy_effect", Err: errors.New("connection reset")}
	)

	tests := []struct {
		name           string
		err            error
		wantNotFound   bool
		wantConflict   bool
		wantValidation bool
	}{
		{"not found", notFound, true, false, false},
		{"conflict", conflict, false, true, false},
		{"validation", validation, false, false, true},
		{"transient", transient, false, false, false},
		{"wrapped not found", fmt.Errorf("loading tiers: %w", notFound), true, false, false},
		{"wrapped conflict", fmt.Errorf("resolving event: %w", conflict), false, true, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotFound(tt.err); got != tt.wantNotFound {
				t.Errorf("IsNotFound() = %v, want %v", got, tt.wantNotFound)
			}
			if got := IsConflict(tt.err); got != tt.wantConflict {
				t.Errorf("IsConflict() = %v, want %v", got, tt.wantConflict)
			}
			if got := IsValidation(tt.err); got != tt.wantValidation {
				t.Errorf("IsValidation() = %v, want %v", got, tt.wantValidation)
			}
		})
	}
}

func TestHandleError(t *testing.T) {
	br := &BaseRepository{}

	if err := br.HandleError("get", "household_tier", nil); err != nil {
		t.Errorf("HandleError(nil) = %v, want nil", err)
	}

	err := br.HandleErrorWithID("get", "household_tier", "civ1", sql.ErrNoRows)
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if nfe.ID != "civ1" {
		t.Errorf("not found ID = %v, want civ1", nfe.ID)
	}

	boom := errors.New("connection refused")
	err = br.HandleError("list", "household_tier", boom)
	var re *RepositoryError
	if !errors.As(err, &re) {
		t.Fatalf("error = %v, want RepositoryError", err)
	}
	if !errors.Is(err, boom) {
		t.Error("RepositoryError does not unwrap to the cause")
	}
}

func TestRepositoryErrorUnwrap(t *testing.T) {
	cause := sql.ErrConnDone
	err := &RepositoryError{Operation: "insert", Entity: "narrative_input", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("errors.Is failed to reach the wrapped cause")
	}
}
