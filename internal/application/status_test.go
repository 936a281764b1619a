package application

import (
	"errors"
	"testing"
)

func TestParseJobStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]JobStatus{
		"Applied":              StatusApplied,
		"phone screen":         StatusPhoneScreen,
		"PHONE_SCREEN":         StatusPhoneScreen,
		"technical-interview":  StatusTechnicalInterview,
		"  onsite   interview": StatusOnsiteInterview,
		"on-hold":              StatusOnHold,
		"OFFER":                StatusOffer,
	}
	for input, want := range cases {
		got, err := ParseJobStatus(input)
		if err != nil {
			t.Fatalf("ParseJobStatus(%q) failed: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseJobStatus(%q) = %q, want %q", input, got, want)
		}
	}

	for _, input := range []string{"", "ghosted", "Phone"} {
		_, err := ParseJobStatus(input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["status"] == "" {
			t.Fatalf("ParseJobStatus(%q): expected status validation error, got %v", input, err)
		}
	}
}

func TestAllJobStatuses(t *testing.T) {
	t.Parallel()

	statuses := AllJobStatuses()
	if len(statuses) != 9 || statuses[0] != StatusApplied || statuses[8] != StatusOnHold {
		t.Fatalf("unexpected status order: %v", statuses)
	}
	statuses[0] = "mutated"
	if AllJobStatuses()[0] != StatusApplied {
		t.Fatalf("expected AllJobStatuses to return a copy")
	}
	for _, s := range AllJobStatuses() {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if JobStatus("applied").Valid() {
		t.Fatalf("expected lower case value to be invalid")
	}
}
