package application

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// JobStatus is the recruiting outcome recorded for a job application. Any
// status may follow any other.
type JobStatus string

const (
	StatusApplied            JobStatus = "Applied"
	StatusPhoneScreen        JobStatus = "Phone Screen"
	StatusTechnicalInterview JobStatus = "Technical Interview"
	StatusOnsiteInterview    JobStatus = "Onsite Interview"
	StatusFinalInterview     JobStatus = "Final Interview"
	StatusOffer              JobStatus = "Offer"
	StatusRejected           JobStatus = "Rejected"
	StatusWithdrawn          JobStatus = "Withdrawn"
	StatusOnHold             JobStatus = "On Hold"
)

var allStatuses = []JobStatus{
	StatusApplied,
	StatusPhoneScreen,
	StatusTechnicalInterview,
	StatusOnsiteInterview,
	StatusFinalInterview,
	StatusOffer,
	StatusRejected,
	StatusWithdrawn,
	StatusOnHold,
}

// AllJobStatuses returns every status in declaration order.
func AllJobStatuses() []JobStatus {
	return append([]JobStatus(nil), allStatuses...)
}

// String implements fmt.Stringer.
func (s JobStatus) String() string { return string(s) }

// Valid reports whether s is one of the declared statuses.
func (s JobStatus) Valid() bool {
	for _, candidate := range allStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// ParseJobStatus resolves user input such as "phone screen", "PHONE_SCREEN"
// or "on-hold" to a status. Unknown values yield a *ValidationError.
func ParseJobStatus(value string) (JobStatus, error) {
	normalized := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(value))
	normalized = strings.Join(strings.Fields(normalized), " ")
	if normalized == "" {
		return "", NewValidationError("status", "is required")
	}

	// Casers keep state, so each call gets its own.
	candidate := JobStatus(cases.Title(language.English).String(strings.ToLower(normalized)))
	if candidate.Valid() {
		return candidate, nil
	}
	return "", NewValidationError("status", "must be one of: "+joinStatuses(allStatuses))
}

func joinStatuses(statuses []JobStatus) string {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
