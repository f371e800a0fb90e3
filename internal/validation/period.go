package validation

import (
	"time"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

// PeriodCandidate describes a palier being created or edited. ExcludeID
// carries the id of the palier under edit so it does not collide with its own
// stored dates.
type PeriodCandidate struct {
	Start     time.Time
	End       time.Time
	SessionID string
	ExcludeID string
}

// SessionWindow is the date span of the parent session.
type SessionWindow struct {
	Start time.Time
	End   time.Time
}

// PeriodResult reports the two scheduling rules independently. Callers decide
// which flag blocks submission; today either one does.
type PeriodResult struct {
	OutsideSession bool `json:"outside_session"`
	Overlap        bool `json:"overlap"`
}

// OK reports that the candidate violates neither rule.
func (r PeriodResult) OK() bool {
	return !r.OutsideSession && !r.Overlap
}

// Reasons lists the violated rule codes.
func (r PeriodResult) Reasons() []string {
	var reasons []string
	if r.OutsideSession {
		reasons = append(reasons, appErrors.ErrOutsideSession.Code)
	}
	if r.Overlap {
		reasons = append(reasons, appErrors.ErrOverlappingPeriod.Code)
	}
	return reasons
}

// ValidatePeriod checks a candidate palier against its parent session window
// and the sibling paliers of that session. Both rules are evaluated, never
// short-circuited, so the caller can report either or both:
//
//   - containment: the candidate span must sit inside [window.Start,
//     window.End], endpoints included. An inverted candidate range counts as
//     a containment failure.
//   - overlap: the closed candidate interval must not intersect any sibling
//     with the same session id and an id other than ExcludeID. Touching
//     endpoints intersect.
//
// The function is pure: it does not mutate its inputs and performs no I/O.
// Malformed input (missing session id or zero dates) is rejected outright as
// it signals a caller bug rather than a business-rule violation.
func ValidatePeriod(candidate PeriodCandidate, window SessionWindow, siblings []models.Palier) (PeriodResult, error) {
	if candidate.SessionID == "" {
		return PeriodResult{}, appErrors.Clone(appErrors.ErrInvalidInput, "candidate session id is required")
	}
	if candidate.Start.IsZero() || candidate.End.IsZero() {
		return PeriodResult{}, appErrors.Clone(appErrors.ErrInvalidInput, "candidate dates are required")
	}
	if window.Start.IsZero() || window.End.IsZero() {
		return PeriodResult{}, appErrors.Clone(appErrors.ErrInvalidInput, "session window dates are required")
	}

	start := Canonical(candidate.Start)
	end := Canonical(candidate.End)
	lo := Canonical(window.Start)
	hi := Canonical(window.End)

	var result PeriodResult

	if start.After(end) || !within(start, end, lo, hi) {
		result.OutsideSession = true
	}

	for _, sibling := range siblings {
		if sibling.ID == candidate.ExcludeID || sibling.SessionID != candidate.SessionID {
			continue
		}
		if intersects(start, end, Canonical(sibling.StartDate), Canonical(sibling.EndDate)) {
			result.Overlap = true
			break
		}
	}

	return result, nil
}
