package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris-api/internal/models"
)

func date(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed, err := ParseDate(raw)
	require.NoError(t, err)
	return parsed
}

func palier(id, sessionID, start, end string) models.Palier {
	s, _ := ParseDate(start)
	e, _ := ParseDate(end)
	return models.Palier{ID: id, SessionID: sessionID, StartDate: s, EndDate: e}
}

func TestValidatePeriodContainment(t *testing.T) {
	window := SessionWindow{Start: date(t, "2024-09-01"), End: date(t, "2025-06-30")}

	cases := []struct {
		name    string
		start   string
		end     string
		outside bool
	}{
		{"fully inside", "2024-09-15", "2024-12-20", false},
		{"matches window exactly", "2024-09-01", "2025-06-30", false},
		{"starts before session", "2024-08-31", "2024-12-20", true},
		{"ends after session", "2025-04-01", "2025-07-15", true},
		{"entirely outside", "2025-08-01", "2025-09-01", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ValidatePeriod(PeriodCandidate{
				Start:     date(t, tc.start),
				End:       date(t, tc.end),
				SessionID: "sess-1",
			}, window, nil)
			require.NoError(t, err)
			assert.Equal(t, tc.outside, result.OutsideSession)
			assert.False(t, result.Overlap)
		})
	}
}

func TestValidatePeriodInvertedRangeIsContainmentFailure(t *testing.T) {
	window := SessionWindow{Start: date(t, "2024-09-01"), End: date(t, "2025-06-30")}

	result, err := ValidatePeriod(PeriodCandidate{
		Start:     date(t, "2024-12-20"),
		End:       date(t, "2024-09-15"),
		SessionID: "sess-1",
	}, window, nil)
	require.NoError(t, err)
	assert.True(t, result.OutsideSession)
}

func TestValidatePeriodOverlapSymmetry(t *testing.T) {
	window := SessionWindow{Start: date(t, "2024-01-01"), End: date(t, "2024-12-31")}
	a := palier("pal-a", "sess-1", "2024-01-01", "2024-03-31")
	b := palier("pal-b", "sess-1", "2024-03-15", "2024-06-30")

	forward, err := ValidatePeriod(PeriodCandidate{Start: a.StartDate, End: a.EndDate, SessionID: "sess-1"}, window, []models.Palier{b})
	require.NoError(t, err)
	backward, err := ValidatePeriod(PeriodCandidate{Start: b.StartDate, End: b.EndDate, SessionID: "sess-1"}, window, []models.Palier{a})
	require.NoError(t, err)

	assert.True(t, forward.Overlap)
	assert.Equal(t, forward.Overlap, backward.Overlap)
}

func TestValidatePeriodTouchingEndpointsOverlap(t *testing.T) {
	window := SessionWindow{Start: date(t, "2024-01-01"), End: date(t, "2024-12-31")}
	sibling := palier("pal-1", "sess-1", "2024-01-01", "2024-03-31")

	result, err := ValidatePeriod(PeriodCandidate{
		Start:     date(t, "2024-03-31"),
		End:       date(t, "2024-06-30"),
		SessionID: "sess-1",
	}, window, []models.Palier{sibling})
	require.NoError(t, err)
	assert.True(t, result.Overlap)
}

func TestValidatePeriodSelfExclusionOnEdit(t *testing.T) {
	window := SessionWindow{Start: date(t, "2024-01-01"), End: date(t, "2024-12-31")}
	existing := palier("pal-1", "sess-1", "2024-01-01", "2024-03-31")

	// Resubmitting the same palier with unchanged dates must not overlap
	// itself.
	result, err := ValidatePeriod(PeriodCandidate{
		Start:     existing.StartDate,
		End:       existing.EndDate,
		SessionID: "sess-1",
		ExcludeID: "pal-1",
	}, window, []models.Palier{existing})
	require.NoError(t, err)
	assert.False(t, result.Overlap)
	assert.True(t, result.OK())

	// Without the exclusion the same input trivially overlaps.
	result, err = ValidatePeriod(PeriodCandidate{
		Start:     existing.StartDate,
		End:       existing.EndDate,
		SessionID: "sess-1",
	}, window, []models.Palier{existing})
	require.NoError(t, err)
	assert.True(t, result.Overlap)
}

func TestValidatePeriodIgnoresOtherSessions(t *testing.T) {
	window := SessionWindow{Start: date(t, "2024-01-01"), End: date(t, "2024-12-31")}
	other := palier("pal-9", "sess-other", "2024-01-01", "2024-12-31")

	result, err := ValidatePeriod(PeriodCandidate{
		Start:     date(t, "2024-02-01"),
		End:       date(t, "2024-04-30"),
		SessionID: "sess-1",
	}, window, []models.Palier{other})
	require.NoError(t, err)
	assert.False(t, result.Overlap)
}

func TestValidatePeriodBothRulesReported(t *testing.T) {
	window := SessionWindow{Start: date(t, "2024-09-01"), End: date(t, "2025-06-30")}
	sibling := palier("pal-1", "sess-1", "2025-01-01", "2025-06-30")

	result, err := ValidatePeriod(PeriodCandidate{
		Start:     date(t, "2025-06-01"),
		End:       date(t, "2025-07-15"),
		SessionID: "sess-1",
	}, window, []models.Palier{sibling})
	require.NoError(t, err)
	assert.True(t, result.OutsideSession)
	assert.True(t, result.Overlap)
	assert.ElementsMatch(t, []string{"OUTSIDE_SESSION", "OVERLAPPING_PERIOD"}, result.Reasons())
}

func TestValidatePeriodTrimesterScenario(t *testing.T) {
	// Session 2024-2025 runs 2024-09-01..2025-06-30.
	window := SessionWindow{Start: date(t, "2024-09-01"), End: date(t, "2025-06-30")}

	tri1, err := ValidatePeriod(PeriodCandidate{
		Start:     date(t, "2024-09-01"),
		End:       date(t, "2024-12-20"),
		SessionID: "sess-2425",
	}, window, nil)
	require.NoError(t, err)
	assert.True(t, tri1.OK())

	siblings := []models.Palier{palier("tri-1", "sess-2425", "2024-09-01", "2024-12-20")}

	tri2, err := ValidatePeriod(PeriodCandidate{
		Start:     date(t, "2024-12-15"),
		End:       date(t, "2025-03-31"),
		SessionID: "sess-2425",
	}, window, siblings)
	require.NoError(t, err)
	assert.True(t, tri2.Overlap)
	assert.False(t, tri2.OutsideSession)

	tri3, err := ValidatePeriod(PeriodCandidate{
		Start:     date(t, "2025-04-01"),
		End:       date(t, "2025-07-15"),
		SessionID: "sess-2425",
	}, window, siblings)
	require.NoError(t, err)
	assert.True(t, tri3.OutsideSession)
	assert.False(t, tri3.Overlap)
}

func TestValidatePeriodRejectsMalformedInput(t *testing.T) {
	window := SessionWindow{Start: date(t, "2024-01-01"), End: date(t, "2024-12-31")}

	_, err := ValidatePeriod(PeriodCandidate{Start: date(t, "2024-02-01"), End: date(t, "2024-03-01")}, window, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session id")

	_, err = ValidatePeriod(PeriodCandidate{SessionID: "sess-1"}, window, nil)
	require.Error(t, err)

	_, err = ValidatePeriod(PeriodCandidate{Start: date(t, "2024-02-01"), End: date(t, "2024-03-01"), SessionID: "sess-1"}, SessionWindow{}, nil)
	require.Error(t, err)
}
