package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris-api/internal/models"
)

func TestParseDateBothLayouts(t *testing.T) {
	iso, err := ParseDate("2024-09-01")
	require.NoError(t, err)
	localized, err := ParseDate("01/09/2024")
	require.NoError(t, err)

	assert.True(t, iso.Equal(localized))
	assert.Equal(t, "2024-09-01", iso.Format("2006-01-02"))
}

func TestParseDateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "  ", "septembre", "2024/09/01", "31/13/2024", "2024-13-40"} {
		_, err := ParseDate(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseInterval(t *testing.T) {
	from, to, err := ParseInterval("01/09/2024", "2024-12-20")
	require.NoError(t, err)
	assert.True(t, from.Before(to))

	_, _, err = ParseInterval("2024-09-01", "nope")
	require.Error(t, err)
}

// A palier persisted in the localized layout and a candidate entered in ISO
// form must canonicalize to equal intervals and be treated as identical for
// overlap purposes.
func TestDateFormatRoundTripOverlap(t *testing.T) {
	persistedStart, err := ParseDate("01/09/2024")
	require.NoError(t, err)
	persistedEnd, err := ParseDate("20/12/2024")
	require.NoError(t, err)

	window := SessionWindow{Start: persistedStart, End: date(t, "2025-06-30")}
	sibling := models.Palier{ID: "pal-1", SessionID: "sess-1", StartDate: persistedStart, EndDate: persistedEnd}

	result, err := ValidatePeriod(PeriodCandidate{
		Start:     date(t, "2024-09-01"),
		End:       date(t, "2024-12-20"),
		SessionID: "sess-1",
	}, window, []models.Palier{sibling})
	require.NoError(t, err)
	assert.True(t, result.Overlap)
	assert.False(t, result.OutsideSession)
}
