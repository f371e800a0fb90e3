package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris-api/internal/models"
)

func confirmedRoster(classSessionID string, n int) []models.Inscription {
	roster := make([]models.Inscription, 0, n)
	for i := 0; i < n; i++ {
		roster = append(roster, models.Inscription{
			ID:             fmt.Sprintf("ins-%d", i),
			StudentUserID:  fmt.Sprintf("user-%d", i),
			ClassSessionID: classSessionID,
			Status:         models.InscriptionStatusConfirmed,
		})
	}
	return roster
}

func TestCheckCapacityBoundary(t *testing.T) {
	roster := confirmedRoster("cs-1", 30)

	// At exactly capacity a new inscription is rejected.
	result, err := CheckCapacity("cs-1", 30, roster, "")
	require.NoError(t, err)
	assert.True(t, result.Exceeded)
	assert.Equal(t, 30, result.Current)
	assert.Equal(t, 30, result.Capacity)

	// One seat left.
	result, err = CheckCapacity("cs-1", 30, roster[:29], "")
	require.NoError(t, err)
	assert.False(t, result.Exceeded)
	assert.Equal(t, 29, result.Current)

	// Editing one of the thirty does not self-block.
	result, err = CheckCapacity("cs-1", 30, roster, "ins-0")
	require.NoError(t, err)
	assert.False(t, result.Exceeded)
	assert.Equal(t, 29, result.Current)
}

func TestCheckCapacityOnlyConfirmedCount(t *testing.T) {
	roster := []models.Inscription{
		{ID: "ins-1", ClassSessionID: "cs-1", Status: models.InscriptionStatusConfirmed},
		{ID: "ins-2", ClassSessionID: "cs-1", Status: models.InscriptionStatusPending},
		{ID: "ins-3", ClassSessionID: "cs-1", Status: models.InscriptionStatusCancelled},
		{ID: "ins-4", ClassSessionID: "cs-1", Status: models.InscriptionStatusSuspended},
		{ID: "ins-5", ClassSessionID: "cs-other", Status: models.InscriptionStatusConfirmed},
	}

	result, err := CheckCapacity("cs-1", 2, roster, "")
	require.NoError(t, err)
	assert.False(t, result.Exceeded)
	assert.Equal(t, 1, result.Current)
}

func TestCheckCapacityZeroCapacity(t *testing.T) {
	result, err := CheckCapacity("cs-1", 0, nil, "")
	require.NoError(t, err)
	assert.True(t, result.Exceeded)
	assert.Equal(t, 0, result.Current)
}

func TestCheckCapacityRejectsMalformedInput(t *testing.T) {
	_, err := CheckCapacity("", 10, nil, "")
	require.Error(t, err)

	_, err = CheckCapacity("cs-1", -1, nil, "")
	require.Error(t, err)
}

func TestIsReinscription(t *testing.T) {
	// No history at all.
	flag, err := IsReinscription("user-1", nil, "")
	require.NoError(t, err)
	assert.False(t, flag)

	history := []models.Inscription{
		{ID: "ins-1", StudentUserID: "user-1", ClassSessionID: "cs-1", Status: models.InscriptionStatusConfirmed},
	}

	// Any prior inscription counts, regardless of session or status.
	flag, err = IsReinscription("user-1", history, "")
	require.NoError(t, err)
	assert.True(t, flag)

	// Editing the single existing inscription is not a reinscription.
	flag, err = IsReinscription("user-1", history, "ins-1")
	require.NoError(t, err)
	assert.False(t, flag)

	// Another student's record does not count.
	flag, err = IsReinscription("user-2", history, "")
	require.NoError(t, err)
	assert.False(t, flag)
}

func TestIsReinscriptionCountsCancelledHistory(t *testing.T) {
	history := []models.Inscription{
		{ID: "ins-1", StudentUserID: "user-1", ClassSessionID: "cs-1", Status: models.InscriptionStatusCancelled},
	}

	flag, err := IsReinscription("user-1", history, "")
	require.NoError(t, err)
	assert.True(t, flag)
}

func TestIsReinscriptionRejectsMissingStudentID(t *testing.T) {
	_, err := IsReinscription("", nil, "")
	require.Error(t, err)
}
