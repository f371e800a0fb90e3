package validation

import (
	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

// CapacityResult reports the confirmed occupancy of a class session against
// its seat capacity.
type CapacityResult struct {
	Exceeded bool `json:"exceeded"`
	Current  int  `json:"current"`
	Capacity int  `json:"capacity"`
}

// CheckCapacity counts CONFIRMED inscriptions for the class session,
// excluding the inscription under edit, and flags Exceeded when the count has
// reached capacity. The comparison is >=, not >: a class at exactly its
// capacity rejects one more confirmed inscription, while resubmitting the
// excluded one passes.
func CheckCapacity(classSessionID string, capacite int, inscriptions []models.Inscription, excludeID string) (CapacityResult, error) {
	if classSessionID == "" {
		return CapacityResult{}, appErrors.Clone(appErrors.ErrInvalidInput, "class session id is required")
	}
	if capacite < 0 {
		return CapacityResult{}, appErrors.Clone(appErrors.ErrInvalidInput, "capacity must not be negative")
	}

	current := 0
	for _, ins := range inscriptions {
		if ins.ID == excludeID || ins.ClassSessionID != classSessionID {
			continue
		}
		if ins.Status == models.InscriptionStatusConfirmed {
			current++
		}
	}

	return CapacityResult{
		Exceeded: current >= capacite,
		Current:  current,
		Capacity: capacite,
	}, nil
}

// IsReinscription reports whether the student has any other inscription on
// record, in any session. Any prior inscription at all counts; the flag is
// lifetime, not scoped to the previous session.
func IsReinscription(studentUserID string, inscriptions []models.Inscription, excludeID string) (bool, error) {
	if studentUserID == "" {
		return false, appErrors.Clone(appErrors.ErrInvalidInput, "student user id is required")
	}

	for _, ins := range inscriptions {
		if ins.ID == excludeID {
			continue
		}
		if ins.StudentUserID == studentUserID {
			return true, nil
		}
	}
	return false, nil
}
