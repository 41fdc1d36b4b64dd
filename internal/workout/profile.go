package workout

import (
	"fmt"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
)

// MaxDaysPerWeek bounds the schedule length accepted from callers.
const MaxDaysPerWeek = 14

var ErrInvalidProfile = errors.NewSentinel("invalid profile")

// Validate checks numeric ranges and enum membership. Generation itself tolerates unvalidated profiles, but the
// service rejects them before generating.
func (p Profile) Validate() error {
	var errs []error
	if p.Age <= 0 {
		errs = append(errs, fmt.Errorf("%w: age must be positive, got %d", ErrInvalidProfile, p.Age))
	}
	if p.Weight <= 0 {
		errs = append(errs, fmt.Errorf("%w: weight must be positive, got %v", ErrInvalidProfile, p.Weight))
	}
	if p.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: height must be positive, got %v", ErrInvalidProfile, p.Height))
	}
	switch p.FitnessLevel {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown fitness level %q", ErrInvalidProfile, p.FitnessLevel))
	}
	switch p.Goal {
	case GoalWeightLoss, GoalMuscleGain, GoalMaintenance, GoalEndurance:
	default:
		errs = append(errs, fmt.Errorf("%w: unknown goal %q", ErrInvalidProfile, p.Goal))
	}
	if p.WorkoutDuration < 0 {
		errs = append(errs, fmt.Errorf("%w: workout duration must not be negative, got %d",
			ErrInvalidProfile, p.WorkoutDuration))
	}
	if p.DaysPerWeek < 1 || p.DaysPerWeek > MaxDaysPerWeek {
		errs = append(errs, fmt.Errorf("%w: days per week must be between 1 and %d, got %d",
			ErrInvalidProfile, MaxDaysPerWeek, p.DaysPerWeek))
	}
	return errors.Join(errs...)
}
