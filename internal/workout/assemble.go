package workout

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
)

// Defaults applied by Assemble to fields missing from raw plan data.
const (
	defaultExerciseName   = "Exercise"
	defaultFocus          = "Workout"
	defaultSets           = 3
	defaultReps           = 10
	defaultRest           = 60
	defaultSessionMinutes = 40
	planDurationWeeks     = 1
)

// Assemble converts raw plan data into a Plan, filling defaults for missing fields.
//
// A missing key gets its default while an explicit null stays empty. The only error is an exercise type that is
// present but not one of the six categories, including a type that is not a string at all. It is reported as
// ErrInvalidExerciseType.
func Assemble(profile Profile, raw RawPlan, generatedAt time.Time, id string) (Plan, error) {
	days := make([]Day, 0, len(raw.WeeklySchedule))
	for i, rd := range raw.WeeklySchedule {
		exercises := make([]Exercise, 0, len(rd.Exercises))
		for j, re := range rd.Exercises {
			ex, err := assembleExercise(re)
			if err != nil {
				return Plan{}, errors.Wrap(err, "assemble exercise",
					slog.Int("day_position", i+1), slog.Int("exercise_position", j+1))
			}
			exercises = append(exercises, ex)
		}

		dayIndex := i + 1
		if rd.Day.Value != nil {
			dayIndex = *rd.Day.Value
		}
		totalDuration := profile.sessionMinutes()
		if rd.TotalDuration.Value != nil {
			totalDuration = *rd.TotalDuration.Value
		}
		days = append(days, Day{
			Day:           dayIndex,
			Focus:         rd.Focus.valueOr(defaultFocus),
			Exercises:     exercises,
			TotalDuration: totalDuration,
		})
	}

	return Plan{
		ID:             id,
		UserProfile:    profile.clone(),
		GeneratedDate:  NewDate(generatedAt),
		DurationWeeks:  planDurationWeeks,
		WeeklySchedule: days,
		Source:         "",
		FallbackReason: ReasonNone,
	}, nil
}

func assembleExercise(re RawExercise) (Exercise, error) {
	exerciseType := TypeStrength
	switch {
	case re.Type.Value != nil:
		var err error
		if exerciseType, err = ParseExerciseType(*re.Type.Value); err != nil {
			return Exercise{}, fmt.Errorf("exercise %q: %w", re.Name.valueOr(defaultExerciseName), err)
		}
	case re.Type.Raw != nil:
		return Exercise{}, fmt.Errorf("exercise %q: %w: %s", re.Name.valueOr(defaultExerciseName),
			ErrInvalidExerciseType, re.Type.Raw)
	}
	return Exercise{
		Name:         re.Name.valueOr(defaultExerciseName),
		Type:         exerciseType,
		Sets:         re.Sets.or(defaultSets),
		Reps:         re.Reps.or(defaultReps),
		Duration:     clone(re.Duration.Value),
		Rest:         re.Rest.or(defaultRest),
		Equipment:    clone(re.Equipment.Value),
		Instructions: clone(re.Instructions.Value),
	}, nil
}
