package workout

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/zonroxx/FitQuest-AI/internal/catalog"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
)

// FitnessLevel scales the volume of generated exercises.
type FitnessLevel string

const (
	LevelBeginner     FitnessLevel = "beginner"
	LevelIntermediate FitnessLevel = "intermediate"
	LevelAdvanced     FitnessLevel = "advanced"
)

// Goal is the user's training objective.
type Goal string

const (
	GoalWeightLoss  Goal = "weight_loss"
	GoalMuscleGain  Goal = "muscle_gain"
	GoalMaintenance Goal = "maintenance"
	GoalEndurance   Goal = "endurance"
)

// ExerciseType is the category an exercise belongs to. The values match the catalog categories.
type ExerciseType string

const (
	TypeStrength    = ExerciseType(catalog.Strength)
	TypeCardio      = ExerciseType(catalog.Cardio)
	TypeFlexibility = ExerciseType(catalog.Flexibility)
	TypeWarmup      = ExerciseType(catalog.Warmup)
	TypeCooldown    = ExerciseType(catalog.Cooldown)
	TypeCore        = ExerciseType(catalog.Core)
)

var ErrInvalidExerciseType = errors.NewSentinel("invalid exercise type")

// ParseExerciseType accepts exactly the six category names.
func ParseExerciseType(s string) (ExerciseType, error) {
	if !catalog.Category(s).Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidExerciseType, s)
	}
	return ExerciseType(s), nil
}

// Source tells which path produced a plan.
type Source string

const (
	SourceModel Source = "model"
	SourceRules Source = "rules"
)

// Profile holds the user's fitness attributes that drive generation.
type Profile struct {
	Age                int          `json:"age"                 yaml:"age"`
	Weight             float64      `json:"weight"              yaml:"weight"`
	Height             float64      `json:"height"              yaml:"height"`
	FitnessLevel       FitnessLevel `json:"fitness_level"       yaml:"fitness_level"`
	Goal               Goal         `json:"goal"                yaml:"goal"`
	AvailableEquipment []string     `json:"available_equipment" yaml:"available_equipment"`
	WorkoutDuration    int          `json:"workout_duration"    yaml:"workout_duration"`
	DaysPerWeek        int          `json:"days_per_week"       yaml:"days_per_week"`
	// Injuries and Preferences are carried through to the plan but do not influence generation.
	Injuries    []string `json:"injuries"    yaml:"injuries"`
	Preferences []string `json:"preferences" yaml:"preferences"`
}

// clone returns a deep copy so that plans never alias the caller's slices.
func (p Profile) clone() Profile {
	p.AvailableEquipment = slices.Clone(p.AvailableEquipment)
	p.Injuries = slices.Clone(p.Injuries)
	p.Preferences = slices.Clone(p.Preferences)
	return p
}

// sessionMinutes is the workout duration used for day totals.
func (p Profile) sessionMinutes() int {
	if p.WorkoutDuration <= 0 {
		return defaultSessionMinutes
	}
	return p.WorkoutDuration
}

// Exercise is one entry of a workout day. Reps and Duration are independent; either or both may be set.
type Exercise struct {
	Name         string       `json:"name"`
	Type         ExerciseType `json:"type"`
	Sets         *int         `json:"sets"`
	Reps         *int         `json:"reps"`
	Duration     *int         `json:"duration"` // seconds
	Rest         *int         `json:"rest"`     // seconds
	Equipment    *string      `json:"equipment,omitempty"`
	Instructions *string      `json:"instructions,omitempty"`
}

// Day is a single training day of the weekly schedule.
type Day struct {
	Day           int        `json:"day"`
	Focus         string     `json:"focus"`
	Exercises     []Exercise `json:"exercises"`
	TotalDuration int        `json:"total_duration"` // minutes
}

// Plan is the generated weekly schedule together with the profile it was generated for.
type Plan struct {
	ID             string  `json:"id"`
	UserProfile    Profile `json:"user_profile"`
	GeneratedDate  Date    `json:"generated_date"`
	DurationWeeks  int     `json:"duration_weeks"`
	WeeklySchedule []Day   `json:"weekly_schedule"`
	// Source and FallbackReason are stored next to the plan, not inside it.
	Source         Source         `json:"-"`
	FallbackReason FallbackReason `json:"-"`
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar date in t's location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(time.DateOnly)
}

func (d Date) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(d.String())
	if err != nil {
		return nil, fmt.Errorf("marshal date: %w", err)
	}
	return b, nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("unmarshal date: %w", err)
	}
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("parse date: %w", err)
	}
	d.Time = t
	return nil
}
