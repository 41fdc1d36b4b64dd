package workout_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/zonroxx/FitQuest-AI/internal/catalog"
	"github.com/zonroxx/FitQuest-AI/internal/ptr"
	"github.com/zonroxx/FitQuest-AI/internal/testhelpers"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
)

//nolint:gochecknoglobals // fixed test clock.
var testNow = time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

func newRuleGenerator(t *testing.T, cat *catalog.Catalog) *workout.Generator {
	t.Helper()
	return workout.NewGenerator(cat, nil, testhelpers.NewLogger(testhelpers.NewWriter(t)),
		workout.WithClock(func() time.Time { return testNow }),
		workout.WithIDSource(func() string { return "plan-1" }))
}

func baseProfile() workout.Profile {
	return workout.Profile{
		Age:                30,
		Weight:             75,
		Height:             180,
		FitnessLevel:       workout.LevelIntermediate,
		Goal:               workout.GoalMaintenance,
		AvailableEquipment: nil,
		WorkoutDuration:    45,
		DaysPerWeek:        3,
		Injuries:           nil,
		Preferences:        nil,
	}
}

func exerciseNames(d workout.Day) []string {
	names := make([]string, len(d.Exercises))
	for i, e := range d.Exercises {
		names[i] = e.Name
	}
	return names
}

func TestFocusesFor(t *testing.T) {
	tests := []struct {
		days int
		want []string
	}{
		{days: 0, want: []string{}},
		{days: 1, want: []string{"Full Body"}},
		{days: 2, want: []string{"Full Body", "Full Body"}},
		{days: 3, want: []string{"Upper Body", "Lower Body", "Full Body"}},
		{days: 4, want: []string{"Upper Body", "Lower Body", "Core & Cardio", "Full Body"}},
		{
			days: 5,
			want: []string{"Upper Body", "Lower Body", "Core & Conditioning", "Full Body", "Cardio & Flexibility"},
		},
		{
			days: 6,
			want: []string{"Upper Body Push", "Lower Body", "Core", "Upper Body Pull", "Legs & Cardio", "Full Body"},
		},
		{
			days: 7,
			want: []string{"Upper Body Push", "Lower Body", "Core & Cardio", "Upper Body Pull", "Legs", "Full Body",
				"Active Recovery"},
		},
		{
			days: 9,
			want: []string{"Upper Body Push", "Lower Body", "Core & Cardio", "Upper Body Pull", "Legs", "Full Body",
				"Active Recovery", "Upper Body Push", "Lower Body"},
		},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, workout.FocusesFor(tt.days)); diff != "" {
			t.Errorf("FocusesFor(%d) mismatch (-want +got):\n%s", tt.days, diff)
		}
	}
}

func TestGenerator_BuildRuleBased_fullBody(t *testing.T) {
	g := newRuleGenerator(t, catalog.Default())
	profile := baseProfile()
	profile.DaysPerWeek = 1

	got := g.BuildRuleBased(profile)

	bodyweight := ptr.Ref("bodyweight")
	want := workout.Plan{
		ID:             "plan-1",
		UserProfile:    profile,
		GeneratedDate:  workout.NewDate(testNow),
		DurationWeeks:  1,
		Source:         workout.SourceRules,
		FallbackReason: workout.ReasonNone,
		WeeklySchedule: []workout.Day{{
			Day:           1,
			Focus:         "Full Body",
			TotalDuration: 45,
			Exercises: []workout.Exercise{
				{Name: "Push-ups", Type: workout.TypeStrength, Sets: ptr.Ref(3), Reps: ptr.Ref(12), Duration: nil,
					Rest: ptr.Ref(60), Equipment: bodyweight, Instructions: nil},
				{Name: "Squats", Type: workout.TypeStrength, Sets: ptr.Ref(3), Reps: ptr.Ref(12), Duration: nil,
					Rest: ptr.Ref(60), Equipment: bodyweight, Instructions: nil},
				{Name: "Crunches", Type: workout.TypeCore, Sets: ptr.Ref(2), Reps: ptr.Ref(12), Duration: nil,
					Rest: ptr.Ref(30), Equipment: bodyweight, Instructions: nil},
				{Name: "Planks", Type: workout.TypeCore, Sets: ptr.Ref(2), Reps: nil, Duration: ptr.Ref(30),
					Rest: ptr.Ref(30), Equipment: bodyweight, Instructions: nil},
				{Name: "Running", Type: workout.TypeCardio, Sets: ptr.Ref(2), Reps: nil, Duration: ptr.Ref(30),
					Rest: ptr.Ref(30), Equipment: ptr.Ref("none"), Instructions: nil},
			},
		}},
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(workout.Exercise{}, "Instructions")); diff != "" {
		t.Errorf("BuildRuleBased() mismatch (-want +got):\n%s", diff)
	}

	exercises := got.WeeklySchedule[0].Exercises
	if exercises[0].Instructions == nil || !strings.Contains(*exercises[0].Instructions, "press back up") {
		t.Errorf("Push-ups instructions = %v, want catalog instructions", exercises[0].Instructions)
	}
	if exercises[2].Instructions != nil {
		t.Errorf("Crunches instructions = %q, want none", *exercises[2].Instructions)
	}
}

func TestGenerator_BuildRuleBased_bodyweightWeek(t *testing.T) {
	g := newRuleGenerator(t, catalog.Default())
	profile := baseProfile()
	profile.DaysPerWeek = 7

	got := g.BuildRuleBased(profile)

	want := map[string][]string{
		"Upper Body Push": {"Push-ups"},
		"Lower Body":      {"Squats", "Lunges"},
		"Core & Cardio":   {"Crunches", "Planks", "Bicycle Crunches", "Russian Twists", "Mountain Climbers"},
		"Upper Body Pull": {"Push-ups", "Squats", "Lunges"},
		"Legs":            {"Squats", "Lunges"},
		"Full Body":       {"Push-ups", "Squats", "Crunches", "Planks", "Running"},
		"Active Recovery": {"Hamstring Stretch", "Shoulder Stretch", "Calf Stretch", "Hip Flexor Stretch",
			"Quad Stretch"},
	}
	if len(got.WeeklySchedule) != 7 {
		t.Fatalf("len(WeeklySchedule) = %d, want 7", len(got.WeeklySchedule))
	}
	for i, d := range got.WeeklySchedule {
		if d.Day != i+1 {
			t.Errorf("day %d has index %d", i+1, d.Day)
		}
		if diff := cmp.Diff(want[d.Focus], exerciseNames(d)); diff != "" {
			t.Errorf("%s exercises mismatch (-want +got):\n%s", d.Focus, diff)
		}
	}

	recovery := got.WeeklySchedule[6].Exercises[0]
	if *recovery.Sets != 2 || *recovery.Duration != 30 || *recovery.Rest != 15 || recovery.Reps != nil {
		t.Errorf("recovery protocol = sets %d duration %d rest %d reps %v, want 2/30/15/nil",
			*recovery.Sets, *recovery.Duration, *recovery.Rest, recovery.Reps)
	}
}

func TestGenerator_BuildRuleBased_cardio(t *testing.T) {
	g := newRuleGenerator(t, catalog.Default())
	profile := baseProfile()
	profile.DaysPerWeek = 5
	profile.AvailableEquipment = []string{"bicycle"}

	got := g.BuildRuleBased(profile)

	conditioning := got.WeeklySchedule[2]
	if conditioning.Focus != "Core & Conditioning" {
		t.Fatalf("day 3 focus = %q", conditioning.Focus)
	}
	// Core & Conditioning resolves to the core rule.
	if conditioning.Exercises[0].Type != workout.TypeCore {
		t.Errorf("day 3 type = %q, want core", conditioning.Exercises[0].Type)
	}

	cardio := got.WeeklySchedule[4]
	if diff := cmp.Diff([]string{"Running", "Walking", "Cycling", "Jogging"}, exerciseNames(cardio)); diff != "" {
		t.Errorf("cardio exercises mismatch (-want +got):\n%s", diff)
	}
	for _, e := range cardio.Exercises {
		if e.Type != workout.TypeCardio || e.Reps != nil || e.Duration == nil || *e.Duration != 45 || *e.Sets != 3 {
			t.Errorf("%s = %+v, want 3 sets of 45s cardio", e.Name, e)
		}
	}
}

func TestGenerator_BuildRuleBased_equipment(t *testing.T) {
	g := newRuleGenerator(t, catalog.Default())

	tests := []struct {
		name      string
		equipment []string
		want      map[string][]string
	}{
		{
			name:      "pull-up bar",
			equipment: []string{"pull-up bar"},
			want: map[string][]string{
				"Upper Body Push": {"Push-ups"},
				"Upper Body Pull": {"Pull-ups"},
				"Lower Body":      {"Squats", "Lunges"},
			},
		},
		{
			name:      "dumbbells",
			equipment: []string{"dumbbells"},
			want: map[string][]string{
				"Upper Body Push": {"Push-ups", "Dumbbell Shoulder Press"},
				"Upper Body Pull": {"Dumbbell Rows"},
				"Lower Body":      {"Squats", "Lunges", "Goblet Squats"},
			},
		},
		{
			name:      "case matters",
			equipment: []string{"Dumbbells"},
			want: map[string][]string{
				"Upper Body Push": {"Push-ups"},
				"Upper Body Pull": {"Push-ups", "Squats", "Lunges"},
				"Lower Body":      {"Squats", "Lunges"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := baseProfile()
			profile.DaysPerWeek = 6
			profile.AvailableEquipment = tt.equipment
			plan := g.BuildRuleBased(profile)
			for _, d := range plan.WeeklySchedule {
				want, ok := tt.want[d.Focus]
				if !ok {
					continue
				}
				if diff := cmp.Diff(want, exerciseNames(d)); diff != "" {
					t.Errorf("%s exercises mismatch (-want +got):\n%s", d.Focus, diff)
				}
			}
		})
	}
}

func TestGenerator_BuildRuleBased_scaling(t *testing.T) {
	g := newRuleGenerator(t, catalog.Default())

	tests := []struct {
		level        workout.FitnessLevel
		wantSets     int
		wantLowerRep int
		wantCoreReps int
		wantPlankSec int
	}{
		{level: workout.LevelBeginner, wantSets: 2, wantLowerRep: 12, wantCoreReps: 12, wantPlankSec: 24},
		{level: workout.LevelIntermediate, wantSets: 3, wantLowerRep: 15, wantCoreReps: 15, wantPlankSec: 30},
		{level: workout.LevelAdvanced, wantSets: 4, wantLowerRep: 18, wantCoreReps: 18, wantPlankSec: 36},
		{level: "elite", wantSets: 3, wantLowerRep: 15, wantCoreReps: 15, wantPlankSec: 30},
	}
	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			profile := baseProfile()
			profile.FitnessLevel = tt.level
			profile.DaysPerWeek = 6
			plan := g.BuildRuleBased(profile)

			lower := plan.WeeklySchedule[1].Exercises[0]
			if *lower.Sets != tt.wantSets || *lower.Reps != tt.wantLowerRep {
				t.Errorf("lower body = %d x %d, want %d x %d", *lower.Sets, *lower.Reps, tt.wantSets, tt.wantLowerRep)
			}
			crunches, planks := plan.WeeklySchedule[2].Exercises[0], plan.WeeklySchedule[2].Exercises[1]
			if *crunches.Reps != tt.wantCoreReps {
				t.Errorf("crunches reps = %d, want %d", *crunches.Reps, tt.wantCoreReps)
			}
			if *planks.Duration != tt.wantPlankSec || planks.Reps != nil {
				t.Errorf("planks = %v reps %ds, want %ds", planks.Reps, *planks.Duration, tt.wantPlankSec)
			}
		})
	}
}

func TestGenerator_BuildRuleBased_repsMonotonic(t *testing.T) {
	g := newRuleGenerator(t, catalog.Default())
	equipment := [][]string{nil, {"dumbbells", "pull-up bar"}, {"kettlebell", "bench", "rowing machine"}}

	for _, eq := range equipment {
		plans := make([]workout.Plan, 0, 3)
		for _, level := range []workout.FitnessLevel{workout.LevelBeginner, workout.LevelIntermediate,
			workout.LevelAdvanced} {
			profile := baseProfile()
			profile.FitnessLevel = level
			profile.DaysPerWeek = 7
			profile.AvailableEquipment = eq
			plans = append(plans, g.BuildRuleBased(profile))
		}
		for d := range plans[0].WeeklySchedule {
			for e := range plans[0].WeeklySchedule[d].Exercises {
				volume := make([]int, len(plans))
				for i, p := range plans {
					ex := p.WeeklySchedule[d].Exercises[e]
					volume[i] = ptr.Deref(ex.Reps, 0) + ptr.Deref(ex.Duration, 0)
				}
				if volume[0] > volume[1] || volume[1] > volume[2] {
					t.Errorf("equipment %v day %d exercise %d volume %v is not increasing", eq, d+1, e+1, volume)
				}
			}
		}
	}
}

func TestGenerator_BuildRuleBased_eligibility(t *testing.T) {
	cat := catalog.Default()
	g := newRuleGenerator(t, cat)
	equipment := [][]string{nil, {"dumbbells"}, {"pull-up bar", "jump rope", "pool"}, {"bodyweight"}}

	for _, eq := range equipment {
		for days := 1; days <= workout.MaxDaysPerWeek; days++ {
			profile := baseProfile()
			profile.DaysPerWeek = days
			profile.AvailableEquipment = eq
			plan := g.BuildRuleBased(profile)
			if len(plan.WeeklySchedule) != days {
				t.Fatalf("days %d: len(WeeklySchedule) = %d", days, len(plan.WeeklySchedule))
			}
			for _, d := range plan.WeeklySchedule {
				for _, e := range d.Exercises {
					entry, ok := cat.Lookup(e.Name)
					if !ok {
						t.Errorf("%q is not in the catalog", e.Name)
						continue
					}
					if !entry.AvailableWith(eq) {
						t.Errorf("%q needs %q, which is not in %v", e.Name, entry.Equipment, eq)
					}
					if _, err := workout.ParseExerciseType(string(e.Type)); err != nil {
						t.Errorf("%q has type %q: %v", e.Name, e.Type, err)
					}
				}
			}
		}
	}
}

func TestGenerator_BuildRuleBased_emptyDay(t *testing.T) {
	cat, err := catalog.New([]catalog.Entry{
		{Name: "Pull-ups", Type: catalog.Strength, Equipment: "pull-up bar", MuscleGroups: nil, Instructions: ""},
		{Name: "Running", Type: catalog.Cardio, Equipment: "none", MuscleGroups: nil, Instructions: ""},
	})
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}
	g := newRuleGenerator(t, cat)
	profile := baseProfile()
	profile.WorkoutDuration = 0

	plan := g.BuildRuleBased(profile)

	upper := plan.WeeklySchedule[0]
	if len(upper.Exercises) != 0 {
		t.Errorf("upper body exercises = %v, want none", exerciseNames(upper))
	}
	if upper.TotalDuration != 40 {
		t.Errorf("TotalDuration = %d, want default 40", upper.TotalDuration)
	}
	if diff := cmp.Diff([]string{"Running"}, exerciseNames(plan.WeeklySchedule[2])); diff != "" {
		t.Errorf("full body exercises mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerator_BuildRuleBased_deterministic(t *testing.T) {
	g := newRuleGenerator(t, catalog.Default())
	profile := baseProfile()
	profile.DaysPerWeek = 7
	profile.AvailableEquipment = []string{"dumbbells", "kettlebell"}

	first := g.BuildRuleBased(profile)
	second := g.BuildRuleBased(profile)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("BuildRuleBased() is not deterministic (-first +second):\n%s", diff)
	}

	profile.AvailableEquipment[0] = "changed"
	if first.UserProfile.AvailableEquipment[0] != "dumbbells" {
		t.Error("plan aliases the caller's equipment slice")
	}
}
