package workout

import (
	"strings"

	"github.com/zonroxx/FitQuest-AI/internal/catalog"
)

// Focus labels used by the rule-based builder.
const (
	FocusFullBody           = "Full Body"
	FocusUpperBody          = "Upper Body"
	FocusLowerBody          = "Lower Body"
	FocusCoreCardio         = "Core & Cardio"
	FocusCoreConditioning   = "Core & Conditioning"
	FocusCardioFlexibility  = "Cardio & Flexibility"
	FocusUpperBodyPush      = "Upper Body Push"
	FocusUpperBodyPull      = "Upper Body Pull"
	FocusCore               = "Core"
	FocusLegsCardio         = "Legs & Cardio"
	FocusLegs               = "Legs"
	FocusActiveRecovery     = "Active Recovery"
	percent                 = 100
	recoverySets            = 2
	fullBodyCardioSets      = 2
	strengthRest            = 60
	coreRest                = 30
	cardioRest              = 30
	recoveryRest            = 15
	upperBodyReps           = 12
	lowerBodyReps           = 15
	coreReps                = 15
	fullBodyReps            = 12
	fullBodyCoreReps        = 12
	plankSeconds            = 30
	cardioSeconds           = 45
	fullBodyCardioSeconds   = 30
	recoverySeconds         = 30
	upperBodyExercises      = 4
	upperBodySplitExercises = 3
	lowerBodyExercises      = 4
	coreExercises           = 5
	cardioExercises         = 4
	recoveryExercises       = 5
)

//nolint:gochecknoglobals // fixed lookup tables.
var (
	pushKeywords = []string{"push", "press", "dip"}
	pullKeywords = []string{"pull", "row", "chin"}
	legKeywords  = []string{"squat", "lunge", "leg", "glute", "calf"}
)

// FocusesFor returns the focus label of every day for the given training frequency.
//
// Frequencies above seven repeat the seven-day table so that there is always one focus per day.
func FocusesFor(daysPerWeek int) []string {
	var table []string
	switch {
	case daysPerWeek <= 0:
		return []string{}
	case daysPerWeek <= 2: //nolint:mnd // table key.
		table = []string{FocusFullBody, FocusFullBody}
	case daysPerWeek == 3: //nolint:mnd // table key.
		table = []string{FocusUpperBody, FocusLowerBody, FocusFullBody}
	case daysPerWeek == 4: //nolint:mnd // table key.
		table = []string{FocusUpperBody, FocusLowerBody, FocusCoreCardio, FocusFullBody}
	case daysPerWeek == 5: //nolint:mnd // table key.
		table = []string{FocusUpperBody, FocusLowerBody, FocusCoreConditioning, FocusFullBody, FocusCardioFlexibility}
	case daysPerWeek == 6: //nolint:mnd // table key.
		table = []string{FocusUpperBodyPush, FocusLowerBody, FocusCore, FocusUpperBodyPull, FocusLegsCardio,
			FocusFullBody}
	default:
		table = []string{FocusUpperBodyPush, FocusLowerBody, FocusCoreCardio, FocusUpperBodyPull, FocusLegs,
			FocusFullBody, FocusActiveRecovery}
	}
	focuses := make([]string, daysPerWeek)
	for i := range daysPerWeek {
		focuses[i] = table[i%len(table)]
	}
	return focuses
}

// scaling is the volume adjustment for a fitness level. Reps and durations are multiplied by repsPercent/100 and
// truncated.
type scaling struct {
	repsPercent int
	sets        int
}

func scalingFor(level FitnessLevel) scaling {
	switch level {
	case LevelBeginner:
		return scaling{repsPercent: 80, sets: 2} //nolint:mnd // beginner volume.
	case LevelAdvanced:
		return scaling{repsPercent: 120, sets: 4} //nolint:mnd // advanced volume.
	case LevelIntermediate:
		return scaling{repsPercent: percent, sets: 3} //nolint:mnd // intermediate volume.
	default:
		return scaling{repsPercent: percent, sets: 3} //nolint:mnd // unknown levels train as intermediate.
	}
}

func (s scaling) scale(base int) int {
	return base * s.repsPercent / percent
}

// ruleBuilder selects catalog exercises deterministically from the profile.
type ruleBuilder struct {
	catalog *catalog.Catalog
}

// rawPlan builds one raw day per training day. Every field is set explicitly so that the assembler applies no
// defaults to rule-based exercises.
func (b ruleBuilder) rawPlan(profile Profile) RawPlan {
	s := scalingFor(profile.FitnessLevel)
	focuses := FocusesFor(profile.DaysPerWeek)
	days := make([]RawDay, 0, len(focuses))
	for i, focus := range focuses {
		days = append(days, RawDay{
			Day:           Int(i + 1),
			Focus:         String(focus),
			Exercises:     b.exercisesFor(focus, profile.AvailableEquipment, s),
			TotalDuration: Int(profile.sessionMinutes()),
		})
	}
	return RawPlan{WeeklySchedule: days}
}

func (b ruleBuilder) exercisesFor(focus string, equipment []string, s scaling) []RawExercise {
	switch {
	case strings.Contains(focus, "Upper Body"):
		return b.upperBody(focus, equipment, s)
	case strings.Contains(focus, "Lower Body"), strings.Contains(focus, "Legs"):
		return b.lowerBody(equipment, s)
	case strings.Contains(focus, "Core"):
		return b.core(equipment, s)
	case strings.Contains(focus, "Cardio"), strings.Contains(focus, "Conditioning"):
		return b.cardio(equipment, s)
	case strings.Contains(focus, "Full Body"):
		return b.fullBody(equipment, s)
	case strings.Contains(focus, "Active Recovery"), strings.Contains(focus, "Flexibility"):
		return b.recovery(equipment, s)
	default:
		return b.fullBody(equipment, s)
	}
}

// eligible returns the entries of category that the equipment allows. Ineligible entries are dropped, not
// substituted, so a day can end up with fewer exercises than intended or none at all.
func (b ruleBuilder) eligible(category catalog.Category, equipment []string) []catalog.Entry {
	var out []catalog.Entry
	for _, e := range b.catalog.Entries(category) {
		if e.AvailableWith(equipment) {
			out = append(out, e)
		}
	}
	return out
}

func (b ruleBuilder) upperBody(focus string, equipment []string, s scaling) []RawExercise {
	strength := b.eligible(catalog.Strength, equipment)
	var selected []catalog.Entry
	switch {
	case strings.Contains(focus, "Push"):
		selected = preferKeywords(strength, pushKeywords, upperBodySplitExercises)
	case strings.Contains(focus, "Pull"):
		selected = preferKeywords(strength, pullKeywords, upperBodySplitExercises)
	default:
		selected = first(strength, upperBodyExercises)
	}
	return repsProtocol(selected, TypeStrength, s.sets, s.scale(upperBodyReps), strengthRest)
}

func (b ruleBuilder) lowerBody(equipment []string, s scaling) []RawExercise {
	strength := b.eligible(catalog.Strength, equipment)
	selected := preferKeywords(strength, legKeywords, lowerBodyExercises)
	return repsProtocol(selected, TypeStrength, s.sets, s.scale(lowerBodyReps), strengthRest)
}

func (b ruleBuilder) core(equipment []string, s scaling) []RawExercise {
	selected := first(b.eligible(catalog.Core, equipment), coreExercises)
	out := make([]RawExercise, 0, len(selected))
	for _, e := range selected {
		out = append(out, coreExercise(e, s.sets, s.scale(coreReps), s.scale(plankSeconds)))
	}
	return out
}

func (b ruleBuilder) cardio(equipment []string, s scaling) []RawExercise {
	selected := first(b.eligible(catalog.Cardio, equipment), cardioExercises)
	return durationProtocol(selected, TypeCardio, s.sets, s.scale(cardioSeconds), cardioRest)
}

// fullBody mixes two strength, two core and one cardio exercise. Core gets one set less than strength and cardio is
// fixed at two sets.
func (b ruleBuilder) fullBody(equipment []string, s scaling) []RawExercise {
	strength := first(b.eligible(catalog.Strength, equipment), 2) //nolint:mnd // two strength exercises.
	core := first(b.eligible(catalog.Core, equipment), 2)         //nolint:mnd // two core exercises.
	cardio := first(b.eligible(catalog.Cardio, equipment), 1)

	out := repsProtocol(strength, TypeStrength, s.sets, s.scale(fullBodyReps), strengthRest)
	for _, e := range core {
		out = append(out, coreExercise(e, s.sets-1, s.scale(fullBodyCoreReps), s.scale(plankSeconds)))
	}
	return append(out, durationProtocol(cardio, TypeCardio, fullBodyCardioSets, s.scale(fullBodyCardioSeconds),
		cardioRest)...)
}

func (b ruleBuilder) recovery(equipment []string, s scaling) []RawExercise {
	selected := first(b.eligible(catalog.Flexibility, equipment), recoveryExercises)
	return durationProtocol(selected, TypeFlexibility, recoverySets, s.scale(recoverySeconds), recoveryRest)
}

// preferKeywords returns up to n entries whose lowercased name contains one of keywords, or the first n entries
// when none match.
func preferKeywords(entries []catalog.Entry, keywords []string, n int) []catalog.Entry {
	var matches []catalog.Entry
	for _, e := range entries {
		name := strings.ToLower(e.Name)
		for _, k := range keywords {
			if strings.Contains(name, k) {
				matches = append(matches, e)
				break
			}
		}
	}
	if len(matches) == 0 {
		return first(entries, n)
	}
	return first(matches, n)
}

func first(entries []catalog.Entry, n int) []catalog.Entry {
	return entries[:min(n, len(entries))]
}

// coreExercise holds planks for a duration and counts reps for everything else.
func coreExercise(e catalog.Entry, sets, reps, plankDuration int) RawExercise {
	ex := baseExercise(e, TypeCore, sets, coreRest)
	if strings.Contains(strings.ToLower(e.Name), "plank") {
		ex.Duration = Int(plankDuration)
	} else {
		ex.Reps = Int(reps)
	}
	return ex
}

func repsProtocol(entries []catalog.Entry, t ExerciseType, sets, reps, rest int) []RawExercise {
	out := make([]RawExercise, 0, len(entries))
	for _, e := range entries {
		ex := baseExercise(e, t, sets, rest)
		ex.Reps = Int(reps)
		out = append(out, ex)
	}
	return out
}

func durationProtocol(entries []catalog.Entry, t ExerciseType, sets, seconds, rest int) []RawExercise {
	out := make([]RawExercise, 0, len(entries))
	for _, e := range entries {
		ex := baseExercise(e, t, sets, rest)
		ex.Duration = Int(seconds)
		out = append(out, ex)
	}
	return out
}

// baseExercise sets every field, leaving reps and duration as explicit nulls for the protocol to fill.
func baseExercise(e catalog.Entry, t ExerciseType, sets, rest int) RawExercise {
	instructions := NullString()
	if e.Instructions != "" {
		instructions = String(e.Instructions)
	}
	return RawExercise{
		Name:         String(e.Name),
		Type:         String(string(t)),
		Sets:         Int(sets),
		Reps:         NullInt(),
		Duration:     NullInt(),
		Rest:         Int(rest),
		Equipment:    String(e.Equipment),
		Instructions: instructions,
	}
}
