package main

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/zonroxx/FitQuest-AI/internal/catalog"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
)

const homeRecentPlans = 10

type homeTemplateData struct {
	BaseTemplateData
	Plans          []workout.PlanSummary
	Equipment      []string
	FitnessLevels  []workout.FitnessLevel
	Goals          []workout.Goal
	MaxDaysPerWeek int
}

func (app *application) home(w http.ResponseWriter, r *http.Request) {
	plans, err := app.workoutService.ListPlans(r.Context(), homeRecentPlans)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "list plans"))
		return
	}

	app.render(w, r, http.StatusOK, "home", homeTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Plans:            plans,
		Equipment:        equipmentOptions(app.catalog),
		FitnessLevels:    []workout.FitnessLevel{workout.LevelBeginner, workout.LevelIntermediate, workout.LevelAdvanced},
		Goals: []workout.Goal{
			workout.GoalWeightLoss, workout.GoalMuscleGain, workout.GoalMaintenance, workout.GoalEndurance,
		},
		MaxDaysPerWeek: workout.MaxDaysPerWeek,
	})
}

// equipmentOptions lists the distinct equipment the catalog asks for, excluding what everybody has.
func equipmentOptions(cat *catalog.Catalog) []string {
	var options []string
	for _, c := range catalog.Categories() {
		for _, e := range cat.Entries(c) {
			if e.AlwaysAvailable() || slices.Contains(options, e.Equipment) {
				continue
			}
			options = append(options, e.Equipment)
		}
	}
	slices.Sort(options)
	return options
}

// planFormPOST generates a plan from the home page form and redirects to it.
func (app *application) planFormPOST(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid form")
		return
	}

	profile, err := profileFromForm(r)
	if err == nil {
		err = profile.Validate()
	}
	if err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := app.workoutService.GeneratePlan(r.Context(), profile)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "generate plan"))
		return
	}
	redirect(w, r, "/plans/"+plan.ID)
}

func profileFromForm(r *http.Request) (workout.Profile, error) {
	var errs []error
	atoi := func(field string) int {
		n, err := strconv.Atoi(strings.TrimSpace(r.PostForm.Get(field)))
		if err != nil {
			errs = append(errs, errors.New(field+" must be a whole number"))
		}
		return n
	}
	parseFloat := func(field string) float64 {
		f, err := strconv.ParseFloat(strings.TrimSpace(r.PostForm.Get(field)), 64)
		if err != nil {
			errs = append(errs, errors.New(field+" must be a number"))
		}
		return f
	}

	profile := workout.Profile{
		Age:                atoi("age"),
		Weight:             parseFloat("weight"),
		Height:             parseFloat("height"),
		FitnessLevel:       workout.FitnessLevel(r.PostForm.Get("fitness_level")),
		Goal:               workout.Goal(r.PostForm.Get("goal")),
		AvailableEquipment: r.PostForm["available_equipment"],
		WorkoutDuration:    atoi("workout_duration"),
		DaysPerWeek:        atoi("days_per_week"),
		Injuries:           splitList(r.PostForm.Get("injuries")),
		Preferences:        splitList(r.PostForm.Get("preferences")),
	}
	return profile, errors.Join(errs...)
}

// splitList splits a comma-separated free text field.
func splitList(s string) []string {
	var items []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
