package main

import (
	"net/http"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/planview"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
)

type planTemplateData struct {
	BaseTemplateData
	Plan     workout.Plan
	Markdown string
}

// planPageGET shows a stored plan as a page.
func (app *application) planPageGET(w http.ResponseWriter, r *http.Request) {
	plan, err := app.workoutService.GetPlan(r.Context(), r.PathValue("id"))
	if errors.Is(err, workout.ErrNotFound) {
		app.notFound(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "get plan"))
		return
	}

	app.render(w, r, http.StatusOK, "plan", planTemplateData{
		BaseTemplateData: newBaseTemplateData(r),
		Plan:             plan,
		Markdown:         planview.Markdown(plan),
	})
}

func (app *application) planDeletePOST(w http.ResponseWriter, r *http.Request) {
	err := app.workoutService.DeletePlan(r.Context(), r.PathValue("id"))
	if errors.Is(err, workout.ErrNotFound) {
		app.notFound(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "delete plan"))
		return
	}
	redirect(w, r, "/")
}
