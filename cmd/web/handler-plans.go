package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zonroxx/FitQuest-AI/internal/catalog"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
)

// Response headers carrying the plan metadata that is not part of the plan document.
const (
	headerPlanSource     = "X-Plan-Source"
	headerFallbackReason = "X-Plan-Fallback-Reason"
)

type planListResponse struct {
	Plans []workout.PlanSummary `json:"plans"`
}

type catalogCategory struct {
	Category  catalog.Category `json:"category"`
	Exercises []catalog.Entry  `json:"exercises"`
}

type catalogResponse struct {
	Categories []catalogCategory `json:"categories"`
}

// planCreatePOST generates and stores a plan for the JSON profile in the request body.
func (app *application) planCreatePOST(w http.ResponseWriter, r *http.Request) {
	var profile workout.Profile
	if err := readJSON(w, r, &profile); err != nil {
		app.clientError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := profile.Validate(); err != nil {
		app.clientError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := app.workoutService.GeneratePlan(r.Context(), profile)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "generate plan"))
		return
	}

	w.Header().Set("Location", "/api/plans/"+plan.ID)
	setPlanHeaders(w, plan)
	app.writeJSON(w, r, http.StatusCreated, plan)
}

func (app *application) planListGET(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		var err error
		if limit, err = strconv.Atoi(s); err != nil || limit < 1 {
			app.clientError(w, r, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
	}
	summaries, err := app.workoutService.ListPlans(r.Context(), limit)
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "list plans"))
		return
	}
	app.writeJSON(w, r, http.StatusOK, planListResponse{Plans: summaries})
}

func (app *application) planGET(w http.ResponseWriter, r *http.Request) {
	plan, err := app.workoutService.GetPlan(r.Context(), r.PathValue("id"))
	if errors.Is(err, workout.ErrNotFound) {
		app.notFound(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "get plan"))
		return
	}
	setPlanHeaders(w, plan)
	app.writeJSON(w, r, http.StatusOK, plan)
}

func (app *application) planDELETE(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	err := app.workoutService.DeletePlan(r.Context(), id)
	if errors.Is(err, workout.ErrNotFound) {
		app.notFound(w, r)
		return
	}
	if err != nil {
		app.serverError(w, r, errors.Wrap(err, "delete plan"))
		return
	}
	app.logger.LogAttrs(r.Context(), slog.LevelInfo, "deleted plan", slog.String("plan_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// catalogGET lists the exercise catalog grouped by category.
func (app *application) catalogGET(w http.ResponseWriter, r *http.Request) {
	resp := catalogResponse{Categories: make([]catalogCategory, 0, len(catalog.Categories()))}
	for _, c := range catalog.Categories() {
		resp.Categories = append(resp.Categories, catalogCategory{Category: c, Exercises: app.catalog.Entries(c)})
	}
	app.writeJSON(w, r, http.StatusOK, resp)
}

func setPlanHeaders(w http.ResponseWriter, plan workout.Plan) {
	w.Header().Set(headerPlanSource, string(plan.Source))
	if plan.FallbackReason != workout.ReasonNone {
		w.Header().Set(headerFallbackReason, string(plan.FallbackReason))
	}
}
