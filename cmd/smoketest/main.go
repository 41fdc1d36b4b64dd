// Command smoketest checks that a deployed server generates, serves and deletes a plan.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zonroxx/FitQuest-AI/internal/e2etest"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/logging"
	"github.com/zonroxx/FitQuest-AI/internal/testhelpers"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
)

// smokeProfile asks for the smallest plan so that a model-backed deployment answers quickly.
func smokeProfile() workout.Profile {
	return workout.Profile{
		Age:                35,
		Weight:             75,
		Height:             178,
		FitnessLevel:       workout.LevelBeginner,
		Goal:               workout.GoalMaintenance,
		AvailableEquipment: []string{},
		WorkoutDuration:    30,
		DaysPerWeek:        1,
		Injuries:           []string{},
		Preferences:        []string{},
	}
}

// smoke runs the plan life cycle against the server behind client.
func smoke(ctx context.Context, client *e2etest.Client) error {
	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return errors.Wrap(err, "get home page")
	}
	if _, err = e2etest.FindForm(doc, "/plans"); err != nil {
		return errors.Wrap(err, "find plan form")
	}

	var plan workout.Plan
	status, err := client.PostJSON(ctx, "/api/plans", smokeProfile(), &plan)
	if err != nil {
		return errors.Wrap(err, "create plan")
	}
	if status != http.StatusCreated || len(plan.WeeklySchedule) != 1 {
		return errors.New("unexpected plan", slog.Int("status", status), slog.Int("days", len(plan.WeeklySchedule)))
	}

	var stored workout.Plan
	if status, err = client.GetJSON(ctx, "/api/plans/"+plan.ID, &stored); err != nil {
		return errors.Wrap(err, "get plan")
	}
	if status != http.StatusOK || stored.ID != plan.ID {
		return errors.New("plan not stored", slog.Int("status", status), slog.String("id", plan.ID))
	}

	resp, err := client.Delete(ctx, "/api/plans/"+plan.ID)
	if err != nil {
		return errors.Wrap(err, "delete plan")
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return errors.New("plan not deleted", slog.Int("status", resp.StatusCode))
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) != 2 { //nolint:mnd // we expect only hostname to be passed as argument.
		logger.LogAttrs(ctx, slog.LevelError, "usage: smoketest <hostname>")
		os.Exit(1)
	}

	var (
		hostname = os.Args[1]
		start    = time.Now()
	)
	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}
	client := e2etest.NewClient(url)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute) //nolint:mnd // model-backed generation may be slow.
	defer cancel()

	if err := client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		cancel()
		os.Exit(1) //nolint:gocritic // cancel is called above.
	}
	if err := smoke(ctx, client); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "smoke test failed", errors.SlogError(err))
		cancel()
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Smoke test successful 🙌", slog.Duration("duration", time.Since(start)))
}
