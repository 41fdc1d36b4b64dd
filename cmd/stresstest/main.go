// Command stresstest generates many plans concurrently against a running server and reports latency and success
// rate.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zonroxx/FitQuest-AI/internal/e2etest"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/logging"
	"github.com/zonroxx/FitQuest-AI/internal/testhelpers"
	"github.com/zonroxx/FitQuest-AI/internal/workout"
	"golang.org/x/sync/errgroup"
)

const (
	scenarioTimeout         = 3 * time.Minute
	maxConcurrentOperations = 20
	defaultScenarios        = 50
	successRateThreshold    = 95.0
	percentageMultiplier    = 100
)

var (
	levels    = []string{"beginner", "intermediate", "advanced"}
	goals     = []string{"weight_loss", "muscle_gain", "endurance", "maintenance"}
	equipment = []string{"", "dumbbells", "dumbbells, kettlebell", "resistance bands, pull-up bar"}
)

// formFields varies the profile per scenario so that every focus rotation and equipment filter is exercised.
func formFields(i int) map[string]string {
	fields := map[string]string{
		"Age":                        strconv.Itoa(18 + i%50),
		"Weight (kg)":                strconv.Itoa(55 + i%40),
		"Height (cm)":                strconv.Itoa(155 + i%40),
		"Fitness level":              levels[i%len(levels)],
		"Goal":                       goals[i%len(goals)],
		"Workout duration (minutes)": strconv.Itoa(20 + 10*(i%5)),
		"Days per week":              strconv.Itoa(1 + i%7),
	}
	if eq := equipment[i%len(equipment)]; eq != "" {
		fields["Available equipment"] = eq
	}
	return fields
}

// PlanScenario submits the home page form, follows the redirect to the plan page and fetches the plan as JSON.
func PlanScenario(ctx context.Context, client *e2etest.Client, i int) error {
	doc, err := client.GetDoc(ctx, "/")
	if err != nil {
		return errors.Wrap(err, "get home page")
	}
	if doc, err = client.SubmitForm(ctx, doc, "/plans", formFields(i)); err != nil {
		return errors.Wrap(err, "submit plan form")
	}
	article := doc.Find("article.plan")
	id, ok := article.Attr("data-plan-id")
	if !ok {
		return errors.New("plan page has no plan id", slog.String("url", doc.Url.String()))
	}
	wantDays := 1 + i%7
	if got := article.Find("h2").Length(); got != wantDays {
		return errors.New("unexpected day count", slog.Int("got", got), slog.Int("want", wantDays))
	}

	var plan workout.Plan
	status, err := client.GetJSON(ctx, "/api/plans/"+id, &plan)
	if err != nil {
		return errors.Wrap(err, "get plan json", slog.String("id", id))
	}
	if status != http.StatusOK || len(plan.WeeklySchedule) != wantDays {
		return errors.New("unexpected plan json", slog.Int("status", status), slog.String("id", id))
	}
	return nil
}

// latencies collects scenario durations from concurrent goroutines.
type latencies struct {
	mu sync.Mutex
	d  []time.Duration
}

func (l *latencies) add(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.d = append(l.d, d)
}

// percentile returns the p-th percentile with nearest-rank.
func (l *latencies) percentile(p int) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.d) == 0 {
		return 0
	}
	sorted := slices.Clone(l.d)
	slices.Sort(sorted)
	rank := (p*len(sorted) + percentageMultiplier - 1) / percentageMultiplier
	return sorted[max(rank, 1)-1]
}

// RunLoadTest runs n scenarios with bounded concurrency. Individual failures are counted, not propagated.
func RunLoadTest(ctx context.Context, client *e2etest.Client, n int, logger *slog.Logger) error {
	logger.LogAttrs(ctx, slog.LevelInfo, "Starting load test", slog.Int("scenarios", n))

	var (
		successCount, failureCount atomic.Int64
		durations                  = &latencies{mu: sync.Mutex{}, d: nil}
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentOperations)
	for i := range n {
		g.Go(func() error {
			scenarioCtx, cancel := context.WithTimeout(ctx, scenarioTimeout)
			defer cancel()

			start := time.Now()
			if err := PlanScenario(scenarioCtx, client, i); err != nil {
				failureCount.Add(1)
				logger.LogAttrs(scenarioCtx, slog.LevelWarn, "Scenario failed",
					slog.Int("scenario", i), errors.SlogError(err))
				return nil
			}
			durations.add(time.Since(start))
			successCount.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "load test")
	}

	successRate := float64(successCount.Load()) / float64(n) * percentageMultiplier
	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed",
		slog.Int64("successful", successCount.Load()),
		slog.Int64("failed", failureCount.Load()),
		slog.Float64("success_rate", successRate),
		slog.Duration("p50", durations.percentile(50)), //nolint:mnd // median
		slog.Duration("p95", durations.percentile(95))) //nolint:mnd // tail
	if successRate < successRateThreshold {
		return fmt.Errorf("load test failed: success rate %.1f%% below threshold", successRate)
	}
	return nil
}

func main() {
	logger := testhelpers.NewLogger(os.Stdout)
	ctx := context.Background()

	if len(os.Args) < 2 || len(os.Args) > 3 { //nolint:mnd // hostname and optional scenario count.
		logger.LogAttrs(ctx, slog.LevelError, "usage: stresstest <hostname> [scenarios]")
		os.Exit(1)
	}

	var (
		hostname  = os.Args[1]
		scenarios = defaultScenarios
		start     = time.Now()
		err       error
	)
	if len(os.Args) == 3 { //nolint:mnd // scenario count given.
		if scenarios, err = strconv.Atoi(os.Args[2]); err != nil || scenarios < 1 {
			logger.LogAttrs(ctx, slog.LevelError, "scenarios must be a positive integer",
				slog.String("scenarios", os.Args[2]))
			os.Exit(1)
		}
	}

	ctx = logging.WithAttrs(ctx, slog.String("hostname", hostname))
	url := "https://" + hostname
	if strings.Contains(hostname, "localhost") {
		url = "http://" + hostname
	}
	client := e2etest.NewClient(url)

	if err = client.WaitForReady(ctx, "/api/healthy"); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "server not ready in time", errors.SlogError(err))
		os.Exit(1)
	}
	if err = RunLoadTest(ctx, client, scenarios, logger); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "load test failed", errors.SlogError(err))
		os.Exit(1)
	}

	logger.LogAttrs(ctx, slog.LevelInfo, "Load test completed successfully 🙌",
		slog.Duration("total_duration", time.Since(start)),
		slog.Int("scenarios", scenarios))
}
