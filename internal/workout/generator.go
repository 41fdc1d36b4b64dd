package workout

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/zonroxx/FitQuest-AI/internal/catalog"
	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/jsonrepair"
)

// FallbackReason records why a plan came from the rule-based builder. It is empty for model plans.
type FallbackReason string

const (
	ReasonNone           FallbackReason = ""
	ReasonNoCredential   FallbackReason = "no_credential"
	ReasonPrompt         FallbackReason = "prompt"
	ReasonModelsFailed   FallbackReason = "models_failed"
	ReasonExtractionMiss FallbackReason = "extraction_miss"
	ReasonInvalidPlan    FallbackReason = "invalid_plan"
	ReasonDayCount       FallbackReason = "day_count"
	ReasonPanic          FallbackReason = "panic"
)

var errDayCount = errors.NewSentinel("schedule does not match days per week")

// Generator produces workout plans. It asks a model first and falls back to the rule-based builder on any failure,
// so Generate always returns a plan.
//
// A Generator is safe for concurrent use.
type Generator struct {
	catalog   *catalog.Catalog
	requester Requester
	logger    *slog.Logger
	metrics   *Metrics
	now       func() time.Time
	newID     func() string
}

type GeneratorOption func(*Generator)

// WithClock sets the time source used to stamp generated plans.
func WithClock(now func() time.Time) GeneratorOption {
	return func(g *Generator) {
		g.now = now
	}
}

// WithIDSource sets the plan id source.
func WithIDSource(newID func() string) GeneratorOption {
	return func(g *Generator) {
		g.newID = newID
	}
}

func WithMetrics(m *Metrics) GeneratorOption {
	return func(g *Generator) {
		g.metrics = m
	}
}

// NewGenerator creates a Generator. A nil requester disables the model path and every plan is rule-based.
func NewGenerator(cat *catalog.Catalog, requester Requester, logger *slog.Logger, opts ...GeneratorOption) *Generator {
	g := &Generator{
		catalog:   cat,
		requester: requester,
		logger:    logger,
		metrics:   nil,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a plan for profile. Model failures are logged and never surface to the caller.
func (g *Generator) Generate(ctx context.Context, profile Profile) Plan {
	start := time.Now()
	if g.requester == nil {
		return g.fallback(ctx, profile, ReasonNoCredential, nil, start)
	}

	plan, reason, err := g.fromModel(ctx, profile)
	if err != nil {
		return g.fallback(ctx, profile, reason, err, start)
	}
	g.metrics.observeGeneration(SourceModel, ReasonNone, time.Since(start))
	g.logger.LogAttrs(ctx, slog.LevelInfo, "generated plan",
		slog.String("plan_id", plan.ID), slog.String("source", string(SourceModel)))
	return plan
}

// BuildRuleBased returns the deterministic plan for profile without contacting any model.
func (g *Generator) BuildRuleBased(profile Profile) Plan {
	raw := ruleBuilder{catalog: g.catalog}.rawPlan(profile)
	plan, err := Assemble(profile, raw, g.now(), g.newID())
	if err != nil {
		// The builder only emits catalog categories, so assembly cannot reject its output.
		panic(errors.Wrap(err, "assemble rule-based plan"))
	}
	plan.Source = SourceRules
	return plan
}

func (g *Generator) fallback(ctx context.Context, profile Profile, reason FallbackReason, cause error,
	start time.Time) Plan {
	attrs := []slog.Attr{slog.String("reason", string(reason))}
	if cause != nil {
		attrs = append(attrs, errors.SlogError(cause))
	}
	g.logger.LogAttrs(ctx, slog.LevelInfo, "using rule-based plan", attrs...)

	plan := g.BuildRuleBased(profile)
	plan.FallbackReason = reason
	g.metrics.observeGeneration(SourceRules, reason, time.Since(start))
	g.logger.LogAttrs(ctx, slog.LevelInfo, "generated plan",
		slog.String("plan_id", plan.ID), slog.String("source", string(SourceRules)))
	return plan
}

// fromModel runs the model path. A panic anywhere on the path is converted into a ReasonPanic failure.
func (g *Generator) fromModel(ctx context.Context, profile Profile) (_ Plan, reason FallbackReason, err error) {
	defer func() {
		if r := recover(); r != nil {
			reason = ReasonPanic
			err = errors.DecoratePanic(r)
		}
	}()

	prompt, err := BuildPrompt(profile, g.catalog)
	if err != nil {
		return Plan{}, ReasonPrompt, err
	}

	completion, err := g.requester.RequestCompletion(ctx, prompt)
	if err != nil {
		return Plan{}, ReasonModelsFailed, err
	}

	obj, ok := jsonrepair.Extract(completion.Envelope)
	if !ok {
		return Plan{}, ReasonExtractionMiss, errors.New("no plan in model response",
			slog.String("model", completion.Model))
	}

	raw, err := DecodeRawPlan(obj)
	if err != nil {
		return Plan{}, ReasonInvalidPlan, err
	}

	plan, err := Assemble(profile, raw, g.now(), g.newID())
	if err != nil {
		return Plan{}, ReasonInvalidPlan, err
	}

	if err = checkSchedule(plan, profile.DaysPerWeek); err != nil {
		return Plan{}, ReasonDayCount, errors.Wrap(err, "check schedule", slog.String("model", completion.Model))
	}

	g.enrich(&plan)
	plan.Source = SourceModel
	return plan, ReasonNone, nil
}

// checkSchedule requires exactly one day per training day, numbered densely from one.
func checkSchedule(plan Plan, daysPerWeek int) error {
	if len(plan.WeeklySchedule) != daysPerWeek {
		return errors.Wrap(errDayCount, "count days",
			slog.Int("want", daysPerWeek), slog.Int("got", len(plan.WeeklySchedule)))
	}
	for i, d := range plan.WeeklySchedule {
		if d.Day != i+1 {
			return errors.Wrap(errDayCount, "number days", slog.Int("position", i+1), slog.Int("day", d.Day))
		}
	}
	return nil
}

// enrich fills equipment and instructions of model exercises from catalog entries of the same name.
func (g *Generator) enrich(plan *Plan) {
	for i := range plan.WeeklySchedule {
		exercises := plan.WeeklySchedule[i].Exercises
		for j := range exercises {
			entry, ok := g.catalog.Lookup(exercises[j].Name)
			if !ok {
				continue
			}
			if exercises[j].Equipment == nil {
				exercises[j].Equipment = &entry.Equipment
			}
			if exercises[j].Instructions == nil && entry.Instructions != "" {
				exercises[j].Instructions = &entry.Instructions
			}
		}
	}
}
