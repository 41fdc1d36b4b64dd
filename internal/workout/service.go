package workout

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zonroxx/FitQuest-AI/internal/sqlite"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Service generates workout plans and keeps them.
type Service struct {
	repo      *sqliteRepository
	generator *Generator
	logger    *slog.Logger
}

// NewService creates a new workout service.
func NewService(db *sqlite.Database, generator *Generator, logger *slog.Logger) *Service {
	return &Service{
		repo:      newSQLiteRepository(db, logger),
		generator: generator,
		logger:    logger,
	}
}

// GeneratePlan validates profile, generates a plan for it and stores the plan.
//
// Invalid profiles are rejected with an error wrapping ErrInvalidProfile. Generation itself never fails.
func (s *Service) GeneratePlan(ctx context.Context, profile Profile) (Plan, error) {
	if err := profile.Validate(); err != nil {
		return Plan{}, fmt.Errorf("validate profile: %w", err)
	}
	plan := s.generator.Generate(ctx, profile)
	if err := s.repo.insert(ctx, plan); err != nil {
		return Plan{}, fmt.Errorf("store plan: %w", err)
	}
	return plan, nil
}

// GetPlan returns a stored plan or an error wrapping ErrNotFound.
func (s *Service) GetPlan(ctx context.Context, id string) (Plan, error) {
	plan, err := s.repo.get(ctx, id)
	if err != nil {
		return Plan{}, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

// ListPlans returns the newest stored plans. limit is clamped to [1, MaxListLimit] and defaults to DefaultListLimit.
func (s *Service) ListPlans(ctx context.Context, limit int) ([]PlanSummary, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	summaries, err := s.repo.list(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	return summaries, nil
}

// DeletePlan removes a stored plan or returns an error wrapping ErrNotFound.
func (s *Service) DeletePlan(ctx context.Context, id string) error {
	if err := s.repo.delete(ctx, id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return nil
}
