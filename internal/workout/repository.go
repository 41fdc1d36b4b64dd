package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/zonroxx/FitQuest-AI/internal/errors"
	"github.com/zonroxx/FitQuest-AI/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"

var ErrNotFound = errors.NewSentinel("plan not found")

// PlanSummary is the list view of a stored plan.
type PlanSummary struct {
	ID             string         `json:"id"`
	Source         Source         `json:"source"`
	FallbackReason FallbackReason `json:"fallback_reason,omitempty"`
	FitnessLevel   FitnessLevel   `json:"fitness_level"`
	Goal           Goal           `json:"goal"`
	DaysPerWeek    int            `json:"days_per_week"`
	GeneratedDate  Date           `json:"generated_date"`
	CreatedAt      time.Time      `json:"created_at"`
}

// sqliteRepository stores generated plans as JSON documents next to a few indexed columns.
type sqliteRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newSQLiteRepository(db *sqlite.Database, logger *slog.Logger) *sqliteRepository {
	return &sqliteRepository{
		db:     db,
		logger: logger,
	}
}

func (r *sqliteRepository) insert(ctx context.Context, plan Plan) error {
	doc, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	_, err = r.db.ReadWrite.ExecContext(ctx, `
		INSERT INTO workout_plans (
			id, source, fallback_reason, fitness_level, goal, days_per_week, generated_date, plan_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.Source,
		plan.FallbackReason,
		plan.UserProfile.FitnessLevel,
		plan.UserProfile.Goal,
		plan.UserProfile.DaysPerWeek,
		plan.GeneratedDate.String(),
		string(doc),
	)
	if err != nil {
		return fmt.Errorf("insert plan %s: %w", plan.ID, err)
	}
	return nil
}

func (r *sqliteRepository) get(ctx context.Context, id string) (Plan, error) {
	var (
		doc    string
		plan   Plan
		source Source
		reason FallbackReason
	)
	err := r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT plan_json, source, fallback_reason
		FROM workout_plans
		WHERE id = ?`, id).Scan(&doc, &source, &reason)
	if errors.Is(err, sql.ErrNoRows) {
		return Plan{}, errors.Wrap(ErrNotFound, "get plan", slog.String("plan_id", id))
	}
	if err != nil {
		return Plan{}, fmt.Errorf("query plan %s: %w", id, err)
	}
	if err = json.Unmarshal([]byte(doc), &plan); err != nil {
		return Plan{}, fmt.Errorf("unmarshal plan %s: %w", id, err)
	}
	plan.Source = source
	plan.FallbackReason = reason
	return plan, nil
}

// list returns up to limit summaries, newest first.
func (r *sqliteRepository) list(ctx context.Context, limit int) (_ []PlanSummary, err error) {
	rows, err := r.db.ReadOnly.QueryContext(ctx, `
		SELECT id, source, fallback_reason, fitness_level, goal, days_per_week, generated_date, created_at
		FROM workout_plans
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()

	summaries := make([]PlanSummary, 0, limit)
	for rows.Next() {
		var (
			s             PlanSummary
			generatedDate string
			createdAt     string
		)
		if err = rows.Scan(&s.ID, &s.Source, &s.FallbackReason, &s.FitnessLevel, &s.Goal, &s.DaysPerWeek,
			&generatedDate, &createdAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		if s.GeneratedDate.Time, err = time.Parse(time.DateOnly, generatedDate); err != nil {
			return nil, fmt.Errorf("parse generated date: %w", err)
		}
		if s.CreatedAt, err = time.Parse(timestampFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parse created at: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return summaries, nil
}

func (r *sqliteRepository) delete(ctx context.Context, id string) error {
	res, err := r.db.ReadWrite.ExecContext(ctx, `DELETE FROM workout_plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return errors.Wrap(ErrNotFound, "delete plan", slog.String("plan_id", id))
	}
	return nil
}
