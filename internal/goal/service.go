package goal

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"backend-hikelog/internal/db"
	"backend-hikelog/internal/logbook"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound = errors.New("goal not found")
	ErrInvalid  = errors.New("invalid goal")
)

type Record struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
	logbook.Goal
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Progress compares a goal against the owner's current statistics.
type Progress struct {
	GoalID    string  `json:"goalId"`
	Category  string  `json:"category"`
	Current   float64 `json:"current"`
	Target    float64 `json:"target"`
	Percent   float64 `json:"percent"`
	Completed bool    `json:"completed"`
}

// StatsSource yields the aggregates progress is measured against.
type StatsSource interface {
	Totals(ctx context.Context, userID string) (logbook.StatsSummary, logbook.StreakInfo, error)
}

type Service struct {
	db    db.Querier
	stats StatsSource
}

func NewService(db db.Querier, stats StatsSource) *Service {
	return &Service{db: db, stats: stats}
}

const selectGoal = `
	SELECT id, user_id, title, category, target_value, unit, description, target_date, created_at, updated_at
	FROM goals`

func (s *Service) Create(ctx context.Context, userID string, payload map[string]any) (Record, error) {
	if err := logbook.ValidateGoalPayload(payload, true); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	rec := Record{ID: uuid.NewString(), UserID: userID, Goal: logbook.NormalizeGoalPayload(payload)}

	row := s.db.QueryRow(ctx, `
		INSERT INTO goals (id, user_id, title, category, target_value, unit, description, target_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at
	`, rec.ID, rec.UserID, rec.Title, rec.Category, rec.TargetValue, rec.Unit, rec.Description, rec.TargetDate)
	if err := row.Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) Get(ctx context.Context, userID, id string) (Record, error) {
	rec, err := scanGoal(s.db.QueryRow(ctx, selectGoal+` WHERE id=$1 AND user_id=$2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *Service) List(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.db.Query(ctx, selectGoal+` WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	goals := []Record{}
	for rows.Next() {
		rec, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, rec)
	}
	return goals, rows.Err()
}

// Update applies only the fields present in payload. A null or empty
// targetDate clears it.
func (s *Service) Update(ctx context.Context, userID, id string, payload map[string]any) (Record, error) {
	if err := logbook.ValidateGoalPayload(payload, false); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return Record{}, err
	}

	patch := logbook.NormalizeGoalPayload(payload)
	if _, ok := payload["title"]; ok {
		rec.Title = patch.Title
	}
	if _, ok := payload["category"]; ok {
		rec.Category = patch.Category
	}
	if _, ok := payload["targetValue"]; ok {
		rec.TargetValue = patch.TargetValue
	}
	if _, ok := payload["unit"]; ok {
		rec.Unit = patch.Unit
	}
	if _, ok := payload["description"]; ok {
		rec.Description = patch.Description
	}
	if _, ok := payload["targetDate"]; ok {
		rec.TargetDate = patch.TargetDate
	}

	row := s.db.QueryRow(ctx, `
		UPDATE goals
		SET title=$3, category=$4, target_value=$5, unit=$6, description=$7, target_date=$8, updated_at=NOW()
		WHERE id=$1 AND user_id=$2
		RETURNING updated_at
	`, rec.ID, userID, rec.Title, rec.Category, rec.TargetValue, rec.Unit, rec.Description, rec.TargetDate)
	if err := row.Scan(&rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM goals WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Progress(ctx context.Context, userID, id string) (Progress, error) {
	rec, err := s.Get(ctx, userID, id)
	if err != nil {
		return Progress{}, err
	}
	summary, streaks, err := s.stats.Totals(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	p := Measure(rec.Goal, summary, streaks)
	p.GoalID = rec.ID
	return p, nil
}

// Measure maps a goal category onto the statistic it tracks. Custom goals
// have no statistic and always read zero.
func Measure(g logbook.Goal, s logbook.StatsSummary, st logbook.StreakInfo) Progress {
	var current float64
	switch g.Category {
	case logbook.GoalDistance:
		current = s.TotalDistance
	case logbook.GoalElevation:
		current = s.TotalElevation
	case logbook.GoalHikes:
		current = float64(s.TotalHikes)
	case logbook.GoalTime:
		current = s.TotalDuration
	case logbook.GoalStreak:
		current = float64(st.CurrentStreak)
	}

	p := Progress{Category: g.Category, Current: current, Target: g.TargetValue}
	switch {
	case g.TargetValue <= 0 || math.IsNaN(g.TargetValue):
		p.Completed = g.Category != logbook.GoalCustom
	default:
		p.Completed = current >= g.TargetValue
		p.Percent = math.Min(100, math.Round(current/g.TargetValue*1000)/10)
	}
	if p.Completed {
		p.Percent = 100
	}
	return p
}

func scanGoal(row pgx.Row) (Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Category, &rec.TargetValue, &rec.Unit,
		&rec.Description, &rec.TargetDate, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}
