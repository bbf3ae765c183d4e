package profile

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"backend-hikelog/internal/db"
	"backend-hikelog/internal/logbook"

	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("user not found")

// Profile is a stored user record keyed by its id.
type Profile struct {
	ID string `json:"id"`
	logbook.UserRecord
}

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, email, display_name, bio, location, photo_url, preferences,
		       total_hikes, total_distance, total_elevation, achievements, created_at, updated_at
		FROM users WHERE id=$1
	`, userID)

	var p Profile
	var prefs, achievements []byte
	err := row.Scan(&p.ID, &p.Email, &p.DisplayName, &p.Bio, &p.Location, &p.PhotoURL, &prefs,
		&p.Stats.TotalHikes, &p.Stats.TotalDistance, &p.Stats.TotalElevation, &achievements, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}

	// Stored preferences may predate a key; run them through the normalizer
	// so every key has its default.
	var rawPrefs map[string]any
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &rawPrefs); err != nil {
			log.Printf("preferences for %s unreadable: %v", userID, err)
			rawPrefs = nil
		}
	}
	p.Preferences = logbook.ProcessUserData(map[string]any{"preferences": rawPrefs}).Preferences

	p.Stats.Achievements = []string{}
	if len(achievements) > 0 {
		if err := json.Unmarshal(achievements, &p.Stats.Achievements); err != nil {
			log.Printf("achievements for %s unreadable: %v", userID, err)
			p.Stats.Achievements = []string{}
		}
	}
	return p, nil
}

// Update merges the present fields of patch over the stored profile. Email
// and stats cannot be changed here.
func (s *Service) Update(ctx context.Context, userID string, patch map[string]any) (Profile, error) {
	if err := logbook.ValidateUserSchema(patch).Err(); err != nil {
		return Profile{}, err
	}
	current, err := s.Get(ctx, userID)
	if err != nil {
		return Profile{}, err
	}

	doc := logbook.ToDocument(current.UserRecord)
	for _, key := range []string{"displayName", "bio", "location", "photoURL"} {
		if v, ok := patch[key]; ok {
			doc[key] = v
		}
	}
	if prefs, ok := patch["preferences"].(map[string]any); ok {
		merged, _ := doc["preferences"].(map[string]any)
		if merged == nil {
			merged = map[string]any{}
		}
		for k, v := range prefs {
			merged[k] = v
		}
		doc["preferences"] = merged
	}
	if err := logbook.ValidateUserData(doc).Err(); err != nil {
		return Profile{}, err
	}

	next := Profile{ID: current.ID, UserRecord: logbook.ProcessUserData(doc)}
	next.Stats = current.Stats
	prefs, err := json.Marshal(next.Preferences)
	if err != nil {
		return Profile{}, err
	}

	_, err = s.db.Exec(ctx, `
		UPDATE users
		SET display_name=$2, bio=$3, location=$4, photo_url=$5, preferences=$6, updated_at=$7
		WHERE id=$1
	`, next.ID, next.DisplayName, next.Bio, next.Location, next.PhotoURL, prefs, next.UpdatedAt)
	if err != nil {
		return Profile{}, err
	}
	return next, nil
}

// UpdateStats stores aggregator output on the user row.
func (s *Service) UpdateStats(ctx context.Context, userID string, stats logbook.UserStats) error {
	achievements, err := json.Marshal(stats.Achievements)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		UPDATE users
		SET total_hikes=$2, total_distance=$3, total_elevation=$4, achievements=$5
		WHERE id=$1
	`, userID, stats.TotalHikes, stats.TotalDistance, stats.TotalElevation, achievements)
	return err
}
