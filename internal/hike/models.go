package hike

import (
	"context"
	"errors"

	"backend-hikelog/internal/logbook"
)

var (
	ErrNotFound  = errors.New("hike not found")
	ErrForbidden = errors.New("hike belongs to another user")
)

// Track is the recorded GPS trace of a hike with its great-circle length.
type Track struct {
	HikeID   string             `json:"hikeId"`
	Points   []logbook.GeoPoint `json:"points"`
	LengthKm float64            `json:"lengthKm"`
}

// TrackUpdate is what live track watchers receive for every appended fix.
type TrackUpdate struct {
	HikeID string           `json:"hikeId"`
	Point  logbook.GeoPoint `json:"point"`
}

type Broadcaster interface {
	Broadcast(hikeID string, payload []byte)
}

// StatsInvalidator drops whatever statistics are cached for a user.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}
