package hike

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"backend-hikelog/internal/logbook"
)

// AppendTrackPoint validates one GPS fix, appends it to the hike's stored
// track and pushes it to live watchers. Fixes without a timestamp are stamped
// on arrival.
func (s *Service) AppendTrackPoint(ctx context.Context, userID, hikeID string, raw map[string]any) (logbook.GeoPoint, error) {
	if err := logbook.ValidateLocation(raw).Err(); err != nil {
		s.metrics.RecordValidationFailure("location")
		return logbook.GeoPoint{}, err
	}
	point, ok := logbook.ProcessLocation(raw)
	if !ok {
		s.metrics.RecordValidationFailure("location")
		return logbook.GeoPoint{}, &logbook.ValidationError{Errors: []string{"Location could not be read"}}
	}
	if point.Timestamp.IsZero() {
		point.Timestamp = logbook.At(now().UTC())
	}

	appended, err := json.Marshal([]logbook.GeoPoint{point})
	if err != nil {
		return logbook.GeoPoint{}, err
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE hikes
		SET gps_track = COALESCE(gps_track, '[]'::jsonb) || $3::jsonb, updated_at=$4
		WHERE id=$1 AND user_id=$2
	`, hikeID, userID, appended, now())
	if err != nil {
		return logbook.GeoPoint{}, err
	}
	if tag.RowsAffected() == 0 {
		return logbook.GeoPoint{}, ErrNotFound
	}
	s.metrics.RecordTrackPoint()

	if s.hub != nil {
		payload, err := json.Marshal(TrackUpdate{HikeID: hikeID, Point: point})
		if err != nil {
			log.Printf("track update encode failed: %v", err)
		} else {
			s.hub.Broadcast(hikeID, payload)
		}
	}
	return point, nil
}

func (s *Service) Track(ctx context.Context, userID, hikeID string) (Track, error) {
	h, err := s.GetFor(ctx, userID, hikeID)
	if err != nil {
		return Track{}, err
	}
	return Track{HikeID: h.ID, Points: h.GPSTrack, LengthKm: h.TrackLengthKm()}, nil
}

// CanWatch reports whether userID may follow the hike's live track: the
// owner always can, anyone else only once the hike is shared.
func (s *Service) CanWatch(ctx context.Context, userID, hikeID string) (bool, error) {
	_, err := s.GetFor(ctx, userID, hikeID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden):
		return false, nil
	}
	return false, err
}
