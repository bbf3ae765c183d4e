package hike

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"maps"
	"time"

	"backend-hikelog/internal/db"
	"backend-hikelog/internal/logbook"
	"backend-hikelog/internal/metrics"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const selectHike = `
	SELECT id, user_id, title, location, route, date, start_time, end_time,
	       duration, distance, elevation, difficulty, weather, notes,
	       waypoints, start_location, end_location, route_map, gps_track,
	       status, pinned, shared, accomplishments, created_at, updated_at
	FROM hikes`

// immutable keys are owned by the service, not by update payloads.
var immutable = map[string]bool{"id": true, "userId": true, "createdAt": true, "updatedAt": true}

var now = time.Now

type Service struct {
	db      db.Querier
	hub     Broadcaster
	stats   StatsInvalidator
	metrics *metrics.Manager
}

func NewService(db db.Querier, hub Broadcaster, m *metrics.Manager) *Service {
	return &Service{db: db, hub: hub, metrics: m}
}

// SetStatsInvalidator wires the stats cache after construction; the stats
// service itself reads hikes through this service.
func (s *Service) SetStatsInvalidator(inv StatsInvalidator) {
	s.stats = inv
}

func (s *Service) Create(ctx context.Context, userID string, raw map[string]any) (logbook.HikeRecord, error) {
	if err := combine(logbook.ValidateHikeData(raw), logbook.ValidateHikeInput(raw)); err != nil {
		s.metrics.RecordValidationFailure("hike")
		return logbook.HikeRecord{}, err
	}

	doc := maps.Clone(raw)
	doc["id"] = uuid.NewString()
	doc["userId"] = userID
	h := logbook.ProcessHikeData(doc)

	content, err := contentValues(h)
	if err != nil {
		return logbook.HikeRecord{}, err
	}
	args := append([]any{h.ID, userID}, content...)
	args = append(args, h.CreatedAt, h.UpdatedAt)
	_, err = s.db.Exec(ctx, `
		INSERT INTO hikes (id, user_id, title, location, route, date, start_time, end_time,
			duration, distance, elevation, difficulty, weather, notes,
			waypoints, start_location, end_location, route_map, gps_track,
			status, pinned, shared, accomplishments, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25)
	`, args...)
	if err != nil {
		return logbook.HikeRecord{}, err
	}
	s.changed(ctx, userID, "create")
	return h, nil
}

func (s *Service) Get(ctx context.Context, id string) (logbook.HikeRecord, error) {
	h, err := scanHike(s.db.QueryRow(ctx, selectHike+` WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return logbook.HikeRecord{}, ErrNotFound
	}
	return h, err
}

// GetFor returns a hike its owner may see, or anyone may see once shared.
func (s *Service) GetFor(ctx context.Context, userID, id string) (logbook.HikeRecord, error) {
	h, err := s.Get(ctx, id)
	if err != nil {
		return logbook.HikeRecord{}, err
	}
	if !ownedBy(h, userID) && !h.Shared {
		return logbook.HikeRecord{}, ErrForbidden
	}
	return h, nil
}

// ListByUser returns a user's hikes, most recent date first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]logbook.HikeRecord, error) {
	return s.list(ctx, selectHike+` WHERE user_id=$1 ORDER BY date DESC NULLS LAST, created_at DESC`, userID)
}

func (s *Service) ListShared(ctx context.Context, limit int) ([]logbook.HikeRecord, error) {
	return s.list(ctx, selectHike+` WHERE shared = true ORDER BY updated_at DESC LIMIT $1`, limit)
}

func (s *Service) list(ctx context.Context, sql string, args ...any) ([]logbook.HikeRecord, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hikes := []logbook.HikeRecord{}
	for rows.Next() {
		h, err := scanHike(rows)
		if err != nil {
			return nil, err
		}
		hikes = append(hikes, h)
	}
	return hikes, rows.Err()
}

// Update merges patch over the stored hike and re-normalizes the result, so
// a partial payload never clears fields it does not mention.
func (s *Service) Update(ctx context.Context, userID, id string, patch map[string]any) (logbook.HikeRecord, error) {
	if err := logbook.ValidateHikeInput(patch).Err(); err != nil {
		s.metrics.RecordValidationFailure("hike")
		return logbook.HikeRecord{}, err
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return logbook.HikeRecord{}, err
	}
	if !ownedBy(current, userID) {
		return logbook.HikeRecord{}, ErrForbidden
	}

	doc := logbook.ToDocument(current)
	for k, v := range patch {
		if !immutable[k] {
			doc[k] = v
		}
	}
	if err := logbook.ValidateHikeData(doc).Err(); err != nil {
		s.metrics.RecordValidationFailure("hike")
		return logbook.HikeRecord{}, err
	}
	next := logbook.ProcessHikeData(doc)

	content, err := contentValues(next)
	if err != nil {
		return logbook.HikeRecord{}, err
	}
	args := append([]any{next.ID, userID}, content...)
	args = append(args, next.UpdatedAt)
	_, err = s.db.Exec(ctx, `
		UPDATE hikes
		SET title=$3, location=$4, route=$5, date=$6, start_time=$7, end_time=$8,
		    duration=$9, distance=$10, elevation=$11, difficulty=$12, weather=$13, notes=$14,
		    waypoints=$15, start_location=$16, end_location=$17, route_map=$18, gps_track=$19,
		    status=$20, pinned=$21, shared=$22, accomplishments=$23, updated_at=$24
		WHERE id=$1 AND user_id=$2
	`, args...)
	if err != nil {
		return logbook.HikeRecord{}, err
	}
	s.changed(ctx, userID, "update")
	return next, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM hikes WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.changed(ctx, userID, "delete")
	return nil
}

func (s *Service) SetPinned(ctx context.Context, userID, id string, pinned bool) error {
	return s.setFlag(ctx, `UPDATE hikes SET pinned=$3, updated_at=$4 WHERE id=$1 AND user_id=$2`, userID, id, pinned, "pin")
}

func (s *Service) SetShared(ctx context.Context, userID, id string, shared bool) error {
	return s.setFlag(ctx, `UPDATE hikes SET shared=$3, updated_at=$4 WHERE id=$1 AND user_id=$2`, userID, id, shared, "share")
}

func (s *Service) setFlag(ctx context.Context, sql, userID, id string, value bool, action string) error {
	tag, err := s.db.Exec(ctx, sql, id, userID, value, now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.changed(ctx, userID, action)
	return nil
}

func (s *Service) changed(ctx context.Context, userID, action string) {
	s.metrics.RecordHikeMutation(action)
	if s.stats == nil {
		return
	}
	if err := s.stats.Invalidate(ctx, userID); err != nil {
		log.Printf("stats invalidation for %s failed: %v", userID, err)
	}
}

func ownedBy(h logbook.HikeRecord, userID string) bool {
	return h.UserID != nil && *h.UserID == userID
}

// combine merges validator results, dropping messages reported twice.
func combine(results ...logbook.Result) error {
	seen := map[string]bool{}
	var errs []string
	for _, r := range results {
		for _, e := range r.Errors {
			if !seen[e] {
				seen[e] = true
				errs = append(errs, e)
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &logbook.ValidationError{Errors: errs}
}

// contentValues lists the columns title through accomplishments in table
// order. Nested values are stored as jsonb.
func contentValues(h logbook.HikeRecord) ([]any, error) {
	waypoints, err := json.Marshal(h.Waypoints)
	if err != nil {
		return nil, err
	}
	track, err := json.Marshal(h.GPSTrack)
	if err != nil {
		return nil, err
	}
	accomplishments, err := json.Marshal(h.Accomplishments)
	if err != nil {
		return nil, err
	}
	start, err := jsonOrNil(h.StartLocation)
	if err != nil {
		return nil, err
	}
	end, err := jsonOrNil(h.EndLocation)
	if err != nil {
		return nil, err
	}
	return []any{
		h.Title, h.Location, h.Route, h.Date.Ptr(), h.StartTime.Ptr(), h.EndTime.Ptr(),
		float64(h.Duration), float64(h.Distance), float64(h.Elevation), h.Difficulty, h.Weather, h.Notes,
		waypoints, start, end, h.RouteMap, track,
		h.Status, h.Pinned, h.Shared, accomplishments,
	}, nil
}

func jsonOrNil(p *logbook.GeoPoint) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func scanHike(row pgx.Row) (logbook.HikeRecord, error) {
	var (
		h                                          logbook.HikeRecord
		userID                                     string
		date, start, end                           *time.Time
		duration, distance, elevation              float64
		waypoints, startLoc, endLoc, track, accomp []byte
	)
	err := row.Scan(&h.ID, &userID, &h.Title, &h.Location, &h.Route, &date, &start, &end,
		&duration, &distance, &elevation, &h.Difficulty, &h.Weather, &h.Notes,
		&waypoints, &startLoc, &endLoc, &h.RouteMap, &track,
		&h.Status, &h.Pinned, &h.Shared, &accomp, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return logbook.HikeRecord{}, err
	}

	h.UserID = &userID
	h.Date = logbook.TimestampFromPtr(date)
	h.StartTime = logbook.TimestampFromPtr(start)
	h.EndTime = logbook.TimestampFromPtr(end)
	h.Duration = logbook.Duration(duration)
	h.Distance = logbook.Distance(distance)
	h.Elevation = logbook.Elevation(elevation)
	h.Waypoints = []logbook.Waypoint{}
	h.GPSTrack = []logbook.GeoPoint{}
	h.Accomplishments = []string{}

	for _, col := range []struct {
		raw []byte
		dst any
	}{
		{waypoints, &h.Waypoints},
		{startLoc, &h.StartLocation},
		{endLoc, &h.EndLocation},
		{track, &h.GPSTrack},
		{accomp, &h.Accomplishments},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return logbook.HikeRecord{}, err
		}
	}
	return h, nil
}
