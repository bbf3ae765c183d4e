package logbook

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// now is the package clock. Tests pin it; production reads the wall clock.
var now = time.Now

// ProcessHikeData builds a canonical hike from arbitrary input. It never
// fails and does not require prior validation: missing fields get defaults,
// numbers go through the tolerant parsers, and updatedAt is always stamped.
func ProcessHikeData(raw map[string]any) HikeRecord {
	ts := now()
	if raw == nil {
		return HikeRecord{
			Difficulty: DifficultyEasy,
			Status:     StatusCompleted,
			CreatedAt:  ts,
			UpdatedAt:  ts,
		}
	}

	hike := HikeRecord{
		ID:              text(raw["id"]),
		Title:           text(raw["title"]),
		Location:        text(raw["location"]),
		Route:           text(raw["route"]),
		Date:            timestampOf(raw["date"]),
		StartTime:       timestampOf(raw["startTime"]),
		EndTime:         timestampOf(raw["endTime"]),
		Duration:        Duration(ParseDuration(raw["duration"])),
		Distance:        Distance(ParseDistance(raw["distance"])),
		Elevation:       Elevation(ParseElevation(raw["elevation"])),
		Difficulty:      textOr(raw["difficulty"], DifficultyEasy),
		Weather:         text(raw["weather"]),
		Notes:           text(raw["notes"]),
		RouteMap:        text(raw["routeMap"]),
		Status:          textOr(raw["status"], StatusCompleted),
		Pinned:          truthy(raw["pinned"]),
		Shared:          truthy(raw["shared"]),
		Waypoints:       []Waypoint{},
		GPSTrack:        []GeoPoint{},
		Accomplishments: []string{},
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}

	for _, m := range objectList(raw["waypoints"]) {
		var wp Waypoint
		if decodeInto(m, &wp) && ValidateWaypoint(m).Valid {
			hike.Waypoints = append(hike.Waypoints, wp)
		}
	}
	for _, m := range objectList(raw["gpsTrack"]) {
		var p GeoPoint
		if decodeInto(m, &p) && ValidateLocation(m).Valid {
			hike.GPSTrack = append(hike.GPSTrack, p)
		}
	}
	hike.StartLocation = geoPointOf(raw["startLocation"])
	hike.EndLocation = geoPointOf(raw["endLocation"])

	if list, ok := raw["accomplishments"].([]any); ok {
		for _, item := range list {
			if s, isStr := item.(string); isStr {
				hike.Accomplishments = append(hike.Accomplishments, s)
			}
		}
	} else if list, ok := raw["accomplishments"].([]string); ok {
		hike.Accomplishments = append(hike.Accomplishments, list...)
	}

	if created, ok := timestampOf(raw["createdAt"]).Time(); ok {
		hike.CreatedAt = created
	}
	if uid := text(raw["userId"]); uid != "" {
		hike.UserID = &uid
	}
	return hike
}

// ProcessUserData builds a canonical user record. Each preference gets its own
// default; stats always start at zero because only the aggregator fills them.
func ProcessUserData(raw map[string]any) UserRecord {
	ts := now()
	user := UserRecord{
		Preferences: Preferences{
			Difficulty: "beginner",
			Terrain:    "mixed",
			Distance:   "short",
			Units:      "metric",
			Privacy:    "friends",
		},
		Stats:     UserStats{Achievements: []string{}},
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if raw == nil {
		return user
	}

	user.Email = text(raw["email"])
	user.DisplayName = text(raw["displayName"])
	user.Bio = text(raw["bio"])
	user.PhotoURL = text(raw["photoURL"])
	if loc := text(raw["location"]); loc != "" {
		user.Location = &loc
	}
	if prefs, ok := raw["preferences"].(map[string]any); ok {
		user.Preferences.Difficulty = textOr(prefs["difficulty"], user.Preferences.Difficulty)
		user.Preferences.Terrain = textOr(prefs["terrain"], user.Preferences.Terrain)
		user.Preferences.Distance = textOr(prefs["distance"], user.Preferences.Distance)
		user.Preferences.Units = textOr(prefs["units"], user.Preferences.Units)
		user.Preferences.Privacy = textOr(prefs["privacy"], user.Preferences.Privacy)
	}
	if created, ok := timestampOf(raw["createdAt"]).Time(); ok {
		user.CreatedAt = created
	}
	return user
}

// NormalizeGoalPayload shapes a validated goal payload. targetValue uses plain
// numeric coercion, not the unit-stripping parsers.
func NormalizeGoalPayload(payload map[string]any) Goal {
	g := Goal{
		Title:       strings.TrimSpace(text(payload["title"])),
		Category:    text(payload["category"]),
		TargetValue: toNumber(payload["targetValue"]),
		Unit:        text(payload["unit"]),
		Description: text(payload["description"]),
	}
	if truthy(payload["targetDate"]) {
		g.TargetDate = timestampOf(payload["targetDate"]).Ptr()
	}
	return g
}

// toNumber mirrors loose numeric coercion: blank text is 0, text that is not
// a number is NaN, booleans are 0 or 1.
func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	}
	if n, ok := asNumber(v); ok {
		return n
	}
	return math.NaN()
}

func text(v any) string {
	s, _ := v.(string)
	return s
}

func textOr(v any, fallback string) string {
	if s := text(v); s != "" {
		return s
	}
	return fallback
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	}
	if n, ok := asNumber(v); ok {
		return n != 0 && !math.IsNaN(n)
	}
	return true
}

func geoPointOf(v any) *GeoPoint {
	m, ok := v.(map[string]any)
	if !ok || !ValidateLocation(m).Valid {
		return nil
	}
	var p GeoPoint
	if !decodeInto(m, &p) {
		return nil
	}
	return &p
}

func decodeInto(m map[string]any, dst any) bool {
	b, err := json.Marshal(m)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, dst) == nil
}

// ProcessLocation shapes a single GPS fix. ok is false when the fix does not
// pass ValidateLocation.
func ProcessLocation(raw map[string]any) (GeoPoint, bool) {
	p := geoPointOf(raw)
	if p == nil {
		return GeoPoint{}, false
	}
	return *p, true
}
