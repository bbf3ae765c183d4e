package logbook

import (
	"encoding/json"
	"time"
)

const (
	DifficultyEasy     = "Easy"
	DifficultyModerate = "Moderate"
	DifficultyHard     = "Hard"
	DifficultyExtreme  = "Extreme"

	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCompleted = "completed"
	StatusDraft     = "draft"
)

var (
	difficulties = []string{DifficultyEasy, DifficultyModerate, DifficultyHard, DifficultyExtreme}
	statuses     = []string{StatusActive, StatusPaused, StatusCompleted, StatusDraft}
)

// Distance is kilometers. JSON input goes through ParseDistance.
type Distance float64

func (d *Distance) UnmarshalJSON(b []byte) error {
	*d = Distance(ParseDistance(decodeScalar(b)))
	return nil
}

// Elevation is meters and keeps its sign. JSON input goes through ParseElevation.
type Elevation float64

func (e *Elevation) UnmarshalJSON(b []byte) error {
	*e = Elevation(ParseElevation(decodeScalar(b)))
	return nil
}

// Duration is a bare number (hours or minutes, the unit is up to the client).
type Duration float64

func (d *Duration) UnmarshalJSON(b []byte) error {
	*d = Duration(ParseDuration(decodeScalar(b)))
	return nil
}

func decodeScalar(b []byte) any {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	return v
}

type Waypoint struct {
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Elevation   Elevation `json:"elevation,omitempty"`
	Timestamp   Timestamp `json:"timestamp"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
}

type GeoPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Elevation Elevation `json:"elevation,omitempty"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp Timestamp `json:"timestamp"`
}

type HikeRecord struct {
	ID              string     `json:"id,omitempty"`
	Title           string     `json:"title"`
	Location        string     `json:"location"`
	Route           string     `json:"route"`
	Date            Timestamp  `json:"date"`
	StartTime       Timestamp  `json:"startTime"`
	EndTime         Timestamp  `json:"endTime"`
	Duration        Duration   `json:"duration"`
	Distance        Distance   `json:"distance"`
	Elevation       Elevation  `json:"elevation"`
	Difficulty      string     `json:"difficulty"`
	Weather         string     `json:"weather"`
	Notes           string     `json:"notes"`
	Waypoints       []Waypoint `json:"waypoints"`
	StartLocation   *GeoPoint  `json:"startLocation"`
	EndLocation     *GeoPoint  `json:"endLocation"`
	RouteMap        string     `json:"routeMap"`
	GPSTrack        []GeoPoint `json:"gpsTrack"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	UserID          *string    `json:"userId"`
	Status          string     `json:"status"`
	Pinned          bool       `json:"pinned"`
	Shared          bool       `json:"shared"`
	Accomplishments []string   `json:"accomplishments"`
}

type Preferences struct {
	Difficulty string `json:"difficulty"`
	Terrain    string `json:"terrain"`
	Distance   string `json:"distance"`
	Units      string `json:"units"`
	Privacy    string `json:"privacy"`
}

// UserStats is owned by the aggregator; nothing else should write it.
type UserStats struct {
	TotalHikes     int      `json:"totalHikes"`
	TotalDistance  float64  `json:"totalDistance"`
	TotalElevation float64  `json:"totalElevation"`
	Achievements   []string `json:"achievements"`
}

type UserRecord struct {
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	Bio         string      `json:"bio"`
	Location    *string     `json:"location"`
	PhotoURL    string      `json:"photoURL"`
	Preferences Preferences `json:"preferences"`
	Stats       UserStats   `json:"stats"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

const (
	GoalDistance  = "distance"
	GoalTime      = "time"
	GoalElevation = "elevation"
	GoalHikes     = "hikes"
	GoalStreak    = "streak"
	GoalCustom    = "custom"
)

var goalCategories = []string{GoalDistance, GoalTime, GoalElevation, GoalHikes, GoalStreak, GoalCustom}

type Goal struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	TargetValue float64    `json:"targetValue"`
	Unit        string     `json:"unit"`
	Description string     `json:"description"`
	TargetDate  *time.Time `json:"targetDate"`
}

type StatsSummary struct {
	TotalHikes     int            `json:"totalHikes"`
	TotalDistance  float64        `json:"totalDistance"`
	TotalElevation float64        `json:"totalElevation"`
	TotalDuration  float64        `json:"totalDuration"`
	ByDifficulty   map[string]int `json:"byDifficulty"`
	ByStatus       map[string]int `json:"byStatus"`
}

type StreakInfo struct {
	CurrentStreak int `json:"currentStreak"`
	LongestStreak int `json:"longestStreak"`
}

type MonthlyActivity struct {
	Month    string  `json:"month"`
	Hikes    int     `json:"hikes"`
	Distance float64 `json:"distance"`
}

type Badge struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earnedAt"`
}
