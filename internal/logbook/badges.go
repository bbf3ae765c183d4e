package logbook

// BadgeInput is the slice of statistics badges are judged on.
type BadgeInput struct {
	TotalHikes     int     `json:"totalHikes"`
	TotalDistance  float64 `json:"totalDistance"`
	TotalElevation float64 `json:"totalElevation"`
	CurrentStreak  int     `json:"currentStreak"`
}

// NewBadgeInput combines an aggregated summary with streak information.
func NewBadgeInput(s StatsSummary, st StreakInfo) BadgeInput {
	return BadgeInput{
		TotalHikes:     s.TotalHikes,
		TotalDistance:  s.TotalDistance,
		TotalElevation: s.TotalElevation,
		CurrentStreak:  st.CurrentStreak,
	}
}

type badgeRule struct {
	name        string
	description string
	target      float64
	metric      func(BadgeInput) float64
}

func hikesMetric(in BadgeInput) float64     { return float64(in.TotalHikes) }
func distanceMetric(in BadgeInput) float64  { return in.TotalDistance }
func elevationMetric(in BadgeInput) float64 { return in.TotalElevation }
func streakMetric(in BadgeInput) float64    { return float64(in.CurrentStreak) }

// badgeRules is evaluated top to bottom. Tiers are independent, so crossing a
// higher threshold never hides a lower one.
var badgeRules = []badgeRule{
	{"First Hike", "Logged your first hike", 1, hikesMetric},
	{"10K Walker", "Hiked a total of 10 kilometers", 10, distanceMetric},
	{"100K Walker", "Hiked a total of 100 kilometers", 100, distanceMetric},
	{"Peak Climber", "Climbed a total of 1,000 meters", 1000, elevationMetric},
	{"Mountain Climber", "Climbed a total of 5,000 meters", 5000, elevationMetric},
	{"Regular Hiker", "Logged 10 hikes", 10, hikesMetric},
	{"Hiking Enthusiast", "Logged 50 hikes", 50, hikesMetric},
	{"Consistent Hiker", "Kept a streak of 5 hikes", 5, streakMetric},
}

// EvaluateBadges returns every badge whose threshold the input meets,
// stamped with the evaluation time.
func EvaluateBadges(in BadgeInput) []Badge {
	ts := now()
	badges := []Badge{}
	for _, r := range badgeRules {
		if r.metric(in) >= r.target {
			badges = append(badges, Badge{Name: r.name, Description: r.description, EarnedAt: ts})
		}
	}
	return badges
}

type BadgeStatus struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Unlocked    bool    `json:"unlocked"`
	Progress    float64 `json:"progress"`
	Target      float64 `json:"target"`
}

// BadgeProgress lists every badge, earned or not, with how far along it is.
// Progress is capped at the target.
func BadgeProgress(in BadgeInput) []BadgeStatus {
	out := make([]BadgeStatus, 0, len(badgeRules))
	for _, r := range badgeRules {
		v := r.metric(in)
		out = append(out, BadgeStatus{
			Name:        r.name,
			Description: r.description,
			Unlocked:    v >= r.target,
			Progress:    min(max(v, 0), r.target),
			Target:      r.target,
		})
	}
	return out
}

// BadgeNames is the achievements list stored on a user's stats.
func BadgeNames(badges []Badge) []string {
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	return names
}
