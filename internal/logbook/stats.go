package logbook

import (
	"math"
	"sort"
	"time"

	"backend-hikelog/internal/shared/geo"
)

const (
	// CurrentStreakWindowDays is how recent the last completed hike must be
	// for the current streak to count at all.
	CurrentStreakWindowDays = 7
	// StreakGapDays is the largest gap between two completed hikes that
	// still continues a streak.
	StreakGapDays = 14

	msPerDay = 24 * 60 * 60 * 1000
)

// CalculateHikeStats recomputes the summary from scratch. Difficulty and
// status values outside the fixed buckets are ignored; draft hikes land in
// no status bucket.
func CalculateHikeStats(hikes []HikeRecord) StatsSummary {
	s := StatsSummary{
		TotalHikes: len(hikes),
		ByDifficulty: map[string]int{
			DifficultyEasy:     0,
			DifficultyModerate: 0,
			DifficultyHard:     0,
			DifficultyExtreme:  0,
		},
		ByStatus: map[string]int{
			StatusCompleted: 0,
			StatusActive:    0,
			StatusPaused:    0,
		},
	}
	for _, h := range hikes {
		s.TotalDistance += finite(float64(h.Distance))
		s.TotalElevation += finite(float64(h.Elevation))
		s.TotalDuration += finite(float64(h.Duration))
		if _, ok := s.ByDifficulty[h.Difficulty]; ok {
			s.ByDifficulty[h.Difficulty]++
		}
		if _, ok := s.ByStatus[h.Status]; ok {
			s.ByStatus[h.Status]++
		}
	}
	return s
}

// CalculateStreaks evaluates streaks as of the package clock.
func CalculateStreaks(hikes []HikeRecord) StreakInfo {
	return CalculateStreaksAt(hikes, now())
}

// CalculateStreaksAt computes streaks over completed, dated hikes. The
// current streak only exists when the latest completed hike is at most
// CurrentStreakWindowDays old; it then extends back while gaps stay within
// StreakGapDays. The longest streak is an independent pass over all hikes.
func CalculateStreaksAt(hikes []HikeRecord, at time.Time) StreakInfo {
	dates := completedDates(hikes)
	if len(dates) == 0 {
		return StreakInfo{}
	}

	var info StreakInfo
	if daysBetween(at, dates[0]) <= CurrentStreakWindowDays {
		info.CurrentStreak = 1
		for i := 1; i < len(dates); i++ {
			if daysBetween(dates[i-1], dates[i]) > StreakGapDays {
				break
			}
			info.CurrentStreak++
		}
	}

	run := 1
	for i := 1; i < len(dates); i++ {
		if daysBetween(dates[i-1], dates[i]) <= StreakGapDays {
			run++
			continue
		}
		info.LongestStreak = max(info.LongestStreak, run)
		run = 1
	}
	info.LongestStreak = max(info.LongestStreak, run)
	return info
}

// completedDates returns the dates of completed hikes, most recent first.
func completedDates(hikes []HikeRecord) []time.Time {
	dates := make([]time.Time, 0, len(hikes))
	for _, h := range hikes {
		if h.Status != StatusCompleted {
			continue
		}
		if d, ok := h.Date.Time(); ok {
			dates = append(dates, d)
		}
	}
	sort.SliceStable(dates, func(i, j int) bool {
		return dates[i].After(dates[j])
	})
	return dates
}

// daysBetween floors the millisecond difference, so partial days round down.
func daysBetween(a, b time.Time) int {
	return int(math.Floor(float64(a.Sub(b).Milliseconds()) / msPerDay))
}

// GenerateMonthlyActivity buckets dated hikes by calendar month. Hikes with a
// missing or unparsable date are skipped.
func GenerateMonthlyActivity(hikes []HikeRecord) []MonthlyActivity {
	buckets := map[string]*MonthlyActivity{}
	for _, h := range hikes {
		d, ok := h.Date.Time()
		if !ok {
			continue
		}
		key := d.Format("2006-01")
		b, exists := buckets[key]
		if !exists {
			b = &MonthlyActivity{Month: key}
			buckets[key] = b
		}
		b.Hikes++
		b.Distance += finite(float64(h.Distance))
	}

	out := make([]MonthlyActivity, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Month < out[j].Month
	})
	return out
}

// TrackLengthKm sums the great-circle distance along the recorded GPS track.
func (h HikeRecord) TrackLengthKm() float64 {
	total := 0.0
	for i := 1; i < len(h.GPSTrack); i++ {
		a, b := h.GPSTrack[i-1], h.GPSTrack[i]
		total += geo.HaversineKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}
	return total
}
