package stats

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"backend-hikelog/internal/logbook"
	"backend-hikelog/internal/metrics"

	"github.com/redis/go-redis/v9"
)

// Report is everything the statistics screen shows for one user.
type Report struct {
	Stats       logbook.StatsSummary      `json:"stats"`
	Streaks     logbook.StreakInfo        `json:"streaks"`
	Monthly     []logbook.MonthlyActivity `json:"monthly"`
	Badges      []logbook.Badge           `json:"badges"`
	GeneratedAt time.Time                 `json:"generatedAt"`
}

type HikeLister interface {
	ListByUser(ctx context.Context, userID string) ([]logbook.HikeRecord, error)
}

// ProfileSink receives the aggregate written onto the user record.
type ProfileSink interface {
	UpdateStats(ctx context.Context, userID string, stats logbook.UserStats) error
}

type Service struct {
	hikes    HikeLister
	profiles ProfileSink
	redis    *redis.Client
	ttl      time.Duration
	metrics  *metrics.Manager
}

func NewService(hikes HikeLister, profiles ProfileSink, redisClient *redis.Client, ttl time.Duration, m *metrics.Manager) *Service {
	return &Service{hikes: hikes, profiles: profiles, redis: redisClient, ttl: ttl, metrics: m}
}

// Report serves the cached report when there is one. A recomputed report is
// cached and copied onto the user's profile stats.
func (s *Service) Report(ctx context.Context, userID string) (Report, error) {
	if r, ok := s.cached(ctx, userID); ok {
		s.metrics.RecordStatsCache(true)
		return r, nil
	}
	s.metrics.RecordStatsCache(false)

	started := time.Now()
	hikes, err := s.hikes.ListByUser(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	r := Build(hikes)
	s.metrics.ObserveStatsCompute(time.Since(started))

	s.store(ctx, userID, r)
	if s.profiles != nil {
		err := s.profiles.UpdateStats(ctx, userID, logbook.UserStats{
			TotalHikes:     r.Stats.TotalHikes,
			TotalDistance:  r.Stats.TotalDistance,
			TotalElevation: r.Stats.TotalElevation,
			Achievements:   logbook.BadgeNames(r.Badges),
		})
		if err != nil {
			log.Printf("profile stats sync for %s failed: %v", userID, err)
		}
	}
	return r, nil
}

// Build aggregates a hike list into a report.
func Build(hikes []logbook.HikeRecord) Report {
	summary := logbook.CalculateHikeStats(hikes)
	streaks := logbook.CalculateStreaks(hikes)
	return Report{
		Stats:       summary,
		Streaks:     streaks,
		Monthly:     logbook.GenerateMonthlyActivity(hikes),
		Badges:      logbook.EvaluateBadges(logbook.NewBadgeInput(summary, streaks)),
		GeneratedAt: time.Now().UTC(),
	}
}

func (s *Service) Totals(ctx context.Context, userID string) (logbook.StatsSummary, logbook.StreakInfo, error) {
	r, err := s.Report(ctx, userID)
	return r.Stats, r.Streaks, err
}

func (s *Service) BadgeProgress(ctx context.Context, userID string) ([]logbook.BadgeStatus, error) {
	r, err := s.Report(ctx, userID)
	if err != nil {
		return nil, err
	}
	return logbook.BadgeProgress(logbook.NewBadgeInput(r.Stats, r.Streaks)), nil
}

// Invalidate drops the cached report so the next read recomputes it.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, cacheKey(userID)).Err()
}

func (s *Service) cached(ctx context.Context, userID string) (Report, bool) {
	if s.redis == nil {
		return Report{}, false
	}
	raw, err := s.redis.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("stats cache read failed: %v", err)
		}
		return Report{}, false
	}
	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		log.Printf("stats cache entry for %s unreadable: %v", userID, err)
		return Report{}, false
	}
	return r, true
}

func (s *Service) store(ctx context.Context, userID string, r Report) {
	if s.redis == nil {
		return
	}
	raw, err := json.Marshal(r)
	if err != nil {
		log.Printf("stats cache encode failed: %v", err)
		return
	}
	if err := s.redis.Set(ctx, cacheKey(userID), raw, s.ttl).Err(); err != nil {
		log.Printf("stats cache write failed: %v", err)
	}
}

func cacheKey(userID string) string {
	return "stats:" + userID
}
