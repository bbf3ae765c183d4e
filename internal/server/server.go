package server

import (
	"backend-hikelog/internal/auth"
	"backend-hikelog/internal/config"
	"backend-hikelog/internal/goal"
	"backend-hikelog/internal/hike"
	"backend-hikelog/internal/metrics"
	"backend-hikelog/internal/profile"
	"backend-hikelog/internal/shared/response"
	"backend-hikelog/internal/stats"
	"backend-hikelog/internal/storage"
	"backend-hikelog/internal/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App     *fiber.App
	Cfg     config.Config
	DB      *pgxpool.Pool
	Redis   *redis.Client
	Stream  *stream.Hub
	Metrics *metrics.Manager
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	app.Use(recover.New())
	app.Use(logger.New())

	m := metrics.NewManager(metrics.WithMetricsEnabled(cfg.MetricsEnabled))
	app.Use(m.Middleware())

	s := &Server{
		App:     app,
		Cfg:     cfg,
		DB:      db,
		Redis:   redisClient,
		Stream:  stream.NewHub(redisClient, m),
		Metrics: m,
	}

	registerRoutes(s)
	return s
}

// Close releases what the server itself started. The pool and redis client
// belong to the caller.
func (s *Server) Close() {
	s.Stream.Close()
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return response.JSON(c, fiber.StatusOK, fiber.Map{"status": "ok"})
	})
	if s.Cfg.MetricsEnabled {
		s.App.Get("/metrics", s.Metrics.Handler())
	}

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	profiles := profile.NewService(s.DB)
	hikes := hike.NewService(s.DB, s.Stream, s.Metrics)
	statsSvc := stats.NewService(hikes, profiles, s.Redis, s.Cfg.StatsCacheTTL, s.Metrics)
	hikes.SetStatsInvalidator(statsSvc)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB))
	profile.RegisterRoutes(s.App.Group("/users"), profiles, jwtMiddleware)
	hike.RegisterRoutes(s.App.Group("/hikes"), hikes, jwtMiddleware)
	goal.RegisterRoutes(s.App.Group("/goals"), goal.NewService(s.DB, statsSvc), jwtMiddleware)
	stats.RegisterRoutes(s.App.Group("/stats"), statsSvc, jwtMiddleware)
	storage.RegisterRoutes(s.App.Group("/storage"), storage.NewService(s.DB), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream, hikes, jwtMiddleware)
}
