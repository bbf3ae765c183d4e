package stats

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-hikelog/internal/logbook"

	"github.com/gofiber/fiber/v2"
)

func newApp(svc *Service, userID string) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/stats"), svc, func(c *fiber.Ctx) error {
		if userID != "" {
			c.Locals("user_id", userID)
		}
		return c.Next()
	})
	return app
}

func TestStatsHandlers(t *testing.T) {
	app := newApp(NewService(&fakeLister{hikes: sampleHikes()}, nil, nil, time.Minute, nil), "user-1")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/stats/", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200: %v", err)
	}
	var env struct {
		Success bool   `json:"success"`
		Data    Report `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Success || env.Data.Stats.TotalHikes != 2 || len(env.Data.Monthly) == 0 {
		t.Fatalf("unexpected report: %+v", env.Data)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/stats/badges/progress", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for badge progress: %v", err)
	}
	var progress struct {
		Data []logbook.BadgeStatus `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&progress); err != nil || len(progress.Data) != 8 {
		t.Fatalf("unexpected badge progress: %v", err)
	}
}

func TestStatsHandlersErrors(t *testing.T) {
	app := newApp(NewService(&fakeLister{err: errors.New("db down")}, nil, nil, time.Minute, nil), "user-1")
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/stats/", nil))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	anonymous := newApp(NewService(&fakeLister{}, nil, nil, time.Minute, nil), "")
	resp, _ = anonymous.Test(httptest.NewRequest(http.MethodGet, "/stats/badges/progress", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
}
