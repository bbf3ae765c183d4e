package goal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-hikelog/internal/logbook"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func newApp(svc *Service) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app.Group("/goals"), svc, func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, method, path string, body any) *http.Response {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestGoalHandlers(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO goals`).
		WithArgs(pgxmock.AnyArg(), "user-1", "Four hikes", "hikes", 4.0, "hikes", "", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
	expectGoal(mock, "goal-1", "user-1", "hikes", 4)

	app := newApp(NewService(mock, fakeStats{summary: logbook.StatsSummary{TotalHikes: 2}}))

	resp := postJSON(t, app, http.MethodPost, "/goals/", map[string]any{"title": "Four hikes", "category": "hikes", "targetValue": 4, "unit": "hikes"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/goals/goal-1/progress", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("expected progress 200: %v", err)
	}
	var env struct {
		Data Progress `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Data.Percent != 50 {
		t.Fatalf("unexpected progress body: %+v", env)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGoalHandlersErrors(t *testing.T) {
	mock := newMock(t)
	app := newApp(NewService(mock, nil))

	if resp := postJSON(t, app, http.MethodPost, "/goals/", map[string]any{"title": "x", "category": "swimming"}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	mock.ExpectQuery(`SELECT id, user_id, title`).WithArgs("nope", "user-1").WillReturnRows(pgxmock.NewRows(goalColumns))
	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/goals/nope", nil))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
