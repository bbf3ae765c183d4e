package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

type panicky struct{}

func (panicky) String() string { panic("boom") }

type label string

func (l label) String() string { return string(l) }

func pinNow(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func TestSuccess(t *testing.T) {
	pinNow(t)

	env := Success(map[string]int{"n": 1})
	if !env.Success || env.Message != "Success" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env.Timestamp != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected timestamp %q", env.Timestamp)
	}
	if got := Success(nil, "Created").Message; got != "Created" {
		t.Fatalf("expected custom message, got %q", got)
	}
	if got := Success(nil, "").Message; got != "Success" {
		t.Fatalf("expected default message for blank, got %q", got)
	}
}

func TestError(t *testing.T) {
	cases := []struct {
		name string
		in   any
		code []int
		msg  string
		want int
	}{
		{"error value", errors.New("db down"), nil, "db down", 500},
		{"plain string", "bad input", []int{400}, "bad input", 400},
		{"nil", nil, nil, "An error occurred", 500},
		{"blank string", "", []int{404}, "An error occurred", 404},
		{"stringer", label("custom"), nil, "custom", 500},
		{"panicking stringer", panicky{}, nil, "An error occurred", 500},
		{"other value", 42, []int{0}, "42", 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := Error(tc.in, tc.code...)
			if env.Success {
				t.Fatalf("error envelope marked success")
			}
			if env.Error != tc.msg || env.StatusCode != tc.want {
				t.Fatalf("expected %q/%d, got %q/%d", tc.msg, tc.want, env.Error, env.StatusCode)
			}
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return errors.New("unexpected")
	})
	app.Get("/ok", func(c *fiber.Ctx) error {
		return JSON(c, fiber.StatusCreated, "x", "Made")
	})

	check := func(path string, status int) Envelope {
		t.Helper()
		resp, err := app.Test(httptest.NewRequest("GET", path, nil))
		if err != nil {
			t.Fatalf("request %s: %v", path, err)
		}
		if resp.StatusCode != status {
			t.Fatalf("%s: expected %d, got %d", path, status, resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		var env Envelope
		if err := json.Unmarshal(body, &env); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
		return env
	}

	if env := check("/teapot", fiber.StatusTeapot); env.Error != "short and stout" || env.StatusCode != fiber.StatusTeapot {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env := check("/plain", fiber.StatusInternalServerError); env.Error != "unexpected" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if env := check("/ok", fiber.StatusCreated); !env.Success || env.Message != "Made" || env.Data != "x" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestEnvelopeDataKey(t *testing.T) {
	pinNow(t)

	raw, err := json.Marshal(Success(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := fields["data"]; !ok || v != nil {
		t.Fatalf("expected data:null on success, got %s", raw)
	}
	if fields["message"] != "Success" || fields["success"] != true {
		t.Fatalf("unexpected success body %s", raw)
	}

	raw, _ = json.Marshal(Error("nope", 400))
	fields = map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["data"]; ok {
		t.Fatalf("error envelope should not carry data: %s", raw)
	}
	if fields["statusCode"] != 400.0 || fields["error"] != "nope" {
		t.Fatalf("unexpected error body %s", raw)
	}
}
