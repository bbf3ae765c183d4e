package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultMessage      = "Success"
	defaultErrorMessage = "An error occurred"
)

// Envelope is the uniform body every endpoint answers with.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
	StatusCode int    `json:"statusCode,omitempty"`
	Timestamp  string `json:"timestamp"`
}

var now = time.Now

// MarshalJSON always writes data on a success, even when it is null. Error
// envelopes carry no data key.
func (e Envelope) MarshalJSON() ([]byte, error) {
	type plain Envelope
	if !e.Success {
		return json.Marshal(plain(e))
	}
	return json.Marshal(struct {
		plain
		Data any `json:"data"`
	}{plain(e), e.Data})
}

func Success(data any, message ...string) Envelope {
	msg := defaultMessage
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	return Envelope{
		Success:   true,
		Data:      data,
		Message:   msg,
		Timestamp: now().UTC().Format(time.RFC3339Nano),
	}
}

// Error accepts an error, a string, or any other value and never panics.
func Error(err any, statusCode ...int) Envelope {
	code := fiber.StatusInternalServerError
	if len(statusCode) > 0 && statusCode[0] > 0 {
		code = statusCode[0]
	}
	return Envelope{
		Success:    false,
		Error:      errorText(err),
		StatusCode: code,
		Timestamp:  now().UTC().Format(time.RFC3339Nano),
	}
}

func errorText(err any) (msg string) {
	defer func() {
		if recover() != nil {
			msg = defaultErrorMessage
		}
	}()
	switch e := err.(type) {
	case nil:
		return defaultErrorMessage
	case error:
		msg = e.Error()
	case string:
		msg = e
	case fmt.Stringer:
		msg = e.String()
	default:
		msg = fmt.Sprint(e)
	}
	if msg == "" {
		return defaultErrorMessage
	}
	return msg
}

// JSON writes a success envelope with the given status.
func JSON(c *fiber.Ctx, status int, data any, message ...string) error {
	return c.Status(status).JSON(Success(data, message...))
}

// ErrorHandler renders any error returned by a handler as an envelope.
// *fiber.Error keeps its status code; everything else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return c.Status(code).JSON(Error(err, code))
}
