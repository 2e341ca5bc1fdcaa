package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docfront/internal/compose"
	"docfront/internal/fanout"
	"docfront/internal/http/middleware"
	"docfront/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Messages shown to end users, keyed by status.
var statusMessages = map[int]string{
	fiber.StatusBadRequest:          "リクエストが不正です",
	fiber.StatusNotFound:            "お探しのページは見つかりませんでした",
	fiber.StatusMethodNotAllowed:    "許可されていないメソッドです",
	fiber.StatusServiceUnavailable:  "現在サービスを利用できません。しばらくしてから再度お試しください",
	fiber.StatusInternalServerError: "サーバー内部でエラーが発生しました",
}

func messageFor(status int) string {
	if m, ok := statusMessages[status]; ok {
		return m
	}
	return statusMessages[fiber.StatusInternalServerError]
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "SERVICE_UNAVAILABLE")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError translates a FrontService error into the error envelope:
// invalid keyword 400, hidden or missing resource 404, downstream failure 503.
func writeServiceError(c *fiber.Ctx, err error) error {
	var re *fanout.RequiredError
	switch {
	case errors.Is(err, compose.ErrInvalidKeyword):
		return writeError(c, fiber.StatusBadRequest, "INVALID_KEYWORD", "検索キーワードに使用できない文字が含まれています")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", messageFor(fiber.StatusNotFound))
	case errors.As(err, &re):
		status := re.StatusCode()
		if status == fiber.StatusNotFound {
			return writeError(c, status, "NOT_FOUND", messageFor(status))
		}
		return writeError(c, status, "SERVICE_UNAVAILABLE", messageFor(status))
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", messageFor(fiber.StatusInternalServerError))
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", messageFor(status))
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", messageFor(status))
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", messageFor(status))
		case fiber.StatusServiceUnavailable:
			return writeError(c, status, "SERVICE_UNAVAILABLE", messageFor(status))
		default:
			return writeError(c, status, "INTERNAL_ERROR", messageFor(fiber.StatusInternalServerError))
		}
	}
}
