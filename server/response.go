package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/lakegraph/kgqa/log"
)

// Response is the envelope of every JSON endpoint except health.
type Response struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

func now() string {
	return time.Now().Format(time.RFC3339)
}

func success(message string, data any) Response {
	return Response{Success: true, Data: data, Message: message, Timestamp: now()}
}

func failure(message string) Response {
	return Response{Success: false, Message: message, Timestamp: now()}
}

// errorHandler renders fiber errors in the response envelope.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		log.Error("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(code).JSON(failure(err.Error()))
}
