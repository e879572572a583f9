package utils

import "github.com/gofiber/fiber/v2"

// Notice levels shown to the client next to the payload.
const (
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a user-facing message attached to a response.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// APIResponse describes the common structure for API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message"`
	Notices []Notice    `json:"notices,omitempty"`
}

// SendSuccess sends a successful JSON response with a message.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	if message == "" {
		message = "success"
	}

	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success payload using the provided HTTP status code.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	return SendSuccessWithNotices(c, status, message, data, nil)
}

// SendSuccessWithNotices sends a success payload carrying notices for the client.
func SendSuccessWithNotices(c *fiber.Ctx, status int, message string, data interface{}, notices []Notice) error {
	if message == "" {
		message = "success"
	}
	if status == 0 {
		status = fiber.StatusOK
	}

	return c.Status(status).JSON(APIResponse{
		Success: true,
		Data:    data,
		Message: message,
		Notices: notices,
	})
}

// SendError sends an error JSON response with the given status code.
func SendError(c *fiber.Ctx, status int, message string) error {
	return SendErrorWithNotices(c, status, message, nil)
}

// SendErrorWithNotices sends an error response; each notice explains one problem.
func SendErrorWithNotices(c *fiber.Ctx, status int, message string, notices []Notice) error {
	if message == "" {
		message = "error"
	}

	return c.Status(status).JSON(APIResponse{
		Success: false,
		Message: message,
		Notices: notices,
	})
}

// Notices builds notices of a single level from plain messages.
func Notices(level string, messages ...string) []Notice {
	notices := make([]Notice, 0, len(messages))
	for _, message := range messages {
		notices = append(notices, Notice{Level: level, Message: message})
	}
	return notices
}
