// Package response renders the {status, message, data} envelope every HTTP
// endpoint answers with.
package response

import "github.com/gofiber/fiber/v3"

type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	MessageOK                   = "ok"
	MessageCreated              = "created"
	MessageBadRequest           = "bad request"
	MessageUnauthorized         = "unauthorized"
	MessageForbidden            = "forbidden"
	MessageNotFound             = "not found"
	MessageConflict             = "conflict"
	MessageUnprocessableEntity  = "unprocessable entity"
	MessagePreconditionRequired = "confirmation required"
	MessageInternalServerError  = "internal server error"
	MessageError                = "error"
)

// IDData is the body of a successful write: clients read the data itself
// from the live stream.
type IDData struct {
	ID string `json:"id"`
}

func Success(c fiber.Ctx, status int, message string, data any) error {
	return write(c, status, message, data)
}

func Created(c fiber.Ctx, id string) error {
	return write(c, fiber.StatusCreated, MessageCreated, IDData{ID: id})
}

func Error(c fiber.Ctx, status int, message string, data any) error {
	return write(c, status, message, data)
}

func write(c fiber.Ctx, status int, message string, data any) error {
	st := normalizeStatus(status)
	return c.Status(st).JSON(Envelope{Status: st, Message: normalizeMessage(message, st), Data: data})
}

func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return fiber.StatusInternalServerError
	}
	return status
}

func normalizeMessage(message string, status int) string {
	if message != "" {
		return message
	}
	return DefaultMessage(status)
}

func DefaultMessage(status int) string {
	switch status {
	case fiber.StatusOK:
		return MessageOK
	case fiber.StatusCreated:
		return MessageCreated
	case fiber.StatusBadRequest:
		return MessageBadRequest
	case fiber.StatusUnauthorized:
		return MessageUnauthorized
	case fiber.StatusForbidden:
		return MessageForbidden
	case fiber.StatusNotFound:
		return MessageNotFound
	case fiber.StatusConflict:
		return MessageConflict
	case fiber.StatusUnprocessableEntity:
		return MessageUnprocessableEntity
	case fiber.StatusPreconditionRequired:
		return MessagePreconditionRequired
	default:
		if status >= 500 {
			return MessageInternalServerError
		}
		return MessageError
	}
}
