package serverutils

import "github.com/gofiber/fiber/v2"

type Response[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func NewResponse[T any](success bool, code int, message string, data T) *Response[T] {
	return &Response[T]{
		Success: success,
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func SuccessResponse[T any](message string, data T) *Response[T] {
	return NewResponse(true, fiber.StatusOK, message, data)
}

func ErrorResponse(code int, message string) *Response[any] {
	return NewResponse[any](false, code, message, nil)
}
