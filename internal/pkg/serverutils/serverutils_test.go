package serverutils

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rebuildRequest struct {
	Reason string `validate:"required"`
	TopK   int    `validate:"gte=1,lte=50"`
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    rebuildRequest
		fields []string
	}{
		{name: "valid", req: rebuildRequest{Reason: "new documents", TopK: 5}},
		{name: "missing reason", req: rebuildRequest{TopK: 5}, fields: []string{"Reason: required"}},
		{name: "both", req: rebuildRequest{TopK: 99}, fields: []string{"Reason: required", "TopK: lte=50"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequest(tt.req)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.fields, ve.Fields)
		})
	}
}

func TestErrorHandlerMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(ErrorHandlerMiddleware())
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "session not found") })
	app.Get("/invalid", func(c *fiber.Ctx) error { return ValidateRequest(rebuildRequest{TopK: 1}) })
	app.Get("/boom", func(c *fiber.Ctx) error { return errors.New("db exploded") })
	app.Get("/ok", func(c *fiber.Ctx) error { return c.JSON(SuccessResponse("fine", map[string]int{"chunks": 3})) })

	tests := []struct {
		path    string
		code    int
		success bool
		message string
	}{
		{"/missing", 404, false, "session not found"},
		{"/invalid", 400, false, "validation failed: Reason: required"},
		{"/boom", 500, false, "Internal server error"},
		{"/ok", 200, true, "fine"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			var env struct {
				Success bool   `json:"success"`
				Code    int    `json:"code"`
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal(body, &env))
			assert.Equal(t, tt.success, env.Success)
			assert.Equal(t, tt.code, env.Code)
			assert.Equal(t, tt.message, env.Message)
		})
	}
}
