package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"scannimart/internal/model"
	"scannimart/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	service.AuthService
	privileges []string
}

func (s stubAuth) ValidateToken(_ context.Context, token string) (*service.TokenValidationResponse, error) {
	if token != "good" {
		return nil, errors.New("invalid or expired token")
	}
	return &service.TokenValidationResponse{
		User:       model.UserResponse{ID: uuid.New(), Username: "gate1"},
		Privileges: s.privileges,
	}, nil
}

func newApp(privileges []string) *fiber.App {
	app := fiber.New()
	app.Get("/gate", RequireAuth(stubAuth{privileges: privileges}), RequirePrivilege(model.PrivOrderVerify), func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("username").(string))
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	app := newApp([]string{model.PrivOrderVerify})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", 401},
		{"malformed", "Token good", 401},
		{"invalid", "Bearer bad", 401},
		{"valid", "Bearer good", 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/gate", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRequirePrivilegeForbids(t *testing.T) {
	app := newApp([]string{model.PrivProductCreate})

	req := httptest.NewRequest("GET", "/gate", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 403, resp.StatusCode)
}
