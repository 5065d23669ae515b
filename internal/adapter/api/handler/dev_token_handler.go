package handler

import (
	"github.com/labstack/echo/v4"

	"haulhub/internal/domain/entity"
	"haulhub/internal/infrastructure/auth"
	"haulhub/pkg/response"
)

// DevTokenHandler mints session tokens without an identity provider. Routed
// only in the development environment.
type DevTokenHandler struct {
	tokens *auth.TokenManager
}

func NewDevTokenHandler(tokens *auth.TokenManager) *DevTokenHandler {
	return &DevTokenHandler{tokens: tokens}
}

type devTokenRequest struct {
	Role string `json:"role" validate:"required,oneof=customer supplier admin driver"`
	ID   int64  `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	actor := entity.Actor{Role: entity.Role(req.Role), ID: req.ID, Name: req.Name}
	token, err := h.tokens.Mint(actor)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"token": token,
		"actor": actor,
	})
}
