package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	authapp "gamebot-server/internal/application/auth"
)

// AuthHandler 認証関連ハンドラー
type AuthHandler struct {
	authService TokenIssuer
}

// NewAuthHandler 新しいAuthHandlerを作成
func NewAuthHandler(authService TokenIssuer) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// IssueToken サービストークン発行ハンドラー（管理API用）
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var req IssueTokenRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ClientID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "client_id is required")
	}

	resp, err := h.authService.IssueToken(c.Request().Context(), &authapp.IssueTokenRequest{
		ClientID: req.ClientID,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, IssueTokenResponse{
		Token:     resp.Token,
		TokenID:   resp.TokenID,
		ExpiresAt: formatTime(resp.ExpiresAt),
		ExpiresIn: resp.ExpiresIn,
		TokenType: resp.TokenType,
	})
}
