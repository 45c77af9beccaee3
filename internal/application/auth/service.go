package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"gamebot-server/internal/infrastructure/config"
	otelinfra "gamebot-server/internal/infrastructure/observability/otel"
)

// ErrInvalidClientID クライアントIDが不正
var ErrInvalidClientID = errors.New("invalid client id")

var clientIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.]{1,64}$`)

// AuthApplicationService ボットフロントエンド向けのサービストークンを発行する
type AuthApplicationService struct {
	jwtConfig *config.JWTConfig
	clock     clock.Clock
	logger    *otelinfra.Logger
}

// NewAuthApplicationService 新しいAuthApplicationServiceを作成
func NewAuthApplicationService(jwtConfig *config.JWTConfig, clk clock.Clock, logger *otelinfra.Logger) *AuthApplicationService {
	return &AuthApplicationService{
		jwtConfig: jwtConfig,
		clock:     clk,
		logger:    logger,
	}
}

// IssueToken HS256で署名したトークンを発行
func (s *AuthApplicationService) IssueToken(ctx context.Context, req *IssueTokenRequest) (*IssueTokenResponse, error) {
	tracer := otel.Tracer("auth-service")
	ctx, span := tracer.Start(ctx, "AuthApplicationService.IssueToken")
	defer span.End()

	span.SetAttributes(
		attribute.String("client_id", req.ClientID),
	)

	if !clientIDRegex.MatchString(req.ClientID) {
		span.SetStatus(codes.Error, ErrInvalidClientID.Error())
		s.logger.Warn(ctx, "Invalid client id", map[string]interface{}{
			"client_id": req.ClientID,
		})
		return nil, ErrInvalidClientID
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.jwtConfig.Expiration)
	tokenID := uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   req.ClientID,
		Issuer:    s.jwtConfig.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtConfig.Secret))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error(ctx, "Failed to sign token", err, map[string]interface{}{
			"client_id": req.ClientID,
		})
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	s.logger.Info(ctx, "Service token issued", map[string]interface{}{
		"client_id":  req.ClientID,
		"token_id":   tokenID,
		"expires_at": expiresAt.Unix(),
	})

	return &IssueTokenResponse{
		Token:     tokenString,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
		ExpiresIn: int64(s.jwtConfig.Expiration.Seconds()),
		TokenType: "Bearer",
	}, nil
}
