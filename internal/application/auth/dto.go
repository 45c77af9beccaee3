package auth

import "time"

// IssueTokenRequest サービストークン発行リクエスト
type IssueTokenRequest struct {
	ClientID string // ボットフロントエンドの識別子。トークンの subject になる
}

// IssueTokenResponse サービストークン発行レスポンス
type IssueTokenResponse struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
	ExpiresIn int64  // 秒単位
	TokenType string // "Bearer"
}
