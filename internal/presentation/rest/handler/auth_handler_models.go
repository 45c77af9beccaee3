package handler

// IssueTokenRequest サービストークン発行リクエスト
type IssueTokenRequest struct {
	ClientID string `json:"client_id"`
}

// IssueTokenResponse サービストークン発行レスポンス
type IssueTokenResponse struct {
	Token     string `json:"token"`
	TokenID   string `json:"token_id"`
	ExpiresAt string `json:"expires_at"`
	ExpiresIn int64  `json:"expires_in"`
	TokenType string `json:"token_type"`
}
