package effect

import (
	"regexp"
	"time"
)

var (
	userIDRegex   = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@:]{1,255}$`)
	effectIDRegex = regexp.MustCompile(`^[a-z0-9_\-]{1,64}$`)
)

// ActiveEffect ユーザーに付与されたステータス効果（呪いなど）
// 1ユーザーにつき最大1件。有効期限は読み取り時に判定する
type ActiveEffect struct {
	userID    string
	effectID  string
	expiresAt time.Time
}

// NewActiveEffect 新しいActiveEffectを作成
func NewActiveEffect(userID, effectID string, expiresAt time.Time) (*ActiveEffect, error) {
	if !userIDRegex.MatchString(userID) {
		return nil, ErrInvalidUserID
	}
	if !effectIDRegex.MatchString(effectID) {
		return nil, ErrInvalidEffectID
	}
	if expiresAt.IsZero() {
		return nil, ErrInvalidExpiry
	}
	return &ActiveEffect{
		userID:    userID,
		effectID:  effectID,
		expiresAt: expiresAt,
	}, nil
}

// UserID ユーザーIDを返す
func (e *ActiveEffect) UserID() string {
	return e.userID
}

// EffectID 効果IDを返す
func (e *ActiveEffect) EffectID() string {
	return e.effectID
}

// ExpiresAt 有効期限を返す
func (e *ActiveEffect) ExpiresAt() time.Time {
	return e.expiresAt
}

// IsActiveAt 指定時刻に有効かどうかを返す
func (e *ActiveEffect) IsActiveAt(now time.Time) bool {
	return now.Before(e.expiresAt)
}

// Remaining 指定時刻から有効期限までの残り時間を返す
func (e *ActiveEffect) Remaining(now time.Time) time.Duration {
	if !e.IsActiveAt(now) {
		return 0
	}
	return e.expiresAt.Sub(now)
}

// MustNewActiveEffect テスト用ヘルパー
func MustNewActiveEffect(userID, effectID string, expiresAt time.Time) *ActiveEffect {
	e, err := NewActiveEffect(userID, effectID, expiresAt)
	if err != nil {
		panic(err)
	}
	return e
}
