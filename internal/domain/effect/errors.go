package effect

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidUserID ユーザーIDが無効
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrInvalidEffectID 効果IDが無効
	ErrInvalidEffectID = errors.New("invalid effect id")
	// ErrInvalidExpiry 有効期限が無効
	ErrInvalidExpiry = errors.New("invalid expiry")
	// ErrInvalidDuration 効果時間が無効
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrEffectNotFound 効果レコードが存在しない
	ErrEffectNotFound = errors.New("effect not found")
	// ErrActiveCurse 対象に有効な効果が既に存在する（ActiveCurseError と errors.Is で一致する）
	ErrActiveCurse = errors.New("target already has an active effect")
)

// ActiveCurseError 対象ユーザーに既に有効な効果がある
type ActiveCurseError struct {
	TargetID string
	EffectID string
}

func (e *ActiveCurseError) Error() string {
	return fmt.Sprintf("user %s already has active effect %s", e.TargetID, e.EffectID)
}

// Is ErrActiveCurse との比較を可能にする
func (e *ActiveCurseError) Is(target error) bool {
	return target == ErrActiveCurse
}
