package game

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrGameInProgress 排他的なゲームが進行中
	ErrGameInProgress = errors.New("game in progress")
	// ErrAlreadyQueued 既に参加待ちキューにいる
	ErrAlreadyQueued = errors.New("already queued")
	// ErrQueueFull 参加待ちキューが満員
	ErrQueueFull = errors.New("queue full")
	// ErrTimeout 応答待ちの時間切れ
	ErrTimeout = errors.New("timeout")
	// ErrNoActiveGame 進行中のゲームがない
	ErrNoActiveGame = errors.New("no active game")
	// ErrNotParticipant ゲームの参加者ではない
	ErrNotParticipant = errors.New("not a participant")
	// ErrInvalidOpponent 対戦相手が不正
	ErrInvalidOpponent = errors.New("invalid opponent")
	// ErrInvalidBet 賭け金が不正
	ErrInvalidBet = errors.New("invalid bet")
	// ErrInvalidTransition 不正な状態遷移
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrRateLimited 連続実行の制限中（RateLimitedError と errors.Is で一致する）
	ErrRateLimited = errors.New("rate limited")
	// ErrUnknownAction 未定義のアクション種別
	ErrUnknownAction = errors.New("unknown action")
)

// RateLimitedError 連続実行の制限エラー。再実行できるまでの時間を保持する
type RateLimitedError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited: %s, retry after %s", e.Action, e.RetryAfter)
}

// Is ErrRateLimited との比較を可能にする
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
