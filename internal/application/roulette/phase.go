package roulette

import (
	"fmt"
	"slices"

	"gamebot-server/internal/domain/game"
)

// Phase ルーレットの状態
type Phase int

const (
	PhaseIdle       Phase = iota // 参加者なし
	PhaseCollecting              // 参加者を集めている
	PhaseCountdown               // 最低人数に達し、抽選を待っている
	PhaseSpinning                // 抽選中（参加不可）
	PhaseResolved                // 結果確定
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting"
	case PhaseCountdown:
		return "countdown"
	case PhaseSpinning:
		return "spinning"
	case PhaseResolved:
		return "resolved"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

var transitions = map[Phase][]Phase{
	PhaseIdle:       {PhaseCollecting},
	PhaseCollecting: {PhaseCountdown, PhaseIdle},
	PhaseCountdown:  {PhaseSpinning},
	PhaseSpinning:   {PhaseResolved},
	PhaseResolved:   {PhaseIdle},
}

// canTransition from から to へ遷移できるか
func canTransition(from, to Phase) bool {
	return slices.Contains(transitions[from], to)
}

func transitionError(from, to Phase) error {
	return fmt.Errorf("%w: %s -> %s", game.ErrInvalidTransition, from, to)
}
