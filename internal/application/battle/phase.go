package battle

import (
	"fmt"
	"slices"

	"gamebot-server/internal/domain/game"
)

// Phase 対戦の状態
type Phase int

const (
	PhaseIdle     Phase = iota // 対戦なし
	PhaseActive                // 応答待ち
	PhaseResolved              // 決着処理中
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseActive:
		return "active"
	case PhaseResolved:
		return "resolved"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

var transitions = map[Phase][]Phase{
	PhaseIdle:     {PhaseActive},
	PhaseActive:   {PhaseResolved},
	PhaseResolved: {PhaseIdle},
}

// canTransition from から to へ遷移できるか
func canTransition(from, to Phase) bool {
	return slices.Contains(transitions[from], to)
}

func transitionError(from, to Phase) error {
	return fmt.Errorf("%w: %s -> %s", game.ErrInvalidTransition, from, to)
}
