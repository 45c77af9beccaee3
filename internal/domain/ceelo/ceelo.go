// Package ceelo は3個のサイコロを使うチンチロ（cee-lo）の役判定と勝敗判定を提供する。
package ceelo

import (
	"fmt"
	"slices"
)

// Roller 乱数源。math/rand/v2 の *rand.Rand が満たす
type Roller interface {
	IntN(n int) int
}

// HandKind 役の種類。値が大きいほど強い
type HandKind int

const (
	HandAutoLoss HandKind = iota // 1-2-3 無条件負け
	HandPoint                    // ペア＋出目
	HandTrips                    // ゾロ目
	HandSweep                    // 4-5-6 無条件勝ち
)

// String 文字列表現を返す
func (k HandKind) String() string {
	switch k {
	case HandAutoLoss:
		return "auto_loss"
	case HandPoint:
		return "point"
	case HandTrips:
		return "trips"
	case HandSweep:
		return "sweep"
	default:
		return fmt.Sprintf("HandKind(%d)", int(k))
	}
}

// Hand 確定した役
type Hand struct {
	Dice  [3]int
	Kind  HandKind
	Point int // HandPoint は残りの1個、HandTrips はゾロ目の数字
}

// Outcome プレイヤー視点の勝敗
type Outcome int

const (
	OutcomeLose Outcome = iota
	OutcomePush
	OutcomeWin
)

// String 文字列表現を返す
func (o Outcome) String() string {
	switch o {
	case OutcomeLose:
		return "lose"
	case OutcomePush:
		return "push"
	case OutcomeWin:
		return "win"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Classify 出目を役に分類する。役にならない場合は false（振り直し）
func Classify(dice [3]int) (Hand, bool) {
	for _, d := range dice {
		if d < 1 || d > 6 {
			return Hand{}, false
		}
	}
	sorted := dice
	slices.Sort(sorted[:])
	a, b, c := sorted[0], sorted[1], sorted[2]

	switch {
	case a == 4 && b == 5 && c == 6:
		return Hand{Dice: dice, Kind: HandSweep}, true
	case a == 1 && b == 2 && c == 3:
		return Hand{Dice: dice, Kind: HandAutoLoss}, true
	case a == b && b == c:
		return Hand{Dice: dice, Kind: HandTrips, Point: a}, true
	case a == b:
		return Hand{Dice: dice, Kind: HandPoint, Point: c}, true
	case b == c:
		return Hand{Dice: dice, Kind: HandPoint, Point: a}, true
	default:
		return Hand{}, false
	}
}

// Roll 役が成立するまで振り直し、成立した役と振った回数を返す
func Roll(r Roller) (Hand, int) {
	throws := 0
	for {
		throws++
		dice := [3]int{r.IntN(6) + 1, r.IntN(6) + 1, r.IntN(6) + 1}
		if hand, ok := Classify(dice); ok {
			return hand, throws
		}
	}
}

// Compare 固定の優先順位表でプレイヤーと親の役を比較する
func Compare(player, house Hand) Outcome {
	if player.Kind != house.Kind {
		if player.Kind > house.Kind {
			return OutcomeWin
		}
		return OutcomeLose
	}
	switch player.Kind {
	case HandTrips, HandPoint:
		switch {
		case player.Point > house.Point:
			return OutcomeWin
		case player.Point < house.Point:
			return OutcomeLose
		}
	}
	return OutcomePush
}

// Winnings 勝った場合の配当（賭け金を含まない）
// 4-5-6 は1.5倍、ゾロ目は2倍、通常の勝ちは等倍。1.5倍の端数は切り捨てる
func Winnings(bet int64, hand Hand) int64 {
	switch hand.Kind {
	case HandSweep:
		return bet * 3 / 2
	case HandTrips:
		return bet * 2
	case HandPoint:
		return bet
	default:
		return 0
	}
}

// Settlement 精算結果
type Settlement struct {
	Outcome Outcome
	Credit  int64 // 払い戻し総額（賭け金を含む）
}

// Settle 賭け金と役から払い戻し額を計算する
func Settle(bet int64, player, house Hand) Settlement {
	outcome := Compare(player, house)
	switch outcome {
	case OutcomeWin:
		return Settlement{Outcome: outcome, Credit: bet + Winnings(bet, player)}
	case OutcomePush:
		return Settlement{Outcome: outcome, Credit: bet}
	default:
		return Settlement{Outcome: outcome}
	}
}
