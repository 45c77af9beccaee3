// Package slots はスロットマシンの抽選と配当判定を提供する。
package slots

import (
	"errors"
	"fmt"
	"slices"
)

// Roller 乱数源。math/rand/v2 の *rand.Rand が満たす
type Roller interface {
	IntN(n int) int
	Float64() float64
}

// Symbol リールの絵柄と出現重み
type Symbol struct {
	Name   string
	Weight int
}

// TierKind 当たりの段階
type TierKind string

const (
	TierJackpot  TierKind = "jackpot"   // ジャックポット絵柄が3つ
	TierTriple   TierKind = "triple"    // 同じ絵柄が3つ
	TierNearMiss TierKind = "near_miss" // ジャックポット絵柄が2つ
	TierPair     TierKind = "pair"      // 同じ絵柄が2つ
	TierNone     TierKind = "none"      // はずれ
)

// Tier 確率の梯子の1段
type Tier struct {
	Kind        TierKind
	Probability float64
	Payout      int64
}

var (
	// ErrInvalidMachine マシン設定が不正
	ErrInvalidMachine = errors.New("invalid slot machine")
)

// Machine スロットマシンの設定
type Machine struct {
	Symbols []Symbol
	Jackpot string // ジャックポット絵柄の名前
	Ladder  []Tier // 上から順に判定する。残りの確率は TierNone
	Cost    int64  // 1回あたりの料金
}

// DefaultMachine 標準のマシン設定
func DefaultMachine() Machine {
	return Machine{
		Symbols: []Symbol{
			{Name: "cherry", Weight: 40},
			{Name: "lemon", Weight: 30},
			{Name: "bell", Weight: 15},
			{Name: "star", Weight: 10},
			{Name: "seven", Weight: 5},
		},
		Jackpot: "seven",
		Ladder: []Tier{
			{Kind: TierJackpot, Probability: 0.01, Payout: 200},
			{Kind: TierTriple, Probability: 0.05, Payout: 50},
			{Kind: TierNearMiss, Probability: 0.10, Payout: 10},
			{Kind: TierPair, Probability: 0.25, Payout: 5},
		},
		Cost: 10,
	}
}

// Validate 設定の整合性を検証
func (m Machine) Validate() error {
	if m.Cost <= 0 {
		return fmt.Errorf("%w: cost must be positive", ErrInvalidMachine)
	}
	if len(m.Symbols) < 3 {
		return fmt.Errorf("%w: at least 3 symbols are required", ErrInvalidMachine)
	}
	hasJackpot := false
	for _, s := range m.Symbols {
		if s.Weight <= 0 {
			return fmt.Errorf("%w: symbol %s has non-positive weight", ErrInvalidMachine, s.Name)
		}
		if s.Name == m.Jackpot {
			hasJackpot = true
		}
	}
	if !hasJackpot {
		return fmt.Errorf("%w: jackpot symbol %s is not on the reels", ErrInvalidMachine, m.Jackpot)
	}
	total := 0.0
	for _, t := range m.Ladder {
		if t.Probability < 0 || t.Payout < 0 {
			return fmt.Errorf("%w: tier %s has negative probability or payout", ErrInvalidMachine, t.Kind)
		}
		total += t.Probability
	}
	if total > 1 {
		return fmt.Errorf("%w: ladder probabilities sum to %.3f", ErrInvalidMachine, total)
	}
	return nil
}

// Result 1回の抽選結果
type Result struct {
	Reels  [3]string
	Tier   TierKind
	Payout int64
}

// Spin 確率の梯子で段階を決め、それに合う絵柄を並べる
func (m Machine) Spin(r Roller) Result {
	tier := Tier{Kind: TierNone}
	roll := r.Float64()
	cumulative := 0.0
	for _, t := range m.Ladder {
		cumulative += t.Probability
		if roll < cumulative {
			tier = t
			break
		}
	}
	return Result{
		Reels:  m.reelsFor(r, tier.Kind),
		Tier:   tier.Kind,
		Payout: tier.Payout,
	}
}

func (m Machine) reelsFor(r Roller, kind TierKind) [3]string {
	j := m.Jackpot
	switch kind {
	case TierJackpot:
		return [3]string{j, j, j}
	case TierTriple:
		s := m.pick(r, j)
		return [3]string{s, s, s}
	case TierNearMiss:
		return placeOdd(r, j, m.pick(r, j))
	case TierPair:
		s := m.pick(r, j)
		return placeOdd(r, s, m.pick(r, j, s))
	default:
		a := m.pick(r)
		b := m.pick(r, a)
		c := m.pick(r, a, b)
		return [3]string{a, b, c}
	}
}

// placeOdd ペアの絵柄と残り1つの絵柄をランダムな位置に並べる
func placeOdd(r Roller, pair, odd string) [3]string {
	reels := [3]string{pair, pair, pair}
	reels[r.IntN(3)] = odd
	return reels
}

// pick 除外した絵柄以外から重みに従って1つ選ぶ
func (m Machine) pick(r Roller, exclude ...string) string {
	total := 0
	for _, s := range m.Symbols {
		if !slices.Contains(exclude, s.Name) {
			total += s.Weight
		}
	}
	n := r.IntN(total)
	for _, s := range m.Symbols {
		if slices.Contains(exclude, s.Name) {
			continue
		}
		if n < s.Weight {
			return s.Name
		}
		n -= s.Weight
	}
	return m.Symbols[len(m.Symbols)-1].Name
}
