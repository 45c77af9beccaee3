package item

import (
	"regexp"
	"time"
)

var idRegex = regexp.MustCompile(`^[a-z0-9_\-]{1,64}$`)

// Definition ショップで扱うアイテムの定義。起動時に読み込まれ以後変更されない
type Definition struct {
	ID               string
	Name             string
	Cost             int64
	Category         Category
	Duration         time.Duration // 呪いの効果時間
	EffectID         string        // 呪いが付与する効果ID（未指定ならアイテムID）
	PayoutMultiplier float64
}

// Validate 定義の整合性を検証
func (d Definition) Validate() error {
	if !idRegex.MatchString(d.ID) {
		return &InvalidDefinitionError{ItemID: d.ID, Reason: "id must match [a-z0-9_-]{1,64}"}
	}
	if d.Name == "" {
		return &InvalidDefinitionError{ItemID: d.ID, Reason: "name is required"}
	}
	if d.Cost < 0 {
		return &InvalidDefinitionError{ItemID: d.ID, Reason: "cost must not be negative"}
	}
	if !d.Category.Valid() {
		return &InvalidDefinitionError{ItemID: d.ID, Reason: "unknown category " + d.Category.String()}
	}
	if d.Category == CategoryCurse && d.Duration <= 0 {
		return &InvalidDefinitionError{ItemID: d.ID, Reason: "curse requires a positive duration"}
	}
	if d.EffectID != "" && !idRegex.MatchString(d.EffectID) {
		return &InvalidDefinitionError{ItemID: d.ID, Reason: "effect id must match [a-z0-9_-]{1,64}"}
	}
	if d.PayoutMultiplier < 0 {
		return &InvalidDefinitionError{ItemID: d.ID, Reason: "payout multiplier must not be negative"}
	}
	return nil
}

// IsCurse 呪いアイテムかどうか
func (d Definition) IsCurse() bool {
	return d.Category == CategoryCurse
}

// IsWard 防御アイテムかどうか
func (d Definition) IsWard() bool {
	return d.Category == CategoryWard
}

// AppliedEffectID 付与する効果IDを返す
func (d Definition) AppliedEffectID() string {
	if d.EffectID != "" {
		return d.EffectID
	}
	return d.ID
}
