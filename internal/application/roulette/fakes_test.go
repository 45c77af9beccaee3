package roulette

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"gamebot-server/internal/application/ledger"
	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/effect"
	"gamebot-server/internal/domain/transaction"
)

// fakeLedger メモリ上の残高
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	journal  []ledger.AdjustBalanceRequest
	failFor  map[string]bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[string]int64{}, failFor: map[string]bool{}}
}

func (l *fakeLedger) AdjustBalance(ctx context.Context, req *ledger.AdjustBalanceRequest) (*ledger.BalanceChange, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failFor[req.UserID] {
		return nil, transaction.NewStoreError("balances.update", errors.New("connection reset"))
	}
	before := l.balances[req.UserID]
	if before+req.Delta < 0 {
		return nil, &balance.InsufficientFundsError{Required: -req.Delta, Actual: before}
	}
	l.balances[req.UserID] = before + req.Delta
	l.journal = append(l.journal, *req)
	return &ledger.BalanceChange{UserID: req.UserID, BalanceBefore: before, BalanceAfter: before + req.Delta}, nil
}

func (l *fakeLedger) balance(userID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

func (l *fakeLedger) count(userID string, t transaction.TransactionType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, j := range l.journal {
		if j.UserID == userID && j.Type == t {
			n++
		}
	}
	return n
}

// fakeWards メモリ上の防御アイテム
type fakeWards struct {
	mu    sync.Mutex
	wards map[string]int
}

func (w *fakeWards) HoldsWard(ctx context.Context, userID string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wards[userID] > 0, nil
}

func (w *fakeWards) ConsumeWard(ctx context.Context, userID string) (string, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.wards[userID] == 0 {
		return "", false, nil
	}
	w.wards[userID]--
	return "ward", true, nil
}

func (w *fakeWards) count(userID string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.wards[userID]
}

// fakeEffects メモリ上の状態効果
type fakeEffects struct {
	mu      sync.Mutex
	clock   clock.Clock
	applied map[string]string
	fail    bool
}

func (f *fakeEffects) SetActive(ctx context.Context, userID, effectID string, duration time.Duration) (*effect.ActiveEffect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, transaction.NewStoreError("active_effects.replace", errors.New("disk full"))
	}
	f.applied[userID] = effectID
	return effect.NewActiveEffect(userID, effectID, f.clock.Now().Add(duration))
}

func (f *fakeEffects) effectOf(userID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied[userID]
}

// recordingNotifier 通知された結果を記録する
type recordingNotifier struct {
	mu      sync.Mutex
	results []Result
}

func (n *recordingNotifier) RouletteResolved(ctx context.Context, result Result) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, result)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.results)
}
