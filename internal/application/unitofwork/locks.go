package unitofwork

import (
	"context"
	"sync"
)

// userLocks ユーザーIDごとの排他ロック
// 使われていないロックは解放時に取り除く
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	sem  chan struct{}
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// acquire 指定ユーザーのロックを取得する。ctx がキャンセルされた場合は諦める
func (l *userLocks) acquire(ctx context.Context, userID string) error {
	l.mu.Lock()
	lk, ok := l.locks[userID]
	if !ok {
		lk = &userLock{sem: make(chan struct{}, 1)}
		l.locks[userID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(userID, lk)
		return ctx.Err()
	}
}

// release 指定ユーザーのロックを解放する
func (l *userLocks) release(userID string) {
	l.mu.Lock()
	lk := l.locks[userID]
	l.mu.Unlock()
	if lk == nil {
		return
	}
	<-lk.sem
	l.unref(userID, lk)
}

func (l *userLocks) unref(userID string, lk *userLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, userID)
	}
}

// size 保持しているロック数（テスト用）
func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
