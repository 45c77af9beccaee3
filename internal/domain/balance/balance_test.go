package balance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBalance(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		amount    int64
		version   int
		wantError error
	}{
		{
			name:    "正常系: 残高の作成",
			userID:  "user123",
			amount:  1000,
			version: 1,
		},
		{
			name:    "正常系: プラットフォーム接頭辞付きユーザーID",
			userID:  "discord:123456789",
			amount:  0,
			version: 0,
		},
		{
			name:      "異常系: 空のユーザーID",
			userID:    "",
			amount:    0,
			wantError: ErrInvalidUserID,
		},
		{
			name:      "異常系: マイナス残高",
			userID:    "user123",
			amount:    -1,
			wantError: ErrBalanceOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewBalance(tt.userID, tt.amount, tt.version)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, got.UserID())
			assert.Equal(t, tt.amount, got.Amount())
			assert.Equal(t, tt.version, got.Version())
		})
	}
}

func TestBalance_Adjust(t *testing.T) {
	tests := []struct {
		name       string
		amount     int64
		delta      int64
		wantAmount int64
		wantError  error
	}{
		{
			name:       "正常系: 加算",
			amount:     100,
			delta:      50,
			wantAmount: 150,
		},
		{
			name:       "正常系: 減算",
			amount:     100,
			delta:      -100,
			wantAmount: 0,
		},
		{
			name:       "正常系: 0の増減",
			amount:     100,
			delta:      0,
			wantAmount: 100,
		},
		{
			name:       "異常系: 残高不足",
			amount:     10,
			delta:      -20,
			wantAmount: 10,
			wantError:  ErrInsufficientFunds,
		},
		{
			name:       "異常系: 上限超過",
			amount:     MaxAmount,
			delta:      1,
			wantAmount: MaxAmount,
			wantError:  ErrBalanceOutOfRange,
		},
		{
			name:       "異常系: 増減額が大きすぎる",
			amount:     0,
			delta:      MaxAmount + 1,
			wantAmount: 0,
			wantError:  ErrAmountTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := MustNewBalance("user123", tt.amount, 3)
			err := b.Adjust(tt.delta)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantAmount, b.Amount())
			assert.Equal(t, 3, b.Version(), "version is bumped by the repository only")
		})
	}
}

func TestBalance_Adjust_InsufficientFundsDetail(t *testing.T) {
	b := MustNewBalance("user123", 15, 0)

	err := b.Adjust(-20)

	var insufficient *InsufficientFundsError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, int64(20), insufficient.Required)
	assert.Equal(t, int64(15), insufficient.Actual)
	assert.Equal(t, "insufficient funds: required 20, actual 15", err.Error())
}

func TestBalance_Set(t *testing.T) {
	b := MustNewBalance("user123", 15, 0)

	require.NoError(t, b.Set(500))
	assert.Equal(t, int64(500), b.Amount())

	assert.ErrorIs(t, b.Set(-1), ErrBalanceOutOfRange)
	assert.Equal(t, int64(500), b.Amount())
}

func TestBalance_IncrementVersion(t *testing.T) {
	b := MustNewBalance("user123", 0, 7)
	b.IncrementVersion()
	assert.Equal(t, 8, b.Version())
}
