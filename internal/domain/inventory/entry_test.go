package inventory

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEntry(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		itemID    string
		quantity  int64
		wantError error
	}{
		{
			name:     "正常系: 所持レコードの作成",
			userID:   "user123",
			itemID:   "ward",
			quantity: 2,
		},
		{
			name:      "異常系: 無効なユーザーID",
			userID:    "",
			itemID:    "ward",
			wantError: ErrInvalidUserID,
		},
		{
			name:      "異常系: 無効なアイテムID",
			userID:    "user123",
			itemID:    "Ward Item",
			wantError: ErrInvalidItemID,
		},
		{
			name:      "異常系: マイナス所持数",
			userID:    "user123",
			itemID:    "ward",
			quantity:  -1,
			wantError: ErrQuantityOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewEntry(tt.userID, tt.itemID, tt.quantity, 0)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, got.UserID())
			assert.Equal(t, tt.itemID, got.ItemID())
			assert.Equal(t, tt.quantity, got.Quantity())
		})
	}
}

func TestEntry_Adjust(t *testing.T) {
	tests := []struct {
		name         string
		quantity     int64
		delta        int64
		wantQuantity int64
		wantError    error
	}{
		{
			name:         "正常系: 付与",
			quantity:     0,
			delta:        1,
			wantQuantity: 1,
		},
		{
			name:         "正常系: 消費して0になる",
			quantity:     1,
			delta:        -1,
			wantQuantity: 0,
		},
		{
			name:         "異常系: 所持数不足",
			quantity:     0,
			delta:        -1,
			wantQuantity: 0,
			wantError:    ErrInsufficientInventory,
		},
		{
			name:         "異常系: 上限超過",
			quantity:     MaxQuantity,
			delta:        1,
			wantQuantity: MaxQuantity,
			wantError:    ErrQuantityOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := MustNewEntry("user123", "curse", tt.quantity, 0)
			err := e.Adjust(tt.delta)
			if tt.wantError != nil {
				assert.ErrorIs(t, err, tt.wantError)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantQuantity, e.Quantity())
		})
	}
}

func TestInsufficientInventoryError(t *testing.T) {
	e := MustNewEntry("user123", "curse", 0, 0)

	err := e.Adjust(-1)

	var insufficient *InsufficientInventoryError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "curse", insufficient.ItemID)
	assert.Equal(t, int64(1), insufficient.Required)
	assert.Equal(t, int64(0), insufficient.Actual)
}
