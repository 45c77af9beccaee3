package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	ledgerapp "gamebot-server/internal/application/ledger"
	"gamebot-server/internal/domain/balance"
	"gamebot-server/internal/domain/transaction"
)

func TestLedgerHandler_GetBalance(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		setupMock      func(*MockLedgerService)
		expectedStatus int
		expectedBody   map[string]interface{}
	}{
		{
			name:   "正常系: 残高取得成功",
			userID: "user123",
			setupMock: func(m *MockLedgerService) {
				m.On("GetBalance", mock.Anything, "user123").Return(&ledgerapp.GetBalanceResponse{
					UserID:  "user123",
					Balance: 250,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody: map[string]interface{}{
				"user_id": "user123",
				"balance": float64(250),
			},
		},
		{
			name:           "異常系: user_idが空",
			userID:         "",
			setupMock:      func(m *MockLedgerService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "異常系: ストア障害",
			userID: "user123",
			setupMock: func(m *MockLedgerService) {
				m.On("GetBalance", mock.Anything, "user123").
					Return(nil, transaction.NewStoreError("get balance", errors.New("disk I/O error")))
			},
			expectedStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLedgerService)
			tt.setupMock(svc)
			h := NewLedgerHandler(svc)

			rec := serve(t, h.GetBalance, http.MethodGet, "/api/v1/users/"+tt.userID+"/balance", "", map[string]string{"user_id": tt.userID})

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedBody != nil {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.expectedBody, body)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestLedgerHandler_AdjustBalance(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockLedgerService)
		expectedStatus int
	}{
		{
			name: "正常系: 正のdeltaはgrantとして記録される",
			body: `{"delta":100}`,
			setupMock: func(m *MockLedgerService) {
				m.On("AdjustBalance", mock.Anything, mock.MatchedBy(func(req *ledgerapp.AdjustBalanceRequest) bool {
					return req.UserID == "user123" && req.Delta == 100 &&
						req.Type == transaction.TransactionTypeGrant &&
						req.Metadata["source"] == "admin_api"
				})).Return(&ledgerapp.BalanceChange{TransactionID: "txn1", UserID: "user123", BalanceBefore: 0, BalanceAfter: 100}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "正常系: 負のdeltaはconsumeとして記録される",
			body: `{"delta":-30,"metadata":{"reason":"fix"}}`,
			setupMock: func(m *MockLedgerService) {
				m.On("AdjustBalance", mock.Anything, mock.MatchedBy(func(req *ledgerapp.AdjustBalanceRequest) bool {
					return req.Delta == -30 && req.Type == transaction.TransactionTypeConsume &&
						req.Metadata["reason"] == "fix"
				})).Return(&ledgerapp.BalanceChange{TransactionID: "txn2", UserID: "user123", BalanceBefore: 100, BalanceAfter: 70}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "正常系: typeを明示",
			body: `{"delta":50,"type":"winnings"}`,
			setupMock: func(m *MockLedgerService) {
				m.On("AdjustBalance", mock.Anything, mock.MatchedBy(func(req *ledgerapp.AdjustBalanceRequest) bool {
					return req.Type == transaction.TransactionTypeWinnings
				})).Return(&ledgerapp.BalanceChange{TransactionID: "txn3", UserID: "user123", BalanceAfter: 50}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "異常系: 不明なtype",
			body:           `{"delta":50,"type":"bogus"}`,
			setupMock:      func(m *MockLedgerService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "異常系: 不正なJSON",
			body:           `{"delta":`,
			setupMock:      func(m *MockLedgerService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "異常系: 残高不足",
			body: `{"delta":-500}`,
			setupMock: func(m *MockLedgerService) {
				m.On("AdjustBalance", mock.Anything, mock.Anything).
					Return(nil, &balance.InsufficientFundsError{Required: 500, Actual: 100})
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockLedgerService)
			tt.setupMock(svc)
			h := NewLedgerHandler(svc)

			rec := serve(t, h.AdjustBalance, http.MethodPost, "/admin/users/user123/adjust", tt.body, map[string]string{"user_id": "user123"})

			assert.Equal(t, tt.expectedStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestLedgerHandler_SetBalance(t *testing.T) {
	svc := new(MockLedgerService)
	svc.On("SetBalance", mock.Anything, mock.MatchedBy(func(req *ledgerapp.SetBalanceRequest) bool {
		return req.UserID == "user123" && req.Amount == 1000
	})).Return(&ledgerapp.BalanceChange{TransactionID: "txn1", UserID: "user123", BalanceBefore: 20, BalanceAfter: 1000}, nil)
	h := NewLedgerHandler(svc)

	rec := serve(t, h.SetBalance, http.MethodPut, "/admin/users/user123/balance", `{"amount":1000}`, map[string]string{"user_id": "user123"})

	require.Equal(t, http.StatusOK, rec.Code)
	var body BalanceChangeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, BalanceChangeResponse{TransactionID: "txn1", UserID: "user123", BalanceBefore: 20, BalanceAfter: 1000}, body)
	svc.AssertExpectations(t)
}
