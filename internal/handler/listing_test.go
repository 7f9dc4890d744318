package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cradoe/splitsy/internal/mocks"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleHealthCheck(t *testing.T) {
	env := newTestEnv()
	h := NewHealthCheckHandler(&HealthCheckHandler{ErrHandler: env.errHandler})

	rr := httptest.NewRecorder()
	h.HandleHealthCheck(rr, newRequest(t, http.MethodGet, "/status", nil, nil))

	assert.Equal(t, http.StatusOK, rr.Code)

	var data map[string]string
	decodeData(t, rr, &data)
	assert.Equal(t, "available", data["Status"])
}

func TestHandleGetProfile(t *testing.T) {
	env := newTestEnv()
	h := NewUserHandler(&UserHandler{ErrHandler: env.errHandler})

	user := testUser("u1")
	user.HashedPassword = "$2a$12$hash"

	rr := httptest.NewRecorder()
	h.HandleGetProfile(rr, newRequest(t, http.MethodGet, "/me", nil, user))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "$2a$12$hash")

	var got models.User
	decodeData(t, rr, &got)
	assert.Equal(t, "u1@example.com", got.Email)
}

func TestHandleListTransactions(t *testing.T) {
	tests := []struct {
		name       string
		member     bool
		groupFound bool
		wantStatus int
	}{
		{name: "member sees transactions", member: true, wantStatus: http.StatusOK},
		{name: "non-member forbidden", groupFound: true, wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			groups := new(mocks.MockGroupRepo)
			pools := new(mocks.MockPoolRepo)
			transactions := new(mocks.MockTransactionRepo)

			pools.On("GetOne", "p1").Return(openPool("p1"), true, nil)
			if tt.member {
				groups.On("GetMember", "g1", "u1").Return(member("g1", "u1", "member"), true, nil)
				transactions.On("GetAllByPoolId", "p1").Return([]models.Transaction{
					{ID: "t1", PoolID: "p1", Amount: decimal.RequireFromString("42.50"), Type: "purchase", Status: "posted", MerchantName: "Cabin Rentals"},
				}, nil)
			} else {
				groups.On("GetMember", "g1", "u1").Return(nil, false, nil)
				groups.On("GetOne", "g1").Return(&models.Group{ID: "g1"}, tt.groupFound, nil)
			}

			h := NewTransactionHandler(&TransactionHandler{
				GroupRepo:       groups,
				PoolRepo:        pools,
				TransactionRepo: transactions,
				ErrHandler:      env.errHandler,
			})

			rr := httptest.NewRecorder()
			h.HandleListTransactions(rr, newRequest(t, http.MethodGet, "/pools/p1/transactions", nil, testUser("u1"), "id", "p1"))

			assert.Equal(t, tt.wantStatus, rr.Code)
			if !tt.member {
				transactions.AssertNotCalled(t, "GetAllByPoolId", "p1")
				return
			}

			var got []models.Transaction
			decodeData(t, rr, &got)
			require.Len(t, got, 1)
			assert.Equal(t, "Cabin Rentals", got[0].MerchantName)
		})
	}
}

func TestHandleListTransactionsUnknownPool(t *testing.T) {
	env := newTestEnv()
	pools := new(mocks.MockPoolRepo)
	pools.On("GetOne", "missing").Return(nil, false, nil)

	h := NewTransactionHandler(&TransactionHandler{
		GroupRepo:       new(mocks.MockGroupRepo),
		PoolRepo:        pools,
		TransactionRepo: new(mocks.MockTransactionRepo),
		ErrHandler:      env.errHandler,
	})

	rr := httptest.NewRecorder()
	h.HandleListTransactions(rr, newRequest(t, http.MethodGet, "/pools/missing/transactions", nil, testUser("u1"), "id", "missing"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
