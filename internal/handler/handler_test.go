package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testEnv carries the shared collaborators handlers need. Call wait before
// asserting on anything written from a background task.
type testEnv struct {
	wg         *sync.WaitGroup
	logger     *slog.Logger
	errHandler *errHandler.ErrorHandler
	helper     *helper.HelperRepository
}

func newTestEnv() *testEnv {
	var wg sync.WaitGroup
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := errHandler.New("", nil, logger)

	return &testEnv{
		wg:         &wg,
		logger:     logger,
		errHandler: e,
		helper:     helper.New("http://localhost:4444", &wg, e),
	}
}

func (e *testEnv) wait() {
	e.wg.Wait()
}

// newRequest builds a JSON request, attaches user (when not nil) and sets
// path values given as name/value pairs.
func newRequest(t *testing.T, method, target string, body any, user *models.User, pathValues ...string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	for i := 0; i+1 < len(pathValues); i += 2 {
		req.SetPathValue(pathValues[i], pathValues[i+1])
	}

	if user != nil {
		req = context.ContextSetAuthenticatedUser(req, user)
	}

	return req
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	return env
}

func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()

	env := decodeEnvelope(t, rr)
	require.NoError(t, json.Unmarshal(env.Data, dst))
}

func testUser(id string) *models.User {
	return &models.User{
		ID:          id,
		Email:       id + "@example.com",
		Name:        "User " + id,
		PhoneNumber: "+15550000000",
		Status:      "active",
		KycStatus:   "unverified",
	}
}

type stubBalances struct {
	balance     decimal.Decimal
	invalidated []string
}

func (s *stubBalances) Balance(string) (decimal.Decimal, error) {
	return s.balance, nil
}

func (s *stubBalances) Invalidate(poolID string) {
	s.invalidated = append(s.invalidated, poolID)
}

func member(groupID, userID, role string) *models.GroupMember {
	return &models.GroupMember{GroupID: groupID, UserID: userID, Role: role}
}
