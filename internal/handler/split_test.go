package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cradoe/splitsy/internal/mocks"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/paylink"
	"github.com/cradoe/splitsy/internal/payment"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/stream"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type splitFixture struct {
	env      *testEnv
	splits   *mocks.MockSplitRepo
	producer *mocks.MockProducer
	payments *mocks.MockPaymentProvider
	links    *paylink.Signer
	handler  *SplitHandler
}

func newSplitFixture() *splitFixture {
	f := &splitFixture{
		env:      newTestEnv(),
		splits:   new(mocks.MockSplitRepo),
		producer: new(mocks.MockProducer),
		payments: new(mocks.MockPaymentProvider),
		links:    paylink.NewSigner("pay_secret", time.Hour, "http://localhost:4444"),
	}

	activity := new(mocks.MockActivityRepo)
	activity.On("Insert", mock.Anything).Return(nil, nil)

	f.handler = NewSplitHandler(&SplitHandler{
		SplitRepo:    f.splits,
		ActivityRepo: activity,
		Producer:     f.producer,
		Links:        f.links,
		Payments:     f.payments,
		ErrHandler:   f.env.errHandler,
		Helper:       f.env.helper,
	})

	return f
}

func TestHandleCreateSplit_EvenShares(t *testing.T) {
	f := newSplitFixture()

	var created *models.Split
	f.splits.On("Create", mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(0).(*models.Split)
		created.ID = "s1"
		for i := range created.Participants {
			created.Participants[i].ID = "pt" + string(rune('1'+i))
			created.Participants[i].SplitID = "s1"
		}
	}).Return(func(s *models.Split) *models.Split { return s }, nil)

	var events []stream.SplitNotifyEvent
	f.producer.On("ProduceMessage", stream.SplitNotifyTopic, mock.Anything).Run(func(args mock.Arguments) {
		var e stream.SplitNotifyEvent
		_ = json.Unmarshal([]byte(args.String(1)), &e)
		events = append(events, e)
	}).Return(nil)

	rr := httptest.NewRecorder()
	f.handler.HandleCreateSplit(rr, newRequest(t, http.MethodPost, "/splits", map[string]any{
		"title":        "Dinner",
		"total_amount": "100.00",
		"currency":     "usd",
		"participants": []map[string]any{
			{"name": "Ann", "phone_number": "+15550000001"},
			{"name": "Ben", "phone_number": "+15550000002"},
			{"name": "Cal", "phone_number": "+15550000003"},
		},
	}, testUser("u1")))
	f.env.wait()

	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, created)

	assert.Equal(t, "USD", created.Currency)
	require.Len(t, created.Participants, 3)
	assert.Equal(t, "33.34", created.Participants[0].AmountDue.StringFixed(2))
	assert.Equal(t, "33.33", created.Participants[1].AmountDue.StringFixed(2))
	assert.Equal(t, "33.33", created.Participants[2].AmountDue.StringFixed(2))
	assert.NotEqual(t, created.Participants[0].PayTokenID, created.Participants[1].PayTokenID)

	require.Len(t, events, 3)
	assert.Equal(t, "+15550000001", events[0].PhoneNumber)
	assert.Contains(t, events[0].Message, "http://localhost:4444/pay/")

	var data struct {
		PayLinks map[string]string `json:"pay_links"`
	}
	decodeData(t, rr, &data)
	assert.Len(t, data.PayLinks, 3)
}

func TestHandleCreateSplit_InvalidShares(t *testing.T) {
	tests := []struct {
		name         string
		participants []map[string]any
	}{
		{
			name: "amounts do not add up",
			participants: []map[string]any{
				{"name": "Ann", "phone_number": "+15550000001", "amount": "40"},
				{"name": "Ben", "phone_number": "+15550000002", "amount": "40"},
			},
		},
		{
			name: "mixed amounts",
			participants: []map[string]any{
				{"name": "Ann", "phone_number": "+15550000001", "amount": "40"},
				{"name": "Ben", "phone_number": "+15550000002"},
			},
		},
		{
			name: "bad phone number",
			participants: []map[string]any{
				{"name": "Ann", "phone_number": "555-0001"},
			},
		},
		{
			name:         "no participants",
			participants: []map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSplitFixture()

			rr := httptest.NewRecorder()
			f.handler.HandleCreateSplit(rr, newRequest(t, http.MethodPost, "/splits", map[string]any{
				"title":        "Dinner",
				"total_amount": "100",
				"currency":     "USD",
				"participants": tt.participants,
			}, testUser("u1")))

			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			f.splits.AssertNotCalled(t, "Create", mock.Anything)
		})
	}
}

func TestHandleGetSplit_OtherCreator(t *testing.T) {
	f := newSplitFixture()
	f.splits.On("GetOne", "s1").Return(&models.Split{ID: "s1", CreatorID: "u2"}, true, nil)

	rr := httptest.NewRecorder()
	f.handler.HandleGetSplit(rr, newRequest(t, http.MethodGet, "/splits/s1", nil, testUser("u1"), "id", "s1"))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleRemindSplit(t *testing.T) {
	f := newSplitFixture()
	f.splits.On("GetOne", "s1").Return(&models.Split{
		ID:        "s1",
		CreatorID: "u1",
		Title:     "Dinner",
		Currency:  "USD",
		Status:    repository.SplitStatusOpen,
		Participants: []models.SplitParticipant{
			{ID: "pt1", SplitID: "s1", PhoneNumber: "+15550000001", Status: repository.ParticipantStatusPaid, PayTokenID: "tok1"},
			{ID: "pt2", SplitID: "s1", PhoneNumber: "+15550000002", Status: repository.ParticipantStatusUnpaid, PayTokenID: "tok2"},
		},
	}, true, nil)
	f.producer.On("ProduceMessage", stream.SplitNotifyTopic, mock.MatchedBy(func(msg string) bool {
		return strings.Contains(msg, `"participant_id":"pt2"`)
	})).Return(nil).Once()

	rr := httptest.NewRecorder()
	f.handler.HandleRemindSplit(rr, newRequest(t, http.MethodPost, "/splits/s1/remind", nil, testUser("u1"), "id", "s1"))

	require.Equal(t, http.StatusOK, rr.Code)

	var data map[string]int
	decodeData(t, rr, &data)
	assert.Equal(t, 1, data["reminded"])
	f.producer.AssertExpectations(t)
}

func TestHandleRemindSplit_Settled(t *testing.T) {
	f := newSplitFixture()
	f.splits.On("GetOne", "s1").Return(&models.Split{ID: "s1", CreatorID: "u1", Status: repository.SplitStatusSettled}, true, nil)

	rr := httptest.NewRecorder()
	f.handler.HandleRemindSplit(rr, newRequest(t, http.MethodPost, "/splits/s1/remind", nil, testUser("u1"), "id", "s1"))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

// payLinkFor issues a real pay link for participant pt1 of split s1.
func (f *splitFixture) payLinkFor(t *testing.T, status string) string {
	t.Helper()

	token, err := f.links.Issue("s1", "pt1", "tok1")
	require.NoError(t, err)

	f.splits.On("GetParticipant", "pt1").Return(&models.SplitParticipant{
		ID:         "pt1",
		SplitID:    "s1",
		Name:       "Ann",
		AmountDue:  decimal.RequireFromString("33.34"),
		Status:     status,
		PayTokenID: "tok1",
	}, true, nil)
	f.splits.On("GetOne", "s1").Return(&models.Split{ID: "s1", Title: "Dinner", Currency: "USD"}, true, nil)

	return token
}

func TestHandleGetPayLink(t *testing.T) {
	f := newSplitFixture()
	token := f.payLinkFor(t, repository.ParticipantStatusUnpaid)

	rr := httptest.NewRecorder()
	f.handler.HandleGetPayLink(rr, newRequest(t, http.MethodGet, "/pay/"+token, nil, nil, "token", token))

	require.Equal(t, http.StatusOK, rr.Code)

	var view payLinkView
	decodeData(t, rr, &view)
	assert.Equal(t, "Dinner", view.SplitTitle)
	assert.Equal(t, "33.34", view.AmountDue.StringFixed(2))
}

func TestHandleGetPayLink_RejectsBadTokens(t *testing.T) {
	f := newSplitFixture()

	rotated, err := f.links.Issue("s1", "pt1", "old-token")
	require.NoError(t, err)
	f.splits.On("GetParticipant", "pt1").Return(&models.SplitParticipant{ID: "pt1", SplitID: "s1", PayTokenID: "tok1"}, true, nil)

	for _, token := range []string{"garbage", rotated} {
		rr := httptest.NewRecorder()
		f.handler.HandleGetPayLink(rr, newRequest(t, http.MethodGet, "/pay/x", nil, nil, "token", token))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	}
}

func TestHandlePayLink(t *testing.T) {
	tests := []struct {
		name         string
		chargeStatus string
		wantStatus   int
		wantPaid     bool
	}{
		{name: "succeeded", chargeStatus: payment.ChargeStatusSucceeded, wantStatus: http.StatusOK, wantPaid: true},
		{name: "declined", chargeStatus: payment.ChargeStatusFailed, wantStatus: http.StatusPaymentRequired},
		{name: "processing", chargeStatus: payment.ChargeStatusPending, wantStatus: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSplitFixture()
			token := f.payLinkFor(t, repository.ParticipantStatusUnpaid)

			f.splits.On("HasPendingPayment", "pt1").Return(false, nil)
			f.payments.On("Charge", mock.MatchedBy(func(req *payment.ChargeRequest) bool {
				return req.Amount.Equal(decimal.RequireFromString("33.34")) && req.Currency == "USD" &&
					req.PaymentMethodID == "pm_card_visa" && req.IdempotencyKey != ""
			})).Return(&payment.ChargeResult{Reference: "pi_9", Status: tt.chargeStatus, FailureReason: "card_declined"}, nil)
			f.splits.On("InsertPayment", mock.MatchedBy(func(p *models.SplitPayment) bool {
				return p.ParticipantID == "pt1" && p.ProviderReference == "pi_9"
			})).Return(nil)
			f.splits.On("MarkParticipantPaid", "pt1").Return(nil)
			f.splits.On("SettleIfComplete", "s1").Return(true, nil)

			rr := httptest.NewRecorder()
			f.handler.HandlePayLink(rr, newRequest(t, http.MethodPost, "/pay/"+token, map[string]string{
				"payment_method_id": "pm_card_visa",
			}, nil, "token", token))

			require.Equal(t, tt.wantStatus, rr.Code)
			f.splits.AssertCalled(t, "InsertPayment", mock.Anything)
			if tt.wantPaid {
				f.splits.AssertCalled(t, "MarkParticipantPaid", "pt1")
				f.splits.AssertCalled(t, "SettleIfComplete", "s1")
			} else {
				f.splits.AssertNotCalled(t, "MarkParticipantPaid", mock.Anything)
			}
		})
	}
}

func TestHandlePayLink_AlreadyPaid(t *testing.T) {
	f := newSplitFixture()
	token := f.payLinkFor(t, repository.ParticipantStatusPaid)

	rr := httptest.NewRecorder()
	f.handler.HandlePayLink(rr, newRequest(t, http.MethodPost, "/pay/"+token, map[string]string{
		"payment_method_id": "pm_card_visa",
	}, nil, "token", token))

	assert.Equal(t, http.StatusConflict, rr.Code)
	f.payments.AssertNotCalled(t, "Charge", mock.Anything)
}

func TestHandlePayLink_RefusesWhilePaymentProcessing(t *testing.T) {
	f := newSplitFixture()
	token := f.payLinkFor(t, repository.ParticipantStatusUnpaid)

	f.splits.On("HasPendingPayment", "pt1").Return(false, nil).Once()
	f.splits.On("HasPendingPayment", "pt1").Return(true, nil)
	f.payments.On("Charge", mock.Anything).
		Return(&payment.ChargeResult{Reference: "pi_9", Status: payment.ChargeStatusPending}, nil)
	f.splits.On("InsertPayment", mock.Anything).Return(nil)

	pay := func() int {
		rr := httptest.NewRecorder()
		f.handler.HandlePayLink(rr, newRequest(t, http.MethodPost, "/pay/"+token, map[string]string{
			"payment_method_id": "pm_card_visa",
		}, nil, "token", token))
		return rr.Code
	}

	assert.Equal(t, http.StatusAccepted, pay())
	assert.Equal(t, http.StatusConflict, pay())
	f.payments.AssertNumberOfCalls(t, "Charge", 1)
	f.splits.AssertNotCalled(t, "MarkParticipantPaid", mock.Anything)
}

func TestHandlePayLink_ChargeKeyIsStablePerCard(t *testing.T) {
	f := newSplitFixture()
	token := f.payLinkFor(t, repository.ParticipantStatusUnpaid)

	f.splits.On("HasPendingPayment", "pt1").Return(false, nil)
	f.payments.On("Charge", mock.Anything).
		Return(&payment.ChargeResult{Reference: "pi_9", Status: payment.ChargeStatusFailed, FailureReason: "card_declined"}, nil)
	f.splits.On("InsertPayment", mock.Anything).Return(nil)

	for _, pm := range []string{"pm_card_visa", "pm_card_visa", "pm_card_mastercard"} {
		rr := httptest.NewRecorder()
		f.handler.HandlePayLink(rr, newRequest(t, http.MethodPost, "/pay/"+token, map[string]string{
			"payment_method_id": pm,
		}, nil, "token", token))
		require.Equal(t, http.StatusPaymentRequired, rr.Code)
	}

	var keys []string
	for _, call := range f.payments.Calls {
		keys = append(keys, call.Arguments.Get(0).(*payment.ChargeRequest).IdempotencyKey)
	}
	require.Len(t, keys, 3)
	assert.Equal(t, keys[0], keys[1])
	assert.NotEqual(t, keys[0], keys[2])
}
