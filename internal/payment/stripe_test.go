package payment

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

const testWebhookSecret = "whsec_test"

func signed(t *testing.T, payload string) (*StripeProvider, []byte, string) {
	t.Helper()

	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
	})

	return NewStripeProvider("sk_test_x", testWebhookSecret), sp.Payload, sp.Header
}

func TestParseWebhookPaymentFailed(t *testing.T) {
	p, body, header := signed(t, `{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.payment_failed",
		"data": {"object": {
			"id": "pi_123",
			"object": "payment_intent",
			"status": "requires_payment_method",
			"metadata": {"contribution_id": "c1"},
			"last_payment_error": {"message": "Your card was declined."}
		}}
	}`)

	event, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, event.Type)
	assert.Equal(t, "pi_123", event.PaymentReference)
	assert.Equal(t, "Your card was declined.", event.FailureReason)
	assert.Equal(t, "c1", event.Metadata["contribution_id"])
}

func TestParseWebhookIssuingTransaction(t *testing.T) {
	p, body, header := signed(t, `{
		"id": "evt_2",
		"object": "event",
		"type": "issuing_transaction.created",
		"data": {"object": {
			"id": "ipi_456",
			"object": "issuing.transaction",
			"amount": -4250,
			"type": "capture",
			"card": "ic_789",
			"merchant_data": {"name": "Time Out Market"}
		}}
	}`)

	event, err := p.ParseWebhook(body, header)
	require.NoError(t, err)
	require.NotNil(t, event.Transaction)
	assert.Equal(t, "ipi_456", event.Transaction.Reference)
	assert.Equal(t, "ic_789", event.Transaction.ProviderCardID)
	assert.Equal(t, "purchase", event.Transaction.Type)
	assert.Equal(t, "Time Out Market", event.Transaction.MerchantName)
	assert.True(t, event.Transaction.Amount.Equal(decimal.RequireFromString("42.50")))
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	p, body, _ := signed(t, `{"id": "evt_3", "object": "event", "type": "payment_intent.succeeded", "data": {"object": {}}}`)

	_, err := p.ParseWebhook(body, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestChargeResultFromIntent(t *testing.T) {
	tests := []struct {
		status stripe.PaymentIntentStatus
		want   string
	}{
		{stripe.PaymentIntentStatusSucceeded, ChargeStatusSucceeded},
		{stripe.PaymentIntentStatusProcessing, ChargeStatusPending},
		{stripe.PaymentIntentStatusRequiresPaymentMethod, ChargeStatusFailed},
		{stripe.PaymentIntentStatusRequiresAction, ChargeStatusFailed},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			result := chargeResultFromIntent(&stripe.PaymentIntent{ID: "pi_1", Status: tt.status})
			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, "pi_1", result.Reference)
		})
	}
}
