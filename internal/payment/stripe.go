package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cradoe/splitsy/internal/calculator"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	return &StripeProvider{
		api:           client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProvider) Charge(req *ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(calculator.ToMinorUnits(req.Amount)),
		Currency:      stripe.String(strings.ToLower(req.Currency)),
		PaymentMethod: stripe.String(req.PaymentMethodID),
		Description:   stripe.String(req.Description),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	intent, err := p.api.PaymentIntents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			result := &ChargeResult{Status: ChargeStatusFailed, FailureReason: stripeErr.Msg}
			if stripeErr.PaymentIntent != nil {
				result.Reference = stripeErr.PaymentIntent.ID
			}
			return result, nil
		}
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return chargeResultFromIntent(intent), nil
}

func chargeResultFromIntent(intent *stripe.PaymentIntent) *ChargeResult {
	result := &ChargeResult{Reference: intent.ID}

	switch intent.Status {
	case stripe.PaymentIntentStatusSucceeded:
		result.Status = ChargeStatusSucceeded
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		// ACH debits settle days later and arrive through the webhook
		result.Status = ChargeStatusPending
	default:
		result.Status = ChargeStatusFailed
		result.FailureReason = "payment requires " + strings.ReplaceAll(string(intent.Status), "requires_", "")
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			result.FailureReason = intent.LastPaymentError.Msg
		}
	}

	return result
}

func (p *StripeProvider) CreateCardholder(holder *Cardholder) (string, error) {
	first, last, _ := strings.Cut(holder.Name, " ")

	params := &stripe.IssuingCardholderParams{
		Type:        stripe.String(string(stripe.IssuingCardholderTypeIndividual)),
		Name:        stripe.String(holder.Name),
		Email:       stripe.String(holder.Email),
		PhoneNumber: stripe.String(holder.PhoneNumber),
		Billing: &stripe.IssuingCardholderBillingParams{
			Address: &stripe.AddressParams{
				Line1:      stripe.String(holder.Line1),
				City:       stripe.String(holder.City),
				State:      stripe.String(holder.State),
				PostalCode: stripe.String(holder.PostalCode),
				Country:    stripe.String(holder.Country),
			},
		},
		Individual: &stripe.IssuingCardholderIndividualParams{
			FirstName: stripe.String(first),
			LastName:  stripe.String(last),
			DOB: &stripe.IssuingCardholderIndividualDOBParams{
				Day:   stripe.Int64(int64(holder.DateOfBirth.Day())),
				Month: stripe.Int64(int64(holder.DateOfBirth.Month())),
				Year:  stripe.Int64(int64(holder.DateOfBirth.Year())),
			},
		},
	}

	ch, err := p.api.IssuingCardholders.New(params)
	if err != nil {
		return "", fmt.Errorf("create cardholder: %w", err)
	}

	return ch.ID, nil
}

func (p *StripeProvider) IssueCard(req *CardRequest) (*IssuedCard, error) {
	params := &stripe.IssuingCardParams{
		Cardholder: stripe.String(req.CardholderID),
		Currency:   stripe.String(strings.ToLower(req.Currency)),
		Type:       stripe.String(string(stripe.IssuingCardTypeVirtual)),
		Status:     stripe.String(string(stripe.IssuingCardStatusActive)),
		SpendingControls: &stripe.IssuingCardSpendingControlsParams{
			SpendingLimits: []*stripe.IssuingCardSpendingControlsSpendingLimitParams{
				{
					Amount:   stripe.Int64(calculator.ToMinorUnits(req.SpendingLimit)),
					Interval: stripe.String(string(stripe.IssuingCardSpendingControlsSpendingLimitIntervalAllTime)),
				},
			},
		},
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	card, err := p.api.IssuingCards.New(params)
	if err != nil {
		return nil, fmt.Errorf("issue card: %w", err)
	}

	return &IssuedCard{
		ProviderCardID: card.ID,
		Network:        strings.ToLower(string(card.Brand)),
		Last4:          card.Last4,
	}, nil
}

// UpdateCardStatus maps local card statuses onto the issuer's.
func (p *StripeProvider) UpdateCardStatus(providerCardID, status string) error {
	var issuerStatus stripe.IssuingCardStatus

	switch status {
	case "active":
		issuerStatus = stripe.IssuingCardStatusActive
	case "suspended":
		issuerStatus = stripe.IssuingCardStatusInactive
	case "closed":
		issuerStatus = stripe.IssuingCardStatusCanceled
	default:
		return fmt.Errorf("unknown card status %q", status)
	}

	_, err := p.api.IssuingCards.Update(providerCardID, &stripe.IssuingCardParams{
		Status: stripe.String(string(issuerStatus)),
	})
	if err != nil {
		return fmt.Errorf("update card %s: %w", providerCardID, err)
	}

	return nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the events we act on.
// Other event types come back with only Type set.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	parsed := &WebhookEvent{Type: string(event.Type)}

	switch parsed.Type {
	case EventPaymentSucceeded, EventPaymentFailed:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}

		parsed.PaymentReference = intent.ID
		parsed.Metadata = intent.Metadata
		if intent.LastPaymentError != nil {
			parsed.FailureReason = intent.LastPaymentError.Msg
		}

	case EventIssuingTransaction:
		var trx stripe.IssuingTransaction
		if err := json.Unmarshal(event.Data.Raw, &trx); err != nil {
			return nil, fmt.Errorf("decode issuing transaction: %w", err)
		}

		parsed.Transaction = cardTransactionFromIssuing(&trx)
	}

	return parsed, nil
}

func cardTransactionFromIssuing(trx *stripe.IssuingTransaction) *CardTransaction {
	ct := &CardTransaction{
		Reference: trx.ID,
		// issuing purchases are negative from the cardholder's side
		Amount: calculator.FromMinorUnits(trx.Amount).Abs(),
		Type:   "purchase",
	}

	if trx.Type == stripe.IssuingTransactionTypeRefund {
		ct.Type = "refund"
	}
	if trx.Card != nil {
		ct.ProviderCardID = trx.Card.ID
	}
	if trx.MerchantData != nil {
		ct.MerchantName = trx.MerchantData.Name
	}

	return ct
}
