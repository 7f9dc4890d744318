package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/payment"
	"github.com/cradoe/splitsy/internal/repository"
)

const maxWebhookBytes = 65536

// ContributionSettler moves a pending contribution to its charge outcome.
type ContributionSettler interface {
	Settle(c *models.Contribution, status, reference, failureReason string) (bool, error)
}

type WebhookHandler struct {
	ContributionRepo repository.ContributionRepository
	SplitRepo        repository.SplitRepository
	CardRepo         repository.CardRepository
	TransactionRepo  repository.TransactionRepository
	Settler          ContributionSettler
	Payments         payment.Provider
	ErrHandler       *errHandler.ErrorHandler
	Logger           *slog.Logger
}

func NewWebhookHandler(handler *WebhookHandler) *WebhookHandler {
	return &WebhookHandler{
		ContributionRepo: handler.ContributionRepo,
		SplitRepo:        handler.SplitRepo,
		CardRepo:         handler.CardRepo,
		TransactionRepo:  handler.TransactionRepo,
		Settler:          handler.Settler,
		Payments:         handler.Payments,
		ErrHandler:       handler.ErrHandler,
		Logger:           handler.Logger,
	}
}

// HandleStripeWebhook acknowledges every verified event. Events that refer to
// nothing we know about are logged and dropped rather than retried.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	event, err := h.Payments.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			h.ErrHandler.BadRequest(w, r, err)
			return
		}
		h.ErrHandler.BadRequest(w, r, fmt.Errorf("malformed webhook: %w", err))
		return
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		err = h.reconcilePayment(event, repository.ContributionStatusSucceeded)
	case payment.EventPaymentFailed:
		err = h.reconcilePayment(event, repository.ContributionStatusFailed)
	case payment.EventIssuingTransaction:
		err = h.recordCardTransaction(event.Transaction)
	default:
		h.Logger.Debug("webhook event ignored", "type", event.Type)
	}

	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, nil, "Webhook received")
}

// reconcilePayment settles whichever contribution or split payment carries the
// event's payment reference. Both use the succeeded/failed status names.
func (h *WebhookHandler) reconcilePayment(event *payment.WebhookEvent, status string) error {
	contribution, found, err := h.ContributionRepo.GetByProviderReference(event.PaymentReference)
	if err != nil {
		return err
	}
	if !found {
		contribution, found, err = h.contributionFromMetadata(event)
		if err != nil {
			return err
		}
	}
	if found {
		_, err = h.Settler.Settle(contribution, status, event.PaymentReference, event.FailureReason)
		return err
	}

	splitPayment, found, err := h.SplitRepo.GetPaymentByProviderReference(event.PaymentReference)
	if err != nil {
		return err
	}
	if !found {
		h.Logger.Warn("webhook payment has no matching record", "reference", event.PaymentReference)
		return nil
	}

	if splitPayment.Status != repository.SplitPaymentStatusPending {
		return nil
	}

	err = h.SplitRepo.UpdatePaymentStatus(splitPayment.ID, status)
	if err != nil {
		return err
	}

	if status != repository.SplitPaymentStatusSucceeded {
		return nil
	}

	return markParticipantPaid(h.SplitRepo, splitPayment.ParticipantID)
}

// contributionFromMetadata finds a contribution whose charge never got its
// reference recorded, e.g. when the charge call timed out after the provider
// accepted it.
func (h *WebhookHandler) contributionFromMetadata(event *payment.WebhookEvent) (*models.Contribution, bool, error) {
	id := event.Metadata["contribution_id"]
	if id == "" {
		return nil, false, nil
	}

	contribution, found, err := h.ContributionRepo.GetOne(id)
	if err != nil || !found {
		return nil, false, err
	}
	if contribution.ProviderReference.Valid && contribution.ProviderReference.String != event.PaymentReference {
		h.Logger.Warn("webhook payment does not match contribution reference",
			"contribution_id", id, "reference", event.PaymentReference)
		return nil, false, nil
	}

	return contribution, true, nil
}

func (h *WebhookHandler) recordCardTransaction(trx *payment.CardTransaction) error {
	if trx == nil {
		return nil
	}

	card, found, err := h.CardRepo.GetByProviderCardId(trx.ProviderCardID)
	if err != nil {
		return err
	}
	if !found {
		h.Logger.Warn("card transaction for unknown card", "provider_card_id", trx.ProviderCardID)
		return nil
	}

	inserted, err := h.TransactionRepo.Insert(&models.Transaction{
		PoolID:            card.PoolID,
		CardID:            sql.NullString{String: card.ID, Valid: true},
		Amount:            trx.Amount,
		Type:              trx.Type,
		Status:            repository.TransactionStatusPosted,
		MerchantName:      trx.MerchantName,
		ProviderReference: trx.Reference,
	})
	if err != nil {
		return err
	}

	if !inserted {
		h.Logger.Debug("duplicate card transaction ignored", "reference", trx.Reference)
	}

	return nil
}

// markParticipantPaid records the participant as paid and settles the split
// once nobody is left unpaid.
func markParticipantPaid(splits repository.SplitRepository, participantID string) error {
	err := splits.MarkParticipantPaid(participantID)
	if err != nil {
		return err
	}

	participant, found, err := splits.GetParticipant(participantID)
	if err != nil || !found {
		return err
	}

	_, err = splits.SettleIfComplete(participant.SplitID)
	return err
}
