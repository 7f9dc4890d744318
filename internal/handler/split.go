package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cradoe/splitsy/internal/calculator"
	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/paylink"
	"github.com/cradoe/splitsy/internal/payment"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/request"
	"github.com/cradoe/splitsy/internal/response"
	"github.com/cradoe/splitsy/internal/stream"
	"github.com/cradoe/splitsy/internal/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxSplitParticipants = 50

var (
	ErrAlreadyPaid  = errors.New("this share has already been paid")
	ErrPaymentBusy  = errors.New("a payment for this share is still processing")
	ErrSplitSettled = errors.New("split is already settled")
	ErrMixedAmounts = errors.New("amounts must be given for every participant or for none")
)

// PayLinks signs and resolves participant payment links.
type PayLinks interface {
	Issue(splitID, participantID, tokenID string) (string, error)
	Parse(token string) (*paylink.Claims, error)
	URL(token string) string
}

type SplitHandler struct {
	SplitRepo    repository.SplitRepository
	ActivityRepo repository.ActivityRepository
	Producer     stream.Producer
	Links        PayLinks
	Payments     payment.Provider
	ErrHandler   *errHandler.ErrorHandler
	Helper       *helper.HelperRepository
}

func NewSplitHandler(handler *SplitHandler) *SplitHandler {
	return &SplitHandler{
		SplitRepo:    handler.SplitRepo,
		ActivityRepo: handler.ActivityRepo,
		Producer:     handler.Producer,
		Links:        handler.Links,
		Payments:     handler.Payments,
		ErrHandler:   handler.ErrHandler,
		Helper:       handler.Helper,
	}
}

type splitParticipantInput struct {
	Name        string           `json:"name"`
	PhoneNumber string           `json:"phone_number"`
	Amount      *decimal.Decimal `json:"amount"`
}

func (h *SplitHandler) HandleCreateSplit(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Title        string                  `json:"title"`
		TotalAmount  decimal.Decimal         `json:"total_amount"`
		Currency     string                  `json:"currency"`
		Participants []splitParticipantInput `json:"participants"`
		Validator    validator.Validator     `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Title = strings.TrimSpace(input.Title)
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))

	input.Validator.Check(validator.NotBlank(input.Title), "Title is required")
	input.Validator.Check(validator.MaxRunes(input.Title, 100), "Title must not be more than 100 characters")
	input.Validator.Check(validator.IsPositiveAmount(input.TotalAmount), "Total amount must be a positive amount")
	input.Validator.Check(validator.IsCurrency(input.Currency), "Currency must be a valid ISO 4217 code")
	input.Validator.Check(len(input.Participants) > 0, "At least one participant is required")
	input.Validator.Check(len(input.Participants) <= maxSplitParticipants, fmt.Sprintf("A split can have at most %d participants", maxSplitParticipants))

	for i, p := range input.Participants {
		input.Validator.Check(validator.NotBlank(p.Name), fmt.Sprintf("Participant %d: name is required", i+1))
		input.Validator.Check(validator.Matches(p.PhoneNumber, validator.RgxPhoneNumber), fmt.Sprintf("Participant %d: phone number must be in international format", i+1))
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	shares, err := participantShares(input.TotalAmount, input.Participants)
	if err != nil {
		h.ErrHandler.FailedValidation(w, r, []string{err.Error()})
		return
	}

	split := &models.Split{
		CreatorID:    user.ID,
		Title:        input.Title,
		TotalAmount:  input.TotalAmount,
		Currency:     input.Currency,
		Participants: make([]models.SplitParticipant, 0, len(input.Participants)),
	}
	for i, p := range input.Participants {
		split.Participants = append(split.Participants, models.SplitParticipant{
			Name:        strings.TrimSpace(p.Name),
			PhoneNumber: p.PhoneNumber,
			AmountDue:   shares[i],
			PayTokenID:  uuid.NewString(),
		})
	}

	created, err := h.SplitRepo.Create(split)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	links := make(map[string]string, len(created.Participants))
	for _, participant := range created.Participants {
		link, err := h.notify(user, created, &participant)
		if err != nil {
			// the split exists; a reminder can resend what failed here
			h.ErrHandler.ReportServerError(r, err)
			continue
		}
		links[participant.ID] = link
	}

	logActivity(h.Helper, h.ActivityRepo, r, &models.ActivityLog{
		UserID:      sql.NullString{String: user.ID, Valid: true},
		Entity:      repository.ActivityLogSplitEntity,
		EntityId:    created.ID,
		Description: fmt.Sprintf("Split of %s %s created", created.TotalAmount.StringFixed(2), created.Currency),
	})

	data := map[string]any{
		"split":     created,
		"pay_links": links,
	}

	writeCreated(w, r, h.ErrHandler, data, "Split created successfully")
}

// participantShares resolves each participant's amount due. Amounts are either
// all explicit and must add up to total, or all omitted and split evenly.
func participantShares(total decimal.Decimal, participants []splitParticipantInput) ([]decimal.Decimal, error) {
	given := 0
	for _, p := range participants {
		if p.Amount != nil {
			given++
		}
	}

	switch given {
	case 0:
		return calculator.SplitEvenly(total, len(participants))
	case len(participants):
		shares := make([]decimal.Decimal, len(participants))
		for i, p := range participants {
			if !p.Amount.Equal(p.Amount.Round(2)) {
				return nil, fmt.Errorf("participant %d: amount must have at most two decimal places", i+1)
			}
			shares[i] = *p.Amount
		}
		if err := calculator.ValidateShares(total, shares); err != nil {
			return nil, err
		}
		return shares, nil
	default:
		return nil, ErrMixedAmounts
	}
}

// notify signs the participant's pay link and queues the SMS carrying it.
func (h *SplitHandler) notify(creator *models.User, split *models.Split, participant *models.SplitParticipant) (string, error) {
	token, err := h.Links.Issue(split.ID, participant.ID, participant.PayTokenID)
	if err != nil {
		return "", err
	}
	link := h.Links.URL(token)

	message := fmt.Sprintf("%s asked you to pay %s %s for %q. Pay here: %s",
		creator.Name, participant.AmountDue.StringFixed(2), split.Currency, split.Title, link)

	err = stream.Publish(h.Producer, stream.SplitNotifyTopic, stream.SplitNotifyEvent{
		SplitID:       split.ID,
		ParticipantID: participant.ID,
		PhoneNumber:   participant.PhoneNumber,
		Message:       message,
	})
	if err != nil {
		return "", fmt.Errorf("queue split notification for %s: %w", participant.ID, err)
	}

	return link, nil
}

func (h *SplitHandler) HandleListSplits(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	splits, err := h.SplitRepo.GetAllByCreator(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, splits, "Splits fetched successfully")
}

func (h *SplitHandler) HandleGetSplit(w http.ResponseWriter, r *http.Request) {
	split := h.ownSplit(w, r)
	if split == nil {
		return
	}

	writeOK(w, r, h.ErrHandler, split, "Split fetched successfully")
}

func (h *SplitHandler) HandleRemindSplit(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	split := h.ownSplit(w, r)
	if split == nil {
		return
	}

	if split.Status != repository.SplitStatusOpen {
		h.ErrHandler.Conflict(w, r, ErrSplitSettled)
		return
	}

	reminded := 0
	for _, participant := range split.Participants {
		if participant.Status != repository.ParticipantStatusUnpaid {
			continue
		}

		_, err := h.notify(user, split, &participant)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		reminded++
	}

	writeOK(w, r, h.ErrHandler, map[string]int{"reminded": reminded}, "Reminders sent")
}

// ownSplit loads the split named by the {id} path value. Splits belonging to
// someone else are reported as missing.
func (h *SplitHandler) ownSplit(w http.ResponseWriter, r *http.Request) *models.Split {
	user := context.ContextGetAuthenticatedUser(r)

	split, found, err := h.SplitRepo.GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return nil
	}
	if !found || split.CreatorID != user.ID {
		h.ErrHandler.NotFound(w, r)
		return nil
	}

	return split
}

type payLinkView struct {
	SplitTitle      string          `json:"split_title"`
	Currency        string          `json:"currency"`
	ParticipantName string          `json:"participant_name"`
	AmountDue       decimal.Decimal `json:"amount_due"`
	Status          string          `json:"status"`
}

func (h *SplitHandler) HandleGetPayLink(w http.ResponseWriter, r *http.Request) {
	split, participant := h.resolveLink(w, r)
	if participant == nil {
		return
	}

	writeOK(w, r, h.ErrHandler, &payLinkView{
		SplitTitle:      split.Title,
		Currency:        split.Currency,
		ParticipantName: participant.Name,
		AmountDue:       participant.AmountDue,
		Status:          participant.Status,
	}, "Payment details fetched successfully")
}

func (h *SplitHandler) HandlePayLink(w http.ResponseWriter, r *http.Request) {
	split, participant := h.resolveLink(w, r)
	if participant == nil {
		return
	}

	var input struct {
		PaymentMethodID string              `json:"payment_method_id"`
		Validator       validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.NotBlank(input.PaymentMethodID), "Payment method is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	if participant.Status == repository.ParticipantStatusPaid {
		h.ErrHandler.Conflict(w, r, ErrAlreadyPaid)
		return
	}

	pending, err := h.SplitRepo.HasPendingPayment(participant.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if pending {
		h.ErrHandler.Conflict(w, r, ErrPaymentBusy)
		return
	}

	result, err := h.Payments.Charge(&payment.ChargeRequest{
		Amount:          participant.AmountDue,
		Currency:        split.Currency,
		PaymentMethodID: input.PaymentMethodID,
		Description:     fmt.Sprintf("Splitsy: %s", split.Title),
		IdempotencyKey:  payLinkChargeKey(participant, input.PaymentMethodID),
		Metadata: map[string]string{
			"split_id":       split.ID,
			"participant_id": participant.ID,
		},
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, fmt.Errorf("charge split participant %s: %w", participant.ID, err))
		return
	}

	splitPayment := &models.SplitPayment{
		ParticipantID:     participant.ID,
		Amount:            participant.AmountDue,
		ProviderReference: result.Reference,
		Status:            splitPaymentStatus(result.Status),
	}

	err = h.SplitRepo.InsertPayment(splitPayment)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	switch splitPayment.Status {
	case repository.SplitPaymentStatusFailed:
		h.ErrHandler.PaymentFailed(w, r, result.FailureReason)
	case repository.SplitPaymentStatusPending:
		err = response.JSONAcceptedResponse(w, splitPayment, "Payment is processing")
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
		}
	default:
		err = markParticipantPaid(h.SplitRepo, participant.ID)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}

		writeOK(w, r, h.ErrHandler, splitPayment, "Payment successful")
	}
}

// resolveLink validates the {token} path value and loads what it points to.
// A link stops working once its participant's pay token is rotated.
func (h *SplitHandler) resolveLink(w http.ResponseWriter, r *http.Request) (*models.Split, *models.SplitParticipant) {
	claims, err := h.Links.Parse(r.PathValue("token"))
	if err != nil {
		h.ErrHandler.NotFound(w, r)
		return nil, nil
	}

	participant, found, err := h.SplitRepo.GetParticipant(claims.ParticipantID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return nil, nil
	}
	if !found || participant.SplitID != claims.SplitID || participant.PayTokenID != claims.ID {
		h.ErrHandler.NotFound(w, r)
		return nil, nil
	}

	split, found, err := h.SplitRepo.GetOne(participant.SplitID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return nil, nil
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return nil, nil
	}

	return split, participant
}

// payLinkChargeKey makes concurrent submits of the same link and card collapse
// into one provider charge. A different card gets a fresh attempt.
func payLinkChargeKey(participant *models.SplitParticipant, paymentMethodID string) string {
	return fmt.Sprintf("split-payment:%s:%s:%s", participant.ID, participant.PayTokenID, paymentMethodID)
}

func splitPaymentStatus(chargeStatus string) string {
	switch chargeStatus {
	case payment.ChargeStatusSucceeded:
		return repository.SplitPaymentStatusSucceeded
	case payment.ChargeStatusFailed:
		return repository.SplitPaymentStatusFailed
	default:
		return repository.SplitPaymentStatusPending
	}
}
