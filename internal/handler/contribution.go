package handler

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/request"
	"github.com/cradoe/splitsy/internal/response"
	"github.com/cradoe/splitsy/internal/stream"
	"github.com/cradoe/splitsy/internal/validator"
	"github.com/shopspring/decimal"
)

type ContributionHandler struct {
	GroupRepo        repository.GroupRepository
	PoolRepo         repository.PoolRepository
	ContributionRepo repository.ContributionRepository
	ActivityRepo     repository.ActivityRepository
	Producer         stream.Producer
	ErrHandler       *errHandler.ErrorHandler
	Helper           *helper.HelperRepository
}

func NewContributionHandler(handler *ContributionHandler) *ContributionHandler {
	return &ContributionHandler{
		GroupRepo:        handler.GroupRepo,
		PoolRepo:         handler.PoolRepo,
		ContributionRepo: handler.ContributionRepo,
		ActivityRepo:     handler.ActivityRepo,
		Producer:         handler.Producer,
		ErrHandler:       handler.ErrHandler,
		Helper:           handler.Helper,
	}
}

func (h *ContributionHandler) access() *groupAccess {
	return &groupAccess{groups: h.GroupRepo, errHandler: h.ErrHandler}
}

// HandleCreateContribution records a pending contribution and queues the charge.
// The charge worker settles it; the client polls the pool for the outcome.
func (h *ContributionHandler) HandleCreateContribution(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	pool := poolFor(w, r, h.PoolRepo, h.ErrHandler)
	if pool == nil {
		return
	}

	if h.access().member(w, r, pool.GroupID, user.ID) == nil {
		return
	}

	if pool.Status != repository.PoolStatusOpen {
		h.ErrHandler.Conflict(w, r, ErrPoolClosed)
		return
	}

	var input struct {
		Amount          decimal.Decimal     `json:"amount"`
		Method          string              `json:"method"`
		PaymentMethodID string              `json:"payment_method_id"`
		Validator       validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(validator.IsPositiveAmount(input.Amount), "Amount must be a positive amount")
	input.Validator.Check(validator.PermittedValue(input.Method,
		repository.ContributionMethodCard,
		repository.ContributionMethodACH,
		repository.ContributionMethodApplePay,
	), "Method must be one of card, ach or apple_pay")
	input.Validator.Check(validator.NotBlank(input.PaymentMethodID), "Payment method is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	group, found, err := h.GroupRepo.GetOne(pool.GroupID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	contribution, err := h.ContributionRepo.Insert(&models.Contribution{
		PoolID: pool.ID,
		UserID: user.ID,
		Amount: input.Amount,
		Method: input.Method,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	err = stream.Publish(h.Producer, stream.ContributionChargeTopic, stream.ContributionChargeEvent{
		ContributionID:  contribution.ID,
		PoolID:          pool.ID,
		UserID:          user.ID,
		Amount:          contribution.Amount,
		Currency:        group.Currency,
		Method:          contribution.Method,
		PaymentMethodID: input.PaymentMethodID,
	})
	if err != nil {
		// nothing will ever charge it, so it must not stay pending
		_, _ = h.ContributionRepo.UpdateStatus(contribution.ID, repository.ContributionStatusFailed, "", "charge could not be queued")
		h.ErrHandler.ServerError(w, r, fmt.Errorf("queue contribution charge: %w", err))
		return
	}

	logActivity(h.Helper, h.ActivityRepo, r, &models.ActivityLog{
		UserID:      sql.NullString{String: user.ID, Valid: true},
		Entity:      repository.ActivityLogContributionEntity,
		EntityId:    contribution.ID,
		Description: fmt.Sprintf("Contribution of %s to pool %s", contribution.Amount.StringFixed(2), pool.ID),
	})

	err = response.JSONAcceptedResponse(w, contribution, "Contribution received and is being processed")
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}

func (h *ContributionHandler) HandleListContributions(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	pool := poolFor(w, r, h.PoolRepo, h.ErrHandler)
	if pool == nil {
		return
	}

	if h.access().member(w, r, pool.GroupID, user.ID) == nil {
		return
	}

	contributions, err := h.ContributionRepo.GetAllByPoolId(pool.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, contributions, "Contributions fetched successfully")
}
