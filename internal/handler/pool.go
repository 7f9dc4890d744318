package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/cradoe/splitsy/internal/calculator"
	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/payment"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/request"
	"github.com/cradoe/splitsy/internal/validator"
	"github.com/shopspring/decimal"
)

type PoolHandler struct {
	GroupRepo    repository.GroupRepository
	PoolRepo     repository.PoolRepository
	CardRepo     repository.CardRepository
	ActivityRepo repository.ActivityRepository
	Balances     BalanceReader
	Payments     payment.Provider
	ErrHandler   *errHandler.ErrorHandler
	Helper       *helper.HelperRepository
}

func NewPoolHandler(handler *PoolHandler) *PoolHandler {
	return &PoolHandler{
		GroupRepo:    handler.GroupRepo,
		PoolRepo:     handler.PoolRepo,
		CardRepo:     handler.CardRepo,
		ActivityRepo: handler.ActivityRepo,
		Balances:     handler.Balances,
		Payments:     handler.Payments,
		ErrHandler:   handler.ErrHandler,
		Helper:       handler.Helper,
	}
}

func (h *PoolHandler) access() *groupAccess {
	return &groupAccess{groups: h.GroupRepo, errHandler: h.ErrHandler}
}

func (h *PoolHandler) HandleCreatePool(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	groupID := r.PathValue("id")

	if h.access().manager(w, r, groupID, user.ID) == nil {
		return
	}

	var input struct {
		Name            string              `json:"name"`
		TargetAmount    decimal.Decimal     `json:"target_amount"`
		DesignatedPayer string              `json:"designated_payer"`
		Validator       validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Name = strings.TrimSpace(input.Name)

	input.Validator.Check(validator.NotBlank(input.Name), "Name is required")
	input.Validator.Check(validator.MaxRunes(input.Name, 100), "Name must not be more than 100 characters")
	input.Validator.Check(validator.IsPositiveAmount(input.TargetAmount), "Target amount must be a positive amount")

	if input.DesignatedPayer != "" {
		_, found, err := h.GroupRepo.GetMember(groupID, input.DesignatedPayer)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		input.Validator.Check(found, "Designated payer must be a member of the group")
	}

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	pool, err := h.PoolRepo.Insert(&models.Pool{
		GroupID:         groupID,
		Name:            input.Name,
		TargetAmount:    input.TargetAmount,
		DesignatedPayer: sql.NullString{String: input.DesignatedPayer, Valid: input.DesignatedPayer != ""},
		CreatedBy:       user.ID,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.logPoolActivity(r, user.ID, pool.ID, "Pool created")

	writeCreated(w, r, h.ErrHandler, newPoolView(pool, decimal.Zero), "Pool created successfully")
}

func (h *PoolHandler) HandleListPools(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	groupID := r.PathValue("id")

	if h.access().member(w, r, groupID, user.ID) == nil {
		return
	}

	pools, err := h.PoolRepo.GetAllByGroupId(groupID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	views := make([]*models.PoolView, 0, len(pools))
	for i := range pools {
		balance, err := h.Balances.Balance(pools[i].ID)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		views = append(views, newPoolView(&pools[i], balance))
	}

	writeOK(w, r, h.ErrHandler, views, "Pools fetched successfully")
}

func (h *PoolHandler) HandleGetPool(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	pool := poolFor(w, r, h.PoolRepo, h.ErrHandler)
	if pool == nil {
		return
	}

	if h.access().member(w, r, pool.GroupID, user.ID) == nil {
		return
	}

	balance, err := h.Balances.Balance(pool.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, newPoolView(pool, balance), "Pool fetched successfully")
}

// HandleClosePool suspends the pool's active cards before closing it, so a
// provider failure leaves the pool open and the request can be retried.
func (h *PoolHandler) HandleClosePool(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	pool := poolFor(w, r, h.PoolRepo, h.ErrHandler)
	if pool == nil {
		return
	}

	if h.access().manager(w, r, pool.GroupID, user.ID) == nil {
		return
	}

	if pool.Status == repository.PoolStatusClosed {
		h.ErrHandler.Conflict(w, r, ErrPoolAlreadyClosed)
		return
	}

	cards, err := h.CardRepo.GetAllByPoolId(pool.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	for _, card := range cards {
		if card.Status != repository.CardStatusActive {
			continue
		}

		err = h.Payments.UpdateCardStatus(card.ProviderCardID, repository.CardStatusSuspended)
		if err != nil {
			h.ErrHandler.ServerError(w, r, fmt.Errorf("suspend card %s: %w", card.ID, err))
			return
		}

		err = h.CardRepo.UpdateStatus(card.ID, repository.CardStatusSuspended)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
	}

	closed, err := h.PoolRepo.Close(pool.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !closed {
		h.ErrHandler.Conflict(w, r, ErrPoolAlreadyClosed)
		return
	}

	h.logPoolActivity(r, user.ID, pool.ID, "Pool closed")

	pool.Status = repository.PoolStatusClosed

	balance, err := h.Balances.Balance(pool.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, newPoolView(pool, balance), "Pool closed successfully")
}

func (h *PoolHandler) logPoolActivity(r *http.Request, userID, poolID, description string) {
	logActivity(h.Helper, h.ActivityRepo, r, &models.ActivityLog{
		UserID:      sql.NullString{String: userID, Valid: true},
		Entity:      repository.ActivityLogPoolEntity,
		EntityId:    poolID,
		Description: description,
	})
}

func newPoolView(pool *models.Pool, balance decimal.Decimal) *models.PoolView {
	view := &models.PoolView{
		Pool:      pool,
		Balance:   balance,
		Remaining: calculator.Remaining(balance, pool.TargetAmount),
		Funded:    calculator.Funded(balance, pool.TargetAmount),
	}
	if pool.DesignatedPayer.Valid {
		view.DesignatedPayer = &pool.DesignatedPayer.String
	}
	if pool.ClosedAt.Valid {
		view.ClosedAt = &pool.ClosedAt.Time
	}

	return view
}
