package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/cradoe/splitsy/internal/calculator"
	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/payment"
	"github.com/cradoe/splitsy/internal/repository"
)

var (
	ErrPayerNotVerified = errors.New("the pool's payer must complete identity verification before a card can be issued")
	ErrPayerNotMember   = errors.New("the pool's payer is no longer a member of the group")
	ErrPoolEmpty        = errors.New("the pool has no funds to spend yet")
	ErrCardNotActive    = errors.New("card is not active")
)

type CardHandler struct {
	GroupRepo        repository.GroupRepository
	PoolRepo         repository.PoolRepository
	CardRepo         repository.CardRepository
	UserRepo         repository.UserRepository
	VerificationRepo repository.VerificationRepository
	ActivityRepo     repository.ActivityRepository
	Balances         BalanceReader
	Payments         payment.Provider
	ErrHandler       *errHandler.ErrorHandler
	Helper           *helper.HelperRepository
}

func NewCardHandler(handler *CardHandler) *CardHandler {
	return &CardHandler{
		GroupRepo:        handler.GroupRepo,
		PoolRepo:         handler.PoolRepo,
		CardRepo:         handler.CardRepo,
		UserRepo:         handler.UserRepo,
		VerificationRepo: handler.VerificationRepo,
		ActivityRepo:     handler.ActivityRepo,
		Balances:         handler.Balances,
		Payments:         handler.Payments,
		ErrHandler:       handler.ErrHandler,
		Helper:           handler.Helper,
	}
}

func (h *CardHandler) access() *groupAccess {
	return &groupAccess{groups: h.GroupRepo, errHandler: h.ErrHandler}
}

// HandleIssueCard issues a virtual card in the name of the pool's payer, the
// designated payer when set and the group owner otherwise.
func (h *CardHandler) HandleIssueCard(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	pool := poolFor(w, r, h.PoolRepo, h.ErrHandler)
	if pool == nil {
		return
	}

	if h.access().manager(w, r, pool.GroupID, user.ID) == nil {
		return
	}

	if pool.Status != repository.PoolStatusOpen {
		h.ErrHandler.Conflict(w, r, ErrPoolClosed)
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

	payerID := group.OwnerID
	if pool.DesignatedPayer.Valid {
		payerID = pool.DesignatedPayer.String
	}

	payer, found, err := h.UserRepo.GetOne(payerID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found || payer.KycStatus != repository.KycStatusVerified {
		h.ErrHandler.Forbidden(w, r, ErrPayerNotVerified)
		return
	}

	payerMembership, found, err := h.GroupRepo.GetMember(group.ID, payerID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.Conflict(w, r, ErrPayerNotMember)
		return
	}

	balance, err := h.Balances.Balance(pool.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !balance.IsPositive() {
		h.ErrHandler.Conflict(w, r, ErrPoolEmpty)
		return
	}

	cardholderID, err := h.cardholderFor(payer)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	limit := calculator.CardLimit(balance, payerMembership.SpendCap)

	issued, err := h.Payments.IssueCard(&payment.CardRequest{
		CardholderID:  cardholderID,
		Currency:      group.Currency,
		SpendingLimit: limit,
		Metadata: map[string]string{
			"pool_id":  pool.ID,
			"group_id": group.ID,
		},
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, fmt.Errorf("issue card for pool %s: %w", pool.ID, err))
		return
	}

	card, err := h.CardRepo.Insert(&models.VirtualCard{
		PoolID:         pool.ID,
		ProviderCardID: issued.ProviderCardID,
		Network:        issued.Network,
		Last4:          issued.Last4,
		Status:         repository.CardStatusActive,
		SpendingLimit:  limit,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.logCardActivity(r, user.ID, card.ID, fmt.Sprintf("Card ending %s issued for pool %s", card.Last4, pool.ID))

	writeCreated(w, r, h.ErrHandler, card, "Card issued successfully")
}

// cardholderFor returns the payer's provider cardholder, creating it from
// their verified identity the first time a card is issued to them.
func (h *CardHandler) cardholderFor(payer *models.User) (string, error) {
	verification, found, err := h.VerificationRepo.GetByUserId(payer.ID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("verified user %s has no verification record", payer.ID)
	}

	if verification.ProviderCardholderID.Valid {
		return verification.ProviderCardholderID.String, nil
	}

	cardholderID, err := h.Payments.CreateCardholder(&payment.Cardholder{
		Name:        verification.LegalName,
		Email:       payer.Email,
		PhoneNumber: payer.PhoneNumber,
		DateOfBirth: verification.DateOfBirth,
		Line1:       verification.AddressLine1,
		City:        verification.City,
		State:       verification.State,
		PostalCode:  verification.PostalCode,
		Country:     verification.Country,
	})
	if err != nil {
		return "", fmt.Errorf("create cardholder for %s: %w", payer.ID, err)
	}

	err = h.VerificationRepo.SetCardholderId(payer.ID, cardholderID)
	if err != nil {
		return "", err
	}

	return cardholderID, nil
}

func (h *CardHandler) HandleListCards(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	pool := poolFor(w, r, h.PoolRepo, h.ErrHandler)
	if pool == nil {
		return
	}

	if h.access().member(w, r, pool.GroupID, user.ID) == nil {
		return
	}

	cards, err := h.CardRepo.GetAllByPoolId(pool.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, cards, "Cards fetched successfully")
}

func (h *CardHandler) HandleTokenizeApplePay(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	card, pool := h.cardFor(w, r)
	if card == nil {
		return
	}

	if h.access().member(w, r, pool.GroupID, user.ID) == nil {
		return
	}

	if card.Status != repository.CardStatusActive {
		h.ErrHandler.Conflict(w, r, ErrCardNotActive)
		return
	}

	if !card.ApplePayTokenized {
		err := h.CardRepo.MarkApplePayTokenized(card.ID)
		if err != nil {
			h.ErrHandler.ServerError(w, r, err)
			return
		}
		card.ApplePayTokenized = true

		h.logCardActivity(r, user.ID, card.ID, "Card added to Apple Pay")
	}

	writeOK(w, r, h.ErrHandler, card, "Card added to Apple Pay")
}

func (h *CardHandler) HandleSuspendCard(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	card, pool := h.cardFor(w, r)
	if card == nil {
		return
	}

	if h.access().manager(w, r, pool.GroupID, user.ID) == nil {
		return
	}

	if card.Status != repository.CardStatusActive {
		h.ErrHandler.Conflict(w, r, ErrCardNotActive)
		return
	}

	err := h.Payments.UpdateCardStatus(card.ProviderCardID, repository.CardStatusSuspended)
	if err != nil {
		h.ErrHandler.ServerError(w, r, fmt.Errorf("suspend card %s: %w", card.ID, err))
		return
	}

	err = h.CardRepo.UpdateStatus(card.ID, repository.CardStatusSuspended)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	card.Status = repository.CardStatusSuspended

	h.logCardActivity(r, user.ID, card.ID, "Card suspended")

	writeOK(w, r, h.ErrHandler, card, "Card suspended successfully")
}

// cardFor loads the card named by the {id} path value together with its pool.
func (h *CardHandler) cardFor(w http.ResponseWriter, r *http.Request) (*models.VirtualCard, *models.Pool) {
	card, found, err := h.CardRepo.GetOne(r.PathValue("id"))
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return nil, nil
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return nil, nil
	}

	pool, found, err := h.PoolRepo.GetOne(card.PoolID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return nil, nil
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return nil, nil
	}

	return card, pool
}

func (h *CardHandler) logCardActivity(r *http.Request, userID, cardID, description string) {
	logActivity(h.Helper, h.ActivityRepo, r, &models.ActivityLog{
		UserID:      sql.NullString{String: userID, Valid: true},
		Entity:      repository.ActivityLogCardEntity,
		EntityId:    cardID,
		Description: description,
	})
}
