package handler

import (
	"net/http"

	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/repository"
)

type TransactionHandler struct {
	GroupRepo       repository.GroupRepository
	PoolRepo        repository.PoolRepository
	TransactionRepo repository.TransactionRepository
	ErrHandler      *errHandler.ErrorHandler
}

func NewTransactionHandler(handler *TransactionHandler) *TransactionHandler {
	return &TransactionHandler{
		GroupRepo:       handler.GroupRepo,
		PoolRepo:        handler.PoolRepo,
		TransactionRepo: handler.TransactionRepo,
		ErrHandler:      handler.ErrHandler,
	}
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	pool := poolFor(w, r, h.PoolRepo, h.ErrHandler)
	if pool == nil {
		return
	}

	access := &groupAccess{groups: h.GroupRepo, errHandler: h.ErrHandler}
	if access.member(w, r, pool.GroupID, user.ID) == nil {
		return
	}

	transactions, err := h.TransactionRepo.GetAllByPoolId(pool.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, transactions, "Transactions fetched successfully")
}
