package handler

import (
	"net/http"

	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
)

type UserHandler struct {
	ErrHandler *errHandler.ErrorHandler
}

func NewUserHandler(handler *UserHandler) *UserHandler {
	return &UserHandler{
		ErrHandler: handler.ErrHandler,
	}
}

func (h *UserHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	writeOK(w, r, h.ErrHandler, user, "Profile fetched successfully")
}
