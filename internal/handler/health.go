package handler

import (
	"net/http"

	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/response"
	"github.com/cradoe/splitsy/internal/version"
)

type HealthCheckHandler struct {
	ErrHandler *errHandler.ErrorHandler
}

func NewHealthCheckHandler(handler *HealthCheckHandler) *HealthCheckHandler {
	return &HealthCheckHandler{
		ErrHandler: handler.ErrHandler,
	}
}

func (h *HealthCheckHandler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	data := map[string]string{
		"Status":  "available",
		"Version": version.Get(),
	}

	err := response.JSONOkResponse(w, data, "Up and grateful", nil)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
	}
}
