package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/request"
	"github.com/cradoe/splitsy/internal/validator"
)

var ErrAccountNotLocked = errors.New("account is not locked")

// KillSwitch reads and flips the global flag that gates non-admin traffic.
type KillSwitch interface {
	Enabled() (bool, error)
	Set(enabled bool, adminID string) error
}

type AdminHandler struct {
	KillSwitch      KillSwitch
	UserRepo        repository.UserRepository
	ActivityRepo    repository.ActivityRepository
	AdminActionRepo repository.AdminActionRepository
	ErrHandler      *errHandler.ErrorHandler
	Helper          *helper.HelperRepository
}

func NewAdminHandler(handler *AdminHandler) *AdminHandler {
	return &AdminHandler{
		KillSwitch:      handler.KillSwitch,
		UserRepo:        handler.UserRepo,
		ActivityRepo:    handler.ActivityRepo,
		AdminActionRepo: handler.AdminActionRepo,
		ErrHandler:      handler.ErrHandler,
		Helper:          handler.Helper,
	}
}

func (h *AdminHandler) HandleGetKillSwitch(w http.ResponseWriter, r *http.Request) {
	enabled, err := h.KillSwitch.Enabled()
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, map[string]bool{"enabled": enabled}, "Kill switch fetched successfully")
}

func (h *AdminHandler) HandleSetKillSwitch(w http.ResponseWriter, r *http.Request) {
	admin := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Enabled   *bool               `json:"enabled"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Validator.Check(input.Enabled != nil, "Enabled is required")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	err = h.KillSwitch.Set(*input.Enabled, admin.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	logAdminAction(h.Helper, h.AdminActionRepo, r, &models.AdminAction{
		AdminID:    admin.ID,
		Action:     repository.AdminActionKillSwitch,
		TargetType: "setting",
		TargetID:   repository.SettingKillSwitch,
		Details:    strconv.FormatBool(*input.Enabled),
	})

	message := "Kill switch disabled"
	if *input.Enabled {
		message = "Kill switch enabled"
	}

	writeOK(w, r, h.ErrHandler, map[string]bool{"enabled": *input.Enabled}, message)
}

func (h *AdminHandler) HandleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := retrieveUrlQueryValues(r)

	logs, err := h.ActivityRepo.List(query.listFilter())
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, logs, "Audit logs fetched successfully")
}

func (h *AdminHandler) HandleListAdminActions(w http.ResponseWriter, r *http.Request) {
	query := retrieveUrlQueryValues(r)

	actions, err := h.AdminActionRepo.List(query.listFilter())
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, actions, "Admin actions fetched successfully")
}

func (h *AdminHandler) HandleUnlockUser(w http.ResponseWriter, r *http.Request) {
	admin := context.ContextGetAuthenticatedUser(r)
	userID := r.PathValue("id")

	user, found, err := h.UserRepo.GetOne(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if user.Status != repository.UserAccountLockedStatus {
		h.ErrHandler.Conflict(w, r, ErrAccountNotLocked)
		return
	}

	err = h.UserRepo.Unlock(userID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	// a "Login" entry ends the run of failures, so the next bad password starts a fresh count
	logActivity(h.Helper, h.ActivityRepo, r, userActivity(userID, UserActivityLogUnlockedDescription))

	logAdminAction(h.Helper, h.AdminActionRepo, r, &models.AdminAction{
		AdminID:    admin.ID,
		Action:     repository.AdminActionUnlockUser,
		TargetType: repository.ActivityLogUserEntity,
		TargetID:   userID,
	})

	user.Status = repository.UserAccountActiveStatus

	writeOK(w, r, h.ErrHandler, user, "Account unlocked successfully")
}
