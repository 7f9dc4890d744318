package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/helper"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/request"
	"github.com/cradoe/splitsy/internal/validator"
	"github.com/shopspring/decimal"
)

var ErrAlreadyMember = errors.New("user is already a member of this group")

type GroupHandler struct {
	GroupRepo    repository.GroupRepository
	UserRepo     repository.UserRepository
	ActivityRepo repository.ActivityRepository
	ErrHandler   *errHandler.ErrorHandler
	Helper       *helper.HelperRepository
}

func NewGroupHandler(handler *GroupHandler) *GroupHandler {
	return &GroupHandler{
		GroupRepo:    handler.GroupRepo,
		UserRepo:     handler.UserRepo,
		ActivityRepo: handler.ActivityRepo,
		ErrHandler:   handler.ErrHandler,
		Helper:       handler.Helper,
	}
}

func (h *GroupHandler) access() *groupAccess {
	return &groupAccess{groups: h.GroupRepo, errHandler: h.ErrHandler}
}

func (h *GroupHandler) HandleCreateGroup(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	var input struct {
		Name      string              `json:"name"`
		Currency  string              `json:"currency"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	input.Name = strings.TrimSpace(input.Name)
	input.Currency = strings.ToUpper(strings.TrimSpace(input.Currency))

	input.Validator.Check(validator.NotBlank(input.Name), "Name is required")
	input.Validator.Check(validator.MaxRunes(input.Name, 100), "Name must not be more than 100 characters")
	input.Validator.Check(validator.IsCurrency(input.Currency), "Currency must be a valid ISO 4217 code")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	group, err := h.GroupRepo.CreateWithOwner(&models.Group{
		OwnerID:  user.ID,
		Name:     input.Name,
		Currency: input.Currency,
	})
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.logGroupActivity(r, user.ID, group.ID, "Group created")

	writeCreated(w, r, h.ErrHandler, group, "Group created successfully")
}

func (h *GroupHandler) HandleListGroups(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)

	groups, err := h.GroupRepo.GetAllByUserId(user.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, groups, "Groups fetched successfully")
}

func (h *GroupHandler) HandleGetGroup(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	groupID := r.PathValue("id")

	if h.access().member(w, r, groupID, user.ID) == nil {
		return
	}

	group, found, err := h.GroupRepo.GetOne(groupID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	group.Members, err = h.GroupRepo.GetMembers(groupID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	writeOK(w, r, h.ErrHandler, group, "Group fetched successfully")
}

func (h *GroupHandler) HandleAddMember(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	groupID := r.PathValue("id")

	actor := h.access().manager(w, r, groupID, user.ID)
	if actor == nil {
		return
	}

	var input struct {
		Email     string              `json:"email"`
		Role      string              `json:"role"`
		SpendCap  decimal.NullDecimal `json:"spend_cap"`
		Validator validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	if input.Role == "" {
		input.Role = repository.GroupRoleMember
	}

	input.Validator.Check(validator.IsEmail(input.Email), "Must be a valid email address")
	input.Validator.Check(validator.PermittedValue(input.Role, repository.GroupRoleAdmin, repository.GroupRoleMember), "Role must be either admin or member")
	input.Validator.Check(!input.SpendCap.Valid || validator.IsPositiveAmount(input.SpendCap.Decimal), "Spend cap must be a positive amount")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	if input.Role == repository.GroupRoleAdmin && actor.Role != repository.GroupRoleOwner {
		h.ErrHandler.Forbidden(w, r, ErrGroupOwnerOnly)
		return
	}

	target, found, err := h.UserRepo.GetByEmail(input.Email)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.FailedValidation(w, r, []string{"No registered user with this email"})
		return
	}

	_, isMember, err := h.GroupRepo.GetMember(groupID, target.ID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if isMember {
		h.ErrHandler.Conflict(w, r, ErrAlreadyMember)
		return
	}

	member := &models.GroupMember{
		GroupID:  groupID,
		UserID:   target.ID,
		Role:     input.Role,
		SpendCap: input.SpendCap,
		Name:     target.Name,
		Email:    target.Email,
	}

	err = h.GroupRepo.AddMember(member)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.logGroupActivity(r, user.ID, groupID, fmt.Sprintf("Member %s added as %s", target.ID, input.Role))

	writeCreated(w, r, h.ErrHandler, member, "Member added successfully")
}

func (h *GroupHandler) HandleUpdateMember(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	groupID := r.PathValue("id")
	targetID := r.PathValue("user_id")

	actor := h.access().manager(w, r, groupID, user.ID)
	if actor == nil {
		return
	}

	var input struct {
		Role           *string             `json:"role"`
		SpendCap       decimal.NullDecimal `json:"spend_cap"`
		RemoveSpendCap bool                `json:"remove_spend_cap"`
		Validator      validator.Validator `json:"-"`
	}

	err := request.DecodeJSON(w, r, &input)
	if err != nil {
		h.ErrHandler.BadRequest(w, r, err)
		return
	}

	target, found, err := h.GroupRepo.GetMember(groupID, targetID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if target.Role == repository.GroupRoleOwner {
		h.ErrHandler.Forbidden(w, r, ErrOwnerImmutable)
		return
	}

	role := target.Role
	if input.Role != nil {
		role = *input.Role
		input.Validator.Check(validator.PermittedValue(role, repository.GroupRoleAdmin, repository.GroupRoleMember), "Role must be either admin or member")
	}
	input.Validator.Check(!input.SpendCap.Valid || validator.IsPositiveAmount(input.SpendCap.Decimal), "Spend cap must be a positive amount")

	if input.Validator.HasErrors() {
		h.ErrHandler.FailedValidation(w, r, input.Validator.Errors)
		return
	}

	if role != target.Role && actor.Role != repository.GroupRoleOwner {
		h.ErrHandler.Forbidden(w, r, ErrGroupOwnerOnly)
		return
	}

	spendCap := target.SpendCap
	switch {
	case input.RemoveSpendCap:
		spendCap = decimal.NullDecimal{}
	case input.SpendCap.Valid:
		spendCap = input.SpendCap
	}

	err = h.GroupRepo.UpdateMember(groupID, targetID, role, spendCap)
	if err != nil {
		if errors.Is(err, repository.ErrOwnerMembershipImmutable) {
			h.ErrHandler.Forbidden(w, r, ErrOwnerImmutable)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	target.Role = role
	target.SpendCap = spendCap

	h.logGroupActivity(r, user.ID, groupID, fmt.Sprintf("Member %s updated to %s", targetID, role))

	writeOK(w, r, h.ErrHandler, target, "Member updated successfully")
}

func (h *GroupHandler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	user := context.ContextGetAuthenticatedUser(r)
	groupID := r.PathValue("id")
	targetID := r.PathValue("user_id")

	actor := h.access().member(w, r, groupID, user.ID)
	if actor == nil {
		return
	}

	target, found, err := h.GroupRepo.GetMember(groupID, targetID)
	if err != nil {
		h.ErrHandler.ServerError(w, r, err)
		return
	}
	if !found {
		h.ErrHandler.NotFound(w, r)
		return
	}

	if target.Role == repository.GroupRoleOwner {
		h.ErrHandler.Forbidden(w, r, ErrOwnerImmutable)
		return
	}

	leaving := target.UserID == actor.UserID
	if !leaving {
		if !isManager(actor.Role) {
			h.ErrHandler.Forbidden(w, r, ErrGroupManagerOnly)
			return
		}
		// removing an admin revokes the role, which only the owner may do
		if target.Role == repository.GroupRoleAdmin && actor.Role != repository.GroupRoleOwner {
			h.ErrHandler.Forbidden(w, r, ErrGroupOwnerOnly)
			return
		}
	}

	err = h.GroupRepo.RemoveMember(groupID, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrOwnerMembershipImmutable) {
			h.ErrHandler.Forbidden(w, r, ErrOwnerImmutable)
			return
		}
		h.ErrHandler.ServerError(w, r, err)
		return
	}

	h.logGroupActivity(r, user.ID, groupID, fmt.Sprintf("Member %s removed", targetID))

	writeOK(w, r, h.ErrHandler, nil, "Member removed successfully")
}

func (h *GroupHandler) logGroupActivity(r *http.Request, userID, groupID, description string) {
	logActivity(h.Helper, h.ActivityRepo, r, &models.ActivityLog{
		UserID:      sql.NullString{String: userID, Valid: true},
		Entity:      repository.ActivityLogGroupEntity,
		EntityId:    groupID,
		Description: description,
	})
}
