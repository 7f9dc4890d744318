package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/response"
	"github.com/shopspring/decimal"
)

var (
	ErrNotGroupMember      = errors.New("you are not a member of this group")
	ErrGroupManagerOnly    = errors.New("only the group owner or an admin can do this")
	ErrGroupOwnerOnly      = errors.New("only the group owner can change member roles")
	ErrOwnerImmutable      = errors.New("the group owner cannot be changed or removed")
	ErrPoolClosed          = errors.New("pool is closed")
	ErrPoolAlreadyClosed   = errors.New("pool is already closed")
	ErrAccountLocked       = errors.New("account has been locked. Please contact support")
	ErrPlatformAdminOnly   = errors.New("only platform admins can do this")
	ErrVerificationPending = errors.New("your verification is already under review or approved")
)

// BalanceReader serves derived pool balances.
type BalanceReader interface {
	Balance(poolID string) (decimal.Decimal, error)
	Invalidate(poolID string)
}

type queryStringValues struct {
	StartDate *time.Time
	EndDate   *time.Time
	Search    string
	Limit     int
	Offset    int
}

func retrieveUrlQueryValues(r *http.Request) *queryStringValues {
	var queryValues = &queryStringValues{}

	startDateStr := r.URL.Query().Get("start_date")
	if startDateStr != "" {
		parsedStart, err := time.Parse(time.DateOnly, startDateStr)
		if err == nil {
			queryValues.StartDate = &parsedStart
		}
	}

	endDateStr := r.URL.Query().Get("end_date")
	if endDateStr != "" {
		parsedEnd, err := time.Parse(time.DateOnly, endDateStr)
		if err == nil {
			queryValues.EndDate = &parsedEnd
		}
	}

	limitStr := r.URL.Query().Get("limit")
	pageStr := r.URL.Query().Get("page")

	offset := 0
	limit := 10

	if limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = min(parsedLimit, 100)
		}
	}
	queryValues.Limit = limit

	if pageStr != "" {
		if page, err := strconv.Atoi(pageStr); err == nil && page >= 1 {
			offset = (page - 1) * limit
		}
	}
	queryValues.Offset = offset

	queryValues.Search = strings.TrimSpace(r.URL.Query().Get("search"))

	return queryValues
}

// listFilter treats end_date as a whole day.
func (q *queryStringValues) listFilter() repository.ListFilter {
	filter := repository.ListFilter{
		Search: q.Search,
		From:   q.StartDate,
		Limit:  q.Limit,
		Offset: q.Offset,
	}

	if q.EndDate != nil {
		to := q.EndDate.AddDate(0, 0, 1)
		filter.To = &to
	}

	return filter
}

// groupAccess resolves the caller's membership in a group. On failure it has
// already written the error response and returns nil.
type groupAccess struct {
	groups     repository.GroupRepository
	errHandler *errHandler.ErrorHandler
}

func (a *groupAccess) member(w http.ResponseWriter, r *http.Request, groupID, userID string) *models.GroupMember {
	member, found, err := a.groups.GetMember(groupID, userID)
	if err != nil {
		a.errHandler.ServerError(w, r, err)
		return nil
	}
	if found {
		return member
	}

	_, groupFound, err := a.groups.GetOne(groupID)
	if err != nil {
		a.errHandler.ServerError(w, r, err)
		return nil
	}
	if !groupFound {
		a.errHandler.NotFound(w, r)
		return nil
	}

	a.errHandler.Forbidden(w, r, ErrNotGroupMember)
	return nil
}

func (a *groupAccess) manager(w http.ResponseWriter, r *http.Request, groupID, userID string) *models.GroupMember {
	member := a.member(w, r, groupID, userID)
	if member == nil {
		return nil
	}

	if !isManager(member.Role) {
		a.errHandler.Forbidden(w, r, ErrGroupManagerOnly)
		return nil
	}

	return member
}

func isManager(role string) bool {
	return role == repository.GroupRoleOwner || role == repository.GroupRoleAdmin
}

// poolFor loads the pool named by the {id} path value.
func poolFor(w http.ResponseWriter, r *http.Request, pools repository.PoolRepository, e *errHandler.ErrorHandler) *models.Pool {
	pool, found, err := pools.GetOne(r.PathValue("id"))
	if err != nil {
		e.ServerError(w, r, err)
		return nil
	}
	if !found {
		e.NotFound(w, r)
		return nil
	}

	return pool
}

func writeOK(w http.ResponseWriter, r *http.Request, e *errHandler.ErrorHandler, data any, message string) {
	if err := response.JSONOkResponse(w, data, message, nil); err != nil {
		e.ServerError(w, r, err)
	}
}

func writeCreated(w http.ResponseWriter, r *http.Request, e *errHandler.ErrorHandler, data any, message string) {
	if err := response.JSONCreatedResponse(w, data, message); err != nil {
		e.ServerError(w, r, err)
	}
}
