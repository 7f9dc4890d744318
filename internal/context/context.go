package context

import (
	"context"
	"net/http"

	"github.com/cradoe/splitsy/internal/models"
)

type authenticatedUserKey struct{}

// ContextSetAuthenticatedUser returns a copy of r carrying user.
func ContextSetAuthenticatedUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), authenticatedUserKey{}, user))
}

// ContextGetAuthenticatedUser returns nil for anonymous requests such as
// pay links and provider webhooks.
func ContextGetAuthenticatedUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(authenticatedUserKey{}).(*models.User)
	return user
}
