package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cradoe/splitsy/internal/config"
	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/cradoe/splitsy/internal/response"

	"github.com/pascaldekloe/jwt"
	"github.com/tomasen/realip"
)

var (
	ErrAccountLocked     = errors.New("account has been locked. Please contact support")
	ErrPlatformAdminOnly = errors.New("only platform admins can do this")
)

// Paths that stay reachable while the kill switch is on, so an admin can log
// in and turn it off and the provider can keep reporting payments.
var killSwitchExempt = map[string]bool{
	"/status":          true,
	"/metrics":         true,
	"/auth/login":      true,
	"/webhooks/stripe": true,
}

type KillSwitchReader interface {
	Enabled() (bool, error)
}

type RequestObserver interface {
	ObserveRequest(pattern string, status int, elapsed time.Duration)
}

type Middleware struct {
	errHandler *errHandler.ErrorHandler
	logger     *slog.Logger
	UserRepo   repository.UserRepository
	config     *config.Config
	killSwitch KillSwitchReader
	observer   RequestObserver
}

func New(errHandler *errHandler.ErrorHandler, logger *slog.Logger, UserRepo repository.UserRepository, config *config.Config, killSwitch KillSwitchReader, observer RequestObserver) *Middleware {
	return &Middleware{
		errHandler: errHandler,
		logger:     logger,
		UserRepo:   UserRepo,
		config:     config,
		killSwitch: killSwitch,
		observer:   observer,
	}
}

func (mid *Middleware) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err != nil {
				mid.errHandler.ServerError(w, r, fmt.Errorf("%s", err))
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) LogAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mw := response.NewMetricsResponseWriter(w)
		next.ServeHTTP(mw, r)

		var (
			ip     = realip.FromRequest(r)
			method = r.Method
			url    = r.URL.String()
			proto  = r.Proto
		)

		userAttrs := slog.Group("user", "ip", ip)
		requestAttrs := slog.Group("request", "method", method, "url", url, "proto", proto)
		responseAttrs := slog.Group("response", "status", mw.StatusCode, "size", mw.BytesCount)

		mid.logger.Info("access", userAttrs, requestAttrs, responseAttrs)
	})
}

// Metrics must wrap the ServeMux directly: the mux sets r.Pattern on the
// request it receives, which is how requests are labelled by route.
func (mid *Middleware) Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		mw := response.NewMetricsResponseWriter(w)

		next.ServeHTTP(mw, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}

		mid.observer.ObserveRequest(pattern, mw.StatusCode, time.Since(start))
	})
}

func (mid *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Authorization")

		authorizationHeader := r.Header.Get("Authorization")

		if authorizationHeader != "" {
			headerParts := strings.Split(authorizationHeader, " ")

			if len(headerParts) == 2 && headerParts[0] == "Bearer" {
				token := headerParts[1]

				claims, err := jwt.HMACCheck([]byte(token), []byte(mid.config.Jwt.SecretKey))
				if err != nil {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if !claims.Valid(time.Now()) {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if claims.Issuer != mid.config.BaseURL {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				if !claims.AcceptAudience(mid.config.BaseURL) {
					mid.errHandler.InvalidAuthenticationToken(w, r)
					return
				}

				user, found, err := mid.UserRepo.GetOne(claims.Subject)
				if err != nil {
					mid.errHandler.ServerError(w, r, err)
					return
				}

				if found {
					// tokens issued before a lockout stop working with it
					if user.Status != repository.UserAccountActiveStatus {
						mid.errHandler.Forbidden(w, r, ErrAccountLocked)
						return
					}

					r = context.ContextSetAuthenticatedUser(r, user)
				}
			}
		}

		next.ServeHTTP(w, r)
	})
}

// KillSwitch answers 503 to everyone but platform admins while the switch is
// on. It runs after Authenticate so it can see who is asking.
func (mid *Middleware) KillSwitch(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if killSwitchExempt[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		user := context.ContextGetAuthenticatedUser(r)
		if user != nil && user.IsPlatformAdmin {
			next.ServeHTTP(w, r)
			return
		}

		enabled, err := mid.killSwitch.Enabled()
		if err != nil {
			mid.errHandler.ServerError(w, r, err)
			return
		}

		if enabled {
			mid.errHandler.ServiceUnavailable(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) RequireAuthenticatedUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authenticatedUser := context.ContextGetAuthenticatedUser(r)

		if authenticatedUser == nil {
			mid.errHandler.AuthenticationRequired(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (mid *Middleware) RequirePlatformAdmin(next http.Handler) http.Handler {
	return mid.RequireAuthenticatedUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !context.ContextGetAuthenticatedUser(r).IsPlatformAdmin {
			mid.errHandler.Forbidden(w, r, ErrPlatformAdminOnly)
			return
		}

		next.ServeHTTP(w, r)
	}))
}
