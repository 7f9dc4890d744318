package middleware

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cradoe/splitsy/internal/config"
	"github.com/cradoe/splitsy/internal/context"
	"github.com/cradoe/splitsy/internal/errHandler"
	"github.com/cradoe/splitsy/internal/mocks"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/pascaldekloe/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubKillSwitch struct {
	enabled bool
	err     error
}

func (s stubKillSwitch) Enabled() (bool, error) {
	return s.enabled, s.err
}

type recordingObserver struct {
	pattern string
	status  int
}

func (o *recordingObserver) ObserveRequest(pattern string, status int, _ time.Duration) {
	o.pattern = pattern
	o.status = status
}

func newTestMiddleware(userRepo repository.UserRepository, ks KillSwitchReader, observer RequestObserver) *Middleware {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.Config{BaseURL: "http://localhost:4444"}
	cfg.Jwt.SecretKey = "test_secret"

	return New(errHandler.New("", nil, logger), logger, userRepo, cfg, ks, observer)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func withUser(r *http.Request, admin bool) *http.Request {
	return context.ContextSetAuthenticatedUser(r, &models.User{ID: "u1", IsPlatformAdmin: admin})
}

func TestKillSwitch(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		admin   bool
		user    bool
		enabled bool
		want    int
	}{
		{name: "off lets members through", path: "/groups", user: true, want: http.StatusOK},
		{name: "on blocks members", path: "/groups", user: true, enabled: true, want: http.StatusServiceUnavailable},
		{name: "on blocks anonymous pay links", path: "/pay/abc", enabled: true, want: http.StatusServiceUnavailable},
		{name: "on lets platform admins through", path: "/groups", user: true, admin: true, enabled: true, want: http.StatusOK},
		{name: "login stays open", path: "/auth/login", enabled: true, want: http.StatusOK},
		{name: "health stays open", path: "/status", enabled: true, want: http.StatusOK},
		{name: "webhooks stay open", path: "/webhooks/stripe", enabled: true, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mid := newTestMiddleware(nil, stubKillSwitch{enabled: tt.enabled}, nil)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.user {
				req = withUser(req, tt.admin)
			}
			rr := httptest.NewRecorder()

			mid.KillSwitch(okHandler()).ServeHTTP(rr, req)

			assert.Equal(t, tt.want, rr.Code)
			if tt.want == http.StatusServiceUnavailable {
				assert.Equal(t, "300", rr.Header().Get("Retry-After"))
			}
		})
	}
}

func TestKillSwitchReadFailure(t *testing.T) {
	mid := newTestMiddleware(nil, stubKillSwitch{err: errors.New("db down")}, nil)

	rr := httptest.NewRecorder()
	mid.KillSwitch(okHandler()).ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/groups", nil), false))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func signToken(t *testing.T, subject string) string {
	t.Helper()

	var claims jwt.Claims
	claims.Subject = subject
	claims.Issued = jwt.NewNumericTime(time.Now())
	claims.NotBefore = jwt.NewNumericTime(time.Now())
	claims.Expires = jwt.NewNumericTime(time.Now().Add(time.Hour))
	claims.Issuer = "http://localhost:4444"
	claims.Audiences = []string{"http://localhost:4444"}

	token, err := claims.HMACSign(jwt.HS256, []byte("test_secret"))
	require.NoError(t, err)

	return string(token)
}

func TestAuthenticate(t *testing.T) {
	userRepo := new(mocks.MockUserRepo)
	userRepo.On("GetOne", "active-user").Return(&models.User{ID: "active-user", Status: repository.UserAccountActiveStatus}, true, nil)
	userRepo.On("GetOne", "locked-user").Return(&models.User{ID: "locked-user", Status: repository.UserAccountLockedStatus}, true, nil)

	mid := newTestMiddleware(userRepo, nil, nil)

	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = context.ContextGetAuthenticatedUser(r)
	})

	t.Run("valid token sets the user", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "active-user"))
		rr := httptest.NewRecorder()

		mid.Authenticate(next).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		require.NotNil(t, seen)
		assert.Equal(t, "active-user", seen.ID)
	})

	t.Run("locked account is refused", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "locked-user"))
		rr := httptest.NewRecorder()

		mid.Authenticate(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Nil(t, seen)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, "active-user")+"x")
		rr := httptest.NewRecorder()

		mid.Authenticate(next).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("no header is anonymous", func(t *testing.T) {
		seen = nil
		rr := httptest.NewRecorder()

		mid.Authenticate(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Nil(t, seen)
	})
}

func TestRequirePlatformAdmin(t *testing.T) {
	mid := newTestMiddleware(nil, nil, nil)
	handler := mid.RequirePlatformAdmin(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/actions", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/admin/actions", nil), false))
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, withUser(httptest.NewRequest(http.MethodGet, "/admin/actions", nil), true))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	observer := &recordingObserver{}
	mid := newTestMiddleware(nil, nil, observer)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /pools/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := httptest.NewRecorder()
	mid.Metrics(mux).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pools/123", nil))

	assert.Equal(t, "GET /pools/{id}", observer.pattern)
	assert.Equal(t, http.StatusTeapot, observer.status)
}

func TestRecoverPanic(t *testing.T) {
	mid := newTestMiddleware(nil, nil, nil)

	panicking := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	mid.RecoverPanic(panicking).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
