package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cradoe/gopass"
	"github.com/cradoe/splitsy/internal/config"
	"github.com/cradoe/splitsy/internal/mocks"
	"github.com/cradoe/splitsy/internal/models"
	"github.com/cradoe/splitsy/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPassword = "Sup3r$ecretPass!"

func newAuthHandler(env *testEnv, users *mocks.MockUserRepo, activity *mocks.MockActivityRepo, mailer *mocks.MockMailer) *AuthHandler {
	cfg := &config.Config{BaseURL: "http://localhost:4444"}
	cfg.Jwt.SecretKey = "test_secret"

	return NewAuthHandler(&AuthHandler{
		UserRepo:     users,
		ActivityRepo: activity,
		Mailer:       mailer,
		ErrHandler:   env.errHandler,
		Helper:       env.helper,
		Config:       cfg,
	})
}

func hashedUser(t *testing.T, status string) *models.User {
	t.Helper()

	hash, err := gopass.Hash(testPassword)
	require.NoError(t, err)

	user := testUser("u1")
	user.HashedPassword = hash
	user.Status = status
	return user
}

func TestHandleAuthRegister(t *testing.T) {
	env := newTestEnv()
	users := new(mocks.MockUserRepo)
	activity := new(mocks.MockActivityRepo)
	mailer := new(mocks.MockMailer)

	users.On("GetByEmail", "ada@example.com").Return(nil, false, nil)
	users.On("CheckIfPhoneNumberExist", "+15551234567").Return(false, nil)
	users.On("Insert", mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "ada@example.com" && u.HashedPassword != "" && u.HashedPassword != testPassword
	})).Return("u1", nil)
	activity.On("Insert", mock.MatchedBy(func(l *models.ActivityLog) bool {
		return l.Description == UserActivityLogRegistrationDescription && l.EntityId == "u1"
	})).Return(nil, nil)
	mailer.On("Send", "ada@example.com", mock.Anything, []string{"welcome.tmpl"}).Return(nil)

	h := newAuthHandler(env, users, activity, mailer)

	rr := httptest.NewRecorder()
	h.HandleAuthRegister(rr, newRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"email":        "ada@example.com",
		"password":     testPassword,
		"name":         "Ada Lovelace",
		"phone_number": "+15551234567",
	}, nil))
	env.wait()

	require.Equal(t, http.StatusCreated, rr.Code)

	var data map[string]string
	decodeData(t, rr, &data)
	assert.Equal(t, "u1", data["id"])

	users.AssertExpectations(t)
	activity.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestHandleAuthRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv()
	users := new(mocks.MockUserRepo)

	users.On("GetByEmail", "ada@example.com").Return(testUser("u0"), true, nil)
	users.On("CheckIfPhoneNumberExist", "+15551234567").Return(false, nil)

	h := newAuthHandler(env, users, new(mocks.MockActivityRepo), new(mocks.MockMailer))

	rr := httptest.NewRecorder()
	h.HandleAuthRegister(rr, newRequest(t, http.MethodPost, "/auth/register", map[string]string{
		"email":        "ada@example.com",
		"password":     testPassword,
		"name":         "Ada Lovelace",
		"phone_number": "+15551234567",
	}, nil))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Email is already in use")
	users.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestHandleAuthLogin_ValidCredentials(t *testing.T) {
	env := newTestEnv()
	users := new(mocks.MockUserRepo)
	activity := new(mocks.MockActivityRepo)

	users.On("GetByEmail", "u1@example.com").Return(hashedUser(t, repository.UserAccountActiveStatus), true, nil)
	activity.On("Insert", mock.MatchedBy(func(l *models.ActivityLog) bool {
		return l.Description == UserActivityLogLoginDescription
	})).Return(nil, nil)

	h := newAuthHandler(env, users, activity, new(mocks.MockMailer))

	rr := httptest.NewRecorder()
	h.HandleAuthLogin(rr, newRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "u1@example.com",
		"password": testPassword,
	}, nil))
	env.wait()

	require.Equal(t, http.StatusOK, rr.Code)

	var data map[string]string
	decodeData(t, rr, &data)
	assert.NotEmpty(t, data["auth_token"])
	assert.NotEmpty(t, data["token_expiry"])

	activity.AssertExpectations(t)
}

func TestHandleAuthLogin_WrongPassword(t *testing.T) {
	tests := []struct {
		name          string
		priorFailures int
		wantStatus    int
		wantLock      bool
	}{
		{name: "first failure", priorFailures: 0, wantStatus: http.StatusUnprocessableEntity},
		{name: "second failure", priorFailures: 1, wantStatus: http.StatusUnprocessableEntity},
		{name: "third failure locks", priorFailures: 2, wantStatus: http.StatusForbidden, wantLock: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			users := new(mocks.MockUserRepo)
			activity := new(mocks.MockActivityRepo)

			users.On("GetByEmail", "u1@example.com").Return(hashedUser(t, repository.UserAccountActiveStatus), true, nil)
			activity.On("CountConsecutiveFailedLoginAttempts", "u1", UserActivityLogFailedLoginDescription).Return(tt.priorFailures)
			activity.On("Insert", mock.Anything).Return(nil, nil)
			if tt.wantLock {
				users.On("Lock", "u1").Return(nil)
			}

			h := newAuthHandler(env, users, activity, new(mocks.MockMailer))

			rr := httptest.NewRecorder()
			h.HandleAuthLogin(rr, newRequest(t, http.MethodPost, "/auth/login", map[string]string{
				"email":    "u1@example.com",
				"password": "not-the-password",
			}, nil))
			env.wait()

			assert.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantLock {
				users.AssertCalled(t, "Lock", "u1")
				activity.AssertCalled(t, "Insert", mock.MatchedBy(func(l *models.ActivityLog) bool {
					return l.Description == UserActivityLogLockedAccountDescription
				}))
			} else {
				users.AssertNotCalled(t, "Lock", mock.Anything)
			}
		})
	}
}

func TestHandleAuthLogin_LockedAccount(t *testing.T) {
	env := newTestEnv()
	users := new(mocks.MockUserRepo)
	activity := new(mocks.MockActivityRepo)

	users.On("GetByEmail", "u1@example.com").Return(hashedUser(t, repository.UserAccountLockedStatus), true, nil)

	h := newAuthHandler(env, users, activity, new(mocks.MockMailer))

	rr := httptest.NewRecorder()
	h.HandleAuthLogin(rr, newRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "u1@example.com",
		"password": testPassword,
	}, nil))
	env.wait()

	require.Equal(t, http.StatusForbidden, rr.Code)
	activity.AssertNotCalled(t, "Insert", mock.Anything)
}

func TestHandleAuthLogin_UnknownEmail(t *testing.T) {
	env := newTestEnv()
	users := new(mocks.MockUserRepo)
	users.On("GetByEmail", "nobody@example.com").Return(nil, false, nil)

	h := newAuthHandler(env, users, new(mocks.MockActivityRepo), new(mocks.MockMailer))

	rr := httptest.NewRecorder()
	h.HandleAuthLogin(rr, newRequest(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "nobody@example.com",
		"password": testPassword,
	}, nil))

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), "Incorrect email/password")
}
