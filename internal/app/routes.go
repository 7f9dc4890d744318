package app

import (
	"net/http"

	"github.com/cradoe/splitsy/internal/handler"
	"github.com/cradoe/splitsy/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	mw := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config, app.KillSwitch, app.Metrics)

	authed := func(fn http.HandlerFunc) http.Handler {
		return mw.RequireAuthenticatedUser(fn)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return mw.RequirePlatformAdmin(fn)
	}

	healthHandler := handler.NewHealthCheckHandler(&handler.HealthCheckHandler{
		ErrHandler: app.errorHandler,
	})

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		Mailer:       app.Mailer,
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
		Config:       &app.Config,
	})

	userHandler := handler.NewUserHandler(&handler.UserHandler{
		ErrHandler: app.errorHandler,
	})

	verificationHandler := handler.NewVerificationHandler(&handler.VerificationHandler{
		UserRepo:         app.DB.User(),
		VerificationRepo: app.DB.Verification(),
		ActivityRepo:     app.DB.Activity(),
		AdminActionRepo:  app.DB.AdminAction(),
		Sealer:           app.Sealer,
		Uploader:         app.FileUploader,
		Mailer:           app.Mailer,
		ErrHandler:       app.errorHandler,
		Helper:           app.helper,
	})

	groupHandler := handler.NewGroupHandler(&handler.GroupHandler{
		GroupRepo:    app.DB.Group(),
		UserRepo:     app.DB.User(),
		ActivityRepo: app.DB.Activity(),
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
	})

	poolHandler := handler.NewPoolHandler(&handler.PoolHandler{
		GroupRepo:    app.DB.Group(),
		PoolRepo:     app.DB.Pool(),
		CardRepo:     app.DB.Card(),
		ActivityRepo: app.DB.Activity(),
		Balances:     app.Balances,
		Payments:     app.Payments,
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
	})

	contributionHandler := handler.NewContributionHandler(&handler.ContributionHandler{
		GroupRepo:        app.DB.Group(),
		PoolRepo:         app.DB.Pool(),
		ContributionRepo: app.DB.Contribution(),
		ActivityRepo:     app.DB.Activity(),
		Producer:         app.Kafka,
		ErrHandler:       app.errorHandler,
		Helper:           app.helper,
	})

	cardHandler := handler.NewCardHandler(&handler.CardHandler{
		GroupRepo:        app.DB.Group(),
		PoolRepo:         app.DB.Pool(),
		CardRepo:         app.DB.Card(),
		UserRepo:         app.DB.User(),
		VerificationRepo: app.DB.Verification(),
		ActivityRepo:     app.DB.Activity(),
		Balances:         app.Balances,
		Payments:         app.Payments,
		ErrHandler:       app.errorHandler,
		Helper:           app.helper,
	})

	transactionHandler := handler.NewTransactionHandler(&handler.TransactionHandler{
		GroupRepo:       app.DB.Group(),
		PoolRepo:        app.DB.Pool(),
		TransactionRepo: app.DB.Transaction(),
		ErrHandler:      app.errorHandler,
	})

	webhookHandler := handler.NewWebhookHandler(&handler.WebhookHandler{
		ContributionRepo: app.DB.Contribution(),
		SplitRepo:        app.DB.Split(),
		CardRepo:         app.DB.Card(),
		TransactionRepo:  app.DB.Transaction(),
		Settler:          app.Settler,
		Payments:         app.Payments,
		ErrHandler:       app.errorHandler,
		Logger:           app.Logger,
	})

	splitHandler := handler.NewSplitHandler(&handler.SplitHandler{
		SplitRepo:    app.DB.Split(),
		ActivityRepo: app.DB.Activity(),
		Producer:     app.Kafka,
		Links:        app.PayLinks,
		Payments:     app.Payments,
		ErrHandler:   app.errorHandler,
		Helper:       app.helper,
	})

	adminHandler := handler.NewAdminHandler(&handler.AdminHandler{
		KillSwitch:      app.KillSwitch,
		UserRepo:        app.DB.User(),
		ActivityRepo:    app.DB.Activity(),
		AdminActionRepo: app.DB.AdminAction(),
		ErrHandler:      app.errorHandler,
		Helper:          app.helper,
	})

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)
	mux.Handle("GET /metrics", app.Metrics.Handler())

	mux.HandleFunc("POST /auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)

	mux.Handle("GET /me", authed(userHandler.HandleGetProfile))
	mux.Handle("POST /me/verification", authed(verificationHandler.HandleSubmitVerification))
	mux.Handle("POST /me/verification/document", authed(verificationHandler.HandleUploadDocument))
	mux.Handle("GET /me/verification", authed(verificationHandler.HandleGetVerification))

	mux.Handle("POST /groups", authed(groupHandler.HandleCreateGroup))
	mux.Handle("GET /groups", authed(groupHandler.HandleListGroups))
	mux.Handle("GET /groups/{id}", authed(groupHandler.HandleGetGroup))
	mux.Handle("POST /groups/{id}/members", authed(groupHandler.HandleAddMember))
	mux.Handle("PATCH /groups/{id}/members/{user_id}", authed(groupHandler.HandleUpdateMember))
	mux.Handle("DELETE /groups/{id}/members/{user_id}", authed(groupHandler.HandleRemoveMember))

	mux.Handle("POST /groups/{id}/pools", authed(poolHandler.HandleCreatePool))
	mux.Handle("GET /groups/{id}/pools", authed(poolHandler.HandleListPools))
	mux.Handle("GET /pools/{id}", authed(poolHandler.HandleGetPool))
	mux.Handle("POST /pools/{id}/close", authed(poolHandler.HandleClosePool))

	mux.Handle("POST /pools/{id}/contributions", authed(contributionHandler.HandleCreateContribution))
	mux.Handle("GET /pools/{id}/contributions", authed(contributionHandler.HandleListContributions))

	mux.Handle("POST /pools/{id}/cards", authed(cardHandler.HandleIssueCard))
	mux.Handle("GET /pools/{id}/cards", authed(cardHandler.HandleListCards))
	mux.Handle("POST /cards/{id}/apple-pay", authed(cardHandler.HandleTokenizeApplePay))
	mux.Handle("POST /cards/{id}/suspend", authed(cardHandler.HandleSuspendCard))

	mux.Handle("GET /pools/{id}/transactions", authed(transactionHandler.HandleListTransactions))
	mux.HandleFunc("POST /webhooks/stripe", webhookHandler.HandleStripeWebhook)

	mux.Handle("POST /splits", authed(splitHandler.HandleCreateSplit))
	mux.Handle("GET /splits", authed(splitHandler.HandleListSplits))
	mux.Handle("GET /splits/{id}", authed(splitHandler.HandleGetSplit))
	mux.Handle("POST /splits/{id}/remind", authed(splitHandler.HandleRemindSplit))
	mux.HandleFunc("GET /pay/{token}", splitHandler.HandleGetPayLink)
	mux.HandleFunc("POST /pay/{token}", splitHandler.HandlePayLink)

	mux.Handle("GET /admin/settings/kill-switch", admin(adminHandler.HandleGetKillSwitch))
	mux.Handle("PUT /admin/settings/kill-switch", admin(adminHandler.HandleSetKillSwitch))
	mux.Handle("GET /admin/audit-logs", admin(adminHandler.HandleListAuditLogs))
	mux.Handle("GET /admin/actions", admin(adminHandler.HandleListAdminActions))
	mux.Handle("POST /admin/users/{id}/unlock", admin(adminHandler.HandleUnlockUser))
	mux.Handle("GET /admin/verifications", admin(verificationHandler.HandleListVerifications))
	mux.Handle("POST /admin/verifications/{user_id}/approve", admin(verificationHandler.HandleApproveVerification))
	mux.Handle("POST /admin/verifications/{user_id}/reject", admin(verificationHandler.HandleRejectVerification))

	// Metrics reads the matched pattern, so it sits directly on the mux
	return mw.LogAccess(mw.RecoverPanic(mw.Authenticate(mw.KillSwitch(mw.Metrics(mux)))))
}
