package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/rahadianw/dealer-crm/internal/attendance"
	"github.com/rahadianw/dealer-crm/internal/dealer"
	"github.com/rahadianw/dealer-crm/internal/interaction"
	"github.com/rahadianw/dealer-crm/internal/session"
	"github.com/rahadianw/dealer-crm/internal/transport/middleware"
	"github.com/rahadianw/dealer-crm/internal/transport/swagger"
)

func RegisterAllRoutes(
	router *chi.Mux,
	db *sql.DB,
	sessionHandler *session.Handler,
	sessionService SessionCounter,
	interactionHandler *interaction.Handler,
	dealerHandler *dealer.Handler,
	attendanceHandler *attendance.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db, sessionService)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	// OpenAPI spec and Swagger UI live outside the API prefix.
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Public auth surface. Access requests stay public: a blocked
		// user has no session to authenticate with.
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", sessionHandler.Login)
			sr.Post("/restore", sessionHandler.Restore)
			sr.Post("/access-request", sessionHandler.RequestAccess)
		})

		// Everything below requires a valid session token.
		r.Group(func(pr chi.Router) {
			pr.Use(sessionHandler.AuthMiddleware)

			pr.Post("/auth/logout", sessionHandler.Logout)

			pr.Route("/interactions", func(ir chi.Router) {
				ir.Get("/visibility", interactionHandler.GetVisibility)
				ir.Get("/stages", interactionHandler.GetStages)
				ir.Post("/", interactionHandler.RecordInteraction)
			})

			pr.Route("/dealers", func(dr chi.Router) {
				dr.Post("/", dealerHandler.Register)
				dr.Get("/", dealerHandler.List)
				dr.Get("/{code}", dealerHandler.Get)
				dr.Get("/{code}/history", interactionHandler.GetDealerHistory)
				dr.Get("/{code}/summary", interactionHandler.GetDealerSummary)
			})

			pr.Route("/attendance", func(ar chi.Router) {
				ar.Post("/punch-in", attendanceHandler.PunchIn)
				ar.Post("/punch-out", attendanceHandler.PunchOut)
				ar.Get("/", attendanceHandler.List)
			})

			// Admin-only surface.
			pr.Group(func(admr chi.Router) {
				admr.Use(sessionHandler.RequireAdmin)

				admr.Post("/auth/access-grant", sessionHandler.GrantAccess)
				admr.Post("/auth/access-reject", sessionHandler.RejectAccess)
				admr.Get("/admin/session-logs", sessionHandler.ListSessionLogs)
			})
		})
	})
}
