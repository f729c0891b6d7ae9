package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/donation-management/internal/auth"
	"github.com/frahmantamala/donation-management/internal/donation"
	"github.com/frahmantamala/donation-management/internal/emaillog"
	"github.com/frahmantamala/donation-management/internal/organization"
	"github.com/frahmantamala/donation-management/internal/paymentevent"
	"github.com/frahmantamala/donation-management/internal/transport/middleware"
	"github.com/frahmantamala/donation-management/internal/transport/swagger"
	"github.com/frahmantamala/donation-management/internal/user"
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, authHandler *auth.Handler, userHandler *user.Handler, donationHandler *donation.Handler, webhookHandler *paymentevent.WebhookHandler, emailHandler *emaillog.Handler, orgHandler *organization.Handler, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	rbac := auth.NewRBACAuthorization(logger)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check route
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Provider callbacks are authenticated by signature, not by token.
		if webhookHandler != nil {
			r.Post("/payments/callback", webhookHandler.HandlePaymentCallback)
		}
		if emailHandler != nil {
			r.Post("/mailer/events", emailHandler.HandleMailerReport)
		}

		// Auth routes
		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Public registration
		if userHandler != nil {
			r.Post("/users", userHandler.Register)
		}

		// Donation intake is public; a valid token attaches the caller.
		if donationHandler != nil {
			r.Group(func(dr chi.Router) {
				if authHandler != nil {
					dr.Use(authHandler.OptionalAuthMiddleware)
				}
				dr.Post("/donations", donationHandler.CreateDonation)
			})
		}

		if authHandler != nil {
			// Protected routes that require authentication
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				// Current user
				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetCurrentUser)
				}

				// Donation routes
				if donationHandler != nil {
					pr.Route("/donations", func(dr chi.Router) {
						dr.Get("/", donationHandler.ListDonations)
						dr.Get("/stats", donationHandler.GetStats)
						dr.Get("/{id}", donationHandler.GetDonation)

						if emailHandler != nil {
							dr.Post("/{id}/resend-receipt", emailHandler.ResendReceipt)
							dr.Get("/{id}/emails", emailHandler.EmailHistory)
						}

						dr.Group(func(ar chi.Router) {
							ar.Use(rbac.RequireRole(auth.RoleAdmin))
							ar.Post("/{id}/expire", donationHandler.ExpireDonation)
						})
					})
				}

				// Reconciliation feed and the event audit trail are
				// restricted to back-office roles.
				if webhookHandler != nil {
					pr.Group(func(rr chi.Router) {
						rr.Use(rbac.RequireRole(auth.RoleAdmin, auth.RoleAuditor))
						rr.Post("/payments/recon", webhookHandler.HandleReconEvent)
						rr.Get("/payments/events/{event_id}", webhookHandler.GetEvent)
						rr.Get("/donations/{id}/events", webhookHandler.ListDonationEvents)
					})
				}

				// Organization management is admin only.
				if orgHandler != nil {
					pr.Route("/organizations", func(or chi.Router) {
						or.Get("/", orgHandler.List)
						or.Get("/{id}", orgHandler.Get)

						or.Group(func(ar chi.Router) {
							ar.Use(rbac.RequireAdmin())
							ar.Post("/", orgHandler.Create)
							ar.Delete("/{id}", orgHandler.Deactivate)
						})
					})
				}
			})
		}
	})
}
