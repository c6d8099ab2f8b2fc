package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/jmoiron/sqlx"

	"github.com/mir-ashiq/Travelers-sub001/internal/audit"
	"github.com/mir-ashiq/Travelers-sub001/internal/auth"
	"github.com/mir-ashiq/Travelers-sub001/internal/booking"
	"github.com/mir-ashiq/Travelers-sub001/internal/payment"
	"github.com/mir-ashiq/Travelers-sub001/internal/transport/middleware"
	"github.com/mir-ashiq/Travelers-sub001/internal/transport/swagger"
	"github.com/mir-ashiq/Travelers-sub001/internal/user"
)

// RegisterAllRoutes wires the full route table. Guard middleware names the
// capability each mutation needs; the booking and payment handlers never
// check permissions themselves.
func RegisterAllRoutes(
	router *chi.Mux,
	db *sqlx.DB,
	authHandler *auth.Handler,
	guard *auth.Guard,
	userHandler *user.Handler,
	bookingHandler *booking.Handler,
	paymentHandler *payment.Handler,
	webhookHandler *payment.WebhookHandler,
	auditHandler *audit.Handler,
	logger *slog.Logger,
) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Signed webhook deliveries; no session, the HMAC is the auth.
		if webhookHandler != nil {
			r.Post("/webhooks/payment", webhookHandler.ProcessWebhook)
		}

		if authHandler != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", authHandler.Login)
				sr.Post("/refresh", authHandler.RefreshToken)
				sr.Post("/logout", authHandler.Logout)
			})
		}

		// Customers open payment intents from the public booking page.
		if paymentHandler != nil {
			r.Post("/payments/intent", paymentHandler.CreatePaymentIntent)
		}

		if authHandler != nil {
			r.Group(func(pr chi.Router) {
				pr.Use(authHandler.AuthMiddleware)

				if userHandler != nil {
					pr.Get("/users/me", userHandler.GetCurrentUser)

					pr.Group(func(ar chi.Router) {
						ar.Use(guard.RequireRole(auth.RoleAdmin))
						ar.Get("/users", userHandler.ListUsers)
					})
					pr.Group(func(rr chi.Router) {
						rr.Use(guard.Require(auth.CapUsersChangeRole))
						rr.Post("/users/{id}/role", userHandler.ChangeRole)
					})
				}

				if bookingHandler != nil {
					pr.Route("/bookings", func(br chi.Router) {
						br.Group(func(vr chi.Router) {
							vr.Use(guard.Require(auth.CapBookingsView))
							vr.Get("/", bookingHandler.ListBookings)
							vr.Get("/{id}", bookingHandler.GetBooking)
							if paymentHandler != nil {
								vr.Get("/{id}/transactions", paymentHandler.GetTransactions)
							}
						})

						br.Group(func(er chi.Router) {
							er.Use(guard.Require(auth.CapBookingsEdit))
							er.Patch("/{id}", bookingHandler.UpdateBooking)
							er.Post("/{id}/cancel", bookingHandler.CancelBooking)
							er.Post("/bulk/status", bookingHandler.BulkUpdateStatus)
						})

						br.Group(func(ar chi.Router) {
							ar.Use(guard.Require(auth.CapBookingsReassign))
							ar.Post("/assign", bookingHandler.AssignBooking)
						})

						br.Group(func(psr chi.Router) {
							psr.Use(guard.Require(auth.CapBookingsUpdatePayment))
							psr.Patch("/payment-status", bookingHandler.UpdatePaymentStatus)
						})

						br.Group(func(dr chi.Router) {
							dr.Use(guard.Require(auth.CapBookingsDelete))
							dr.Post("/bulk/delete", bookingHandler.BulkDelete)
						})
					})
				}

				if paymentHandler != nil {
					pr.Group(func(rr chi.Router) {
						rr.Use(guard.RequireAnyOfSets(
							[]auth.Capability{auth.CapBookingsRefund},
							[]auth.Capability{auth.CapBookingsEdit},
						))
						rr.Post("/payments/refund", paymentHandler.Refund)
					})
				}

				if auditHandler != nil {
					pr.Group(func(ar chi.Router) {
						ar.Use(guard.RequireRole(auth.RoleAdmin))
						ar.Get("/audit", auditHandler.ListEntries)
					})
				}
			})
		}
	})
}
