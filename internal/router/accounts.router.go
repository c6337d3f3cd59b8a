package router

import (
	"accounts-service/internal/handler"
	"accounts-service/internal/middleware"
	"accounts-service/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func SetupRoutes(
	r chi.Router,
	h *handler.AccountHandler,
	auth *usecase.AuthUsecase,
	audit *usecase.AuditUsecase,
	logger *zap.Logger,
) chi.Router {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestLogger(logger))

	r.Route("/api/v1", func(api chi.Router) {
		// ---------------- Public ----------------
		api.Group(func(pub chi.Router) {
			pub.Get("/accounts/health", h.Health)
			pub.Post("/accounts/register", h.HandleRegister)
			pub.Post("/accounts/login", h.HandleLogin)
			pub.Post("/accounts/otp/request", h.HandleRequestOTP)
			pub.Post("/accounts/otp/verify", h.HandleVerifyOTP)
		})

		// ---------------- Authenticated ----------------
		api.Group(func(g chi.Router) {
			g.Use(middleware.RequireAuth(auth))
			g.Use(middleware.VisitRecorder(audit, logger))

			g.Post("/accounts/logout", h.HandleLogout)
			g.Put("/accounts/password", h.HandleChangePassword)
			g.Put("/accounts/email", h.HandleChangeEmail)
			g.Patch("/accounts/profile", h.HandleChangeProfile)

			g.Get("/accounts/logins", h.HandleListLoginAttempts)
			g.Get("/accounts/visits", h.HandleListVisits)
		})
	})

	return r
}
