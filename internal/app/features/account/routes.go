package account

import (
	"github.com/go-chi/chi/v5"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
)

// Routes mounts the account routes. Typically:
// r.Mount("/users", account.Routes(handler, gate))
func Routes(h *Handler, gate *auth.Gate) chi.Router {
	r := chi.NewRouter()

	// Unauthenticated flows.
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Get("/verify-email/{verificationToken}", h.HandleVerifyEmail)
	r.Post("/refresh-token", h.HandleRefreshToken)
	r.Post("/forgot-password", h.HandleForgotPassword)
	r.Post("/reset-password/{resetToken}", h.HandleResetPassword)

	// Session-bound flows.
	r.Group(func(pr chi.Router) {
		pr.Use(gate.RequireUser)

		pr.Post("/logout", h.HandleLogout)
		pr.Get("/current-user", h.HandleCurrentUser)
		pr.Post("/resend-email-verification", h.HandleResendVerification)
		pr.Post("/change-password", h.HandleChangePassword)
	})

	return r
}
