package auth

import (
	"github.com/go-chi/chi/v5"
)

// Router mounts the auth API. Mount it at the application root:
//
//	r := chi.NewRouter()
//	r.Mount("/", auth.Router(svc))
func Router(s *Service) chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)

		// Authenticated account surface.
		r.Group(func(r chi.Router) {
			r.Use(s.RequireAuth)
			r.Get("/me", s.handleMe)
			r.Patch("/profile", s.handleUpdateProfile)
			r.Put("/password", s.handleChangePassword)

			// Destructive operations additionally demand a verified email.
			r.Group(func(r chi.Router) {
				r.Use(RequireVerifiedEmail)
				r.Delete("/account", s.handleDeleteAccount)
				r.Delete("/{provider}/link", s.handleUnlink)
			})
		})

		// Social exchange authenticates inline: link intent needs a
		// session, login and signup do not.
		r.Post("/{provider}", s.handleSocial)
		r.Post("/{provider}/complete-signup", s.handleCompleteSignup)
	})

	return r
}
