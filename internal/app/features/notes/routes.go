package notes

import (
	"github.com/go-chi/chi/v5"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/authz"
	"go.uber.org/zap"
)

// Routes mounts the note routes. Typically:
// r.Mount("/notes", notes.Routes(handler, gate, resolver, logger))
func Routes(h *Handler, gate *auth.Gate, resolver authz.Resolver, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireUser)

	anyMember := authz.RequireProjectRole(resolver, logger,
		authz.RoleAdministrator, authz.RoleProjectAdmin, authz.RoleMember)
	adminOnly := authz.RequireProjectRole(resolver, logger, authz.RoleAdministrator)

	r.Route("/{projectId}", func(pr chi.Router) {
		pr.With(anyMember).Get("/", h.HandleList)
		pr.With(adminOnly).Post("/", h.HandleCreate)

		pr.With(anyMember).Get("/n/{noteId}", h.HandleGet)
		pr.With(adminOnly).Put("/n/{noteId}", h.HandleUpdate)
		pr.With(adminOnly).Delete("/n/{noteId}", h.HandleDelete)
	})

	return r
}
