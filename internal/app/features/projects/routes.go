package projects

import (
	"github.com/go-chi/chi/v5"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/authz"
	"go.uber.org/zap"
)

// Routes mounts the project routes. Typically:
// r.Mount("/projects", projects.Routes(handler, gate, resolver, logger))
func Routes(h *Handler, gate *auth.Gate, resolver authz.Resolver, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireUser)

	anyMember := authz.RequireProjectRole(resolver, logger,
		authz.RoleAdministrator, authz.RoleProjectAdmin, authz.RoleMember)
	adminOnly := authz.RequireProjectRole(resolver, logger, authz.RoleAdministrator)

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)

	r.Route("/{projectId}", func(pr chi.Router) {
		pr.With(anyMember).Get("/", h.HandleGet)
		pr.With(adminOnly).Put("/", h.HandleUpdate)
		pr.With(adminOnly).Delete("/", h.HandleDelete)

		pr.With(anyMember).Get("/members", h.HandleListMembers)
		pr.With(adminOnly).Post("/members", h.HandleInvite)
		pr.With(adminOnly).Put("/members/{userId}", h.HandleUpdateMemberRole)
		pr.With(adminOnly).Delete("/members/{userId}", h.HandleRemoveMember)
	})

	return r
}
