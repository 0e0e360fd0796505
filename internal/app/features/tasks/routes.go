package tasks

import (
	"github.com/go-chi/chi/v5"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/authz"
	"go.uber.org/zap"
)

// Routes mounts the task routes. Typically:
// r.Mount("/tasks", tasks.Routes(handler, gate, resolver, logger))
func Routes(h *Handler, gate *auth.Gate, resolver authz.Resolver, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(gate.RequireUser)

	anyMember := authz.RequireProjectRole(resolver, logger,
		authz.RoleAdministrator, authz.RoleProjectAdmin, authz.RoleMember)
	adminRoles := authz.RequireProjectRole(resolver, logger,
		authz.RoleAdministrator, authz.RoleProjectAdmin)

	r.Route("/{projectId}", func(pr chi.Router) {
		pr.With(anyMember).Get("/", h.HandleList)
		pr.With(adminRoles).Post("/", h.HandleCreate)

		pr.With(anyMember).Get("/t/{taskId}", h.HandleGet)
		pr.With(adminRoles).Put("/t/{taskId}", h.HandleUpdate)
		pr.With(adminRoles).Delete("/t/{taskId}", h.HandleDelete)
		pr.With(adminRoles).Post("/t/{taskId}/subtasks", h.HandleCreateSubTask)

		pr.With(anyMember).Put("/st/{subTaskId}", h.HandleUpdateSubTask)
		pr.With(adminRoles).Delete("/st/{subTaskId}", h.HandleDeleteSubTask)
	})

	return r
}
