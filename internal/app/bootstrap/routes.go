// internal/app/bootstrap/routes.go
package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	accountfeature "github.com/taskcamp/taskcamp/internal/app/features/account"
	healthfeature "github.com/taskcamp/taskcamp/internal/app/features/health"
	notesfeature "github.com/taskcamp/taskcamp/internal/app/features/notes"
	projectsfeature "github.com/taskcamp/taskcamp/internal/app/features/projects"
	tasksfeature "github.com/taskcamp/taskcamp/internal/app/features/tasks"
	memberstore "github.com/taskcamp/taskcamp/internal/app/store/members"
	notestore "github.com/taskcamp/taskcamp/internal/app/store/notes"
	projectstore "github.com/taskcamp/taskcamp/internal/app/store/projects"
	subtaskstore "github.com/taskcamp/taskcamp/internal/app/store/subtasks"
	taskstore "github.com/taskcamp/taskcamp/internal/app/store/tasks"
	userstore "github.com/taskcamp/taskcamp/internal/app/store/users"
	"github.com/taskcamp/taskcamp/internal/app/system/auth"
	"github.com/taskcamp/taskcamp/internal/app/system/mailer"
	"github.com/taskcamp/taskcamp/internal/app/system/token"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It builds the stores, the token service,
// the auth gate, and mounts the feature routers under /api/v1.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	users := userstore.New(db)
	projects := projectstore.New(db)
	members := memberstore.New(db)
	tasks := taskstore.New(db)
	subtasks := subtaskstore.New(db)
	notes := notestore.New(db)

	tokens := token.New(token.Config{
		AccessSecret:  appCfg.AccessTokenSecret,
		RefreshSecret: appCfg.RefreshTokenSecret,
		AccessTTL:     appCfg.AccessTokenExpiry,
		RefreshTTL:    appCfg.RefreshTokenExpiry,
		OneShotTTL:    appCfg.TempTokenExpiry,
	})

	// The gate re-fetches the user on each request, so disabled accounts and
	// profile changes take effect immediately.
	gate := auth.NewGate(tokens, userstore.NewFetcher(db), logger)

	var mail mailer.Sender
	if appCfg.MailSMTPHost != "" {
		mail = mailer.NewSMTPSender(mailer.Config{
			Host:     appCfg.MailSMTPHost,
			Port:     appCfg.MailSMTPPort,
			Username: appCfg.MailSMTPUser,
			Password: appCfg.MailSMTPPass,
			From:     appCfg.MailFrom,
		}, logger)
	} else {
		logger.Warn("no SMTP host configured, mail will be logged instead of sent")
		mail = &mailer.LogSender{Log: logger}
	}

	accountHandler := accountfeature.NewHandler(users, tokens, mail, accountfeature.Config{
		SiteName:                  appCfg.SiteName,
		BaseURL:                   appCfg.BaseURL,
		ForgotPasswordRedirectURL: appCfg.ForgotPasswordRedirectURL,
		SecureCookies:             coreCfg.Env == "prod",
		OneShotExpiryText:         expiryText(appCfg.TempTokenExpiry),
	}, logger)

	projectsHandler := projectsfeature.NewHandler(projects, members, users, logger)
	tasksHandler := tasksfeature.NewHandler(tasks, subtasks, members, logger)
	notesHandler := notesfeature.NewHandler(notes, logger)
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)

	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Route("/api/v1", func(api chi.Router) {
		api.Mount("/healthcheck", healthfeature.Routes(healthHandler))
		api.Mount("/users", accountfeature.Routes(accountHandler, gate))
		api.Mount("/projects", projectsfeature.Routes(projectsHandler, gate, members, logger))
		api.Mount("/tasks", tasksfeature.Routes(tasksHandler, gate, members, logger))
		api.Mount("/notes", notesfeature.Routes(notesHandler, gate, members, logger))
	})

	return r, nil
}

// requestLogger logs one line per request with method, path, status, and
// duration.
func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// expiryText renders a duration for email copy, e.g. "20 minutes" or "1 hour".
func expiryText(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	}
	m := int(d / time.Minute)
	if m <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", m)
}
