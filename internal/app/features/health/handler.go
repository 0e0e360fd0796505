// Package health serves the liveness endpoint.
package health

import (
	"context"
	"net/http"

	"github.com/taskcamp/taskcamp/internal/app/system/respond"
	"github.com/taskcamp/taskcamp/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client and logger.
func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{Client: client, Log: logger}
}

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Serve handles GET /healthcheck. 200 when the database answers a ping,
// 503 otherwise.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("healthcheck: mongo ping failed", zap.Error(err))
		respond.Error(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	respond.JSON(w, http.StatusOK, healthStatus{Status: "ok", Database: "connected"}, "health check passed")
}
