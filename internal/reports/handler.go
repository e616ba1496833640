package reports

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raisemyhand/backend/internal/middleware"
	"github.com/raisemyhand/backend/internal/models"
	"github.com/raisemyhand/backend/pkg/response"
)

// Handler handles report HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a reports handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Get handles GET /sessions/:id/report (moderator). Available while the
// session is live as well as after it ends.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	if middleware.SessionID(c) != id {
		response.Forbidden(c, "token is not valid for this session")
		return
	}

	rep, err := h.repo.Build(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "session not found")
			return
		}
		h.logger.Error("build session report", zap.Error(err))
		response.Internal(c, "failed to build report")
		return
	}
	response.OK(c, rep)
}
