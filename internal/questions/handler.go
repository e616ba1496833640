package questions

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/raisemyhand/backend/internal/middleware"
	"github.com/raisemyhand/backend/internal/models"
	"github.com/raisemyhand/backend/pkg/response"
)

// CreateQuestionRequest is the body for POST /sessions/:id/questions.
type CreateQuestionRequest struct {
	Text string `json:"text"`
}

// AnswerRequest is the body for PUT /questions/:id/answer.
type AnswerRequest struct {
	Text string `json:"text"`
}

// Handler handles question HTTP endpoints.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a questions handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Create handles POST /sessions/:id/questions. Any authenticated role may
// submit; the moderator asking their own question is a normal case.
func (h *Handler) Create(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	if middleware.SessionID(c) != sessionID {
		response.Forbidden(c, "token is not valid for this session")
		return
	}
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	q, err := h.service.Create(c.Request.Context(), sessionID, middleware.VoterToken(c), req.Text)
	if err != nil {
		h.respondErr(c, err, "failed to create question")
		return
	}
	response.Created(c, h.view(c, q))
}

// List handles GET /sessions/:id/questions: the question part of the
// full-state read reconnecting clients use to reconcile.
func (h *Handler) List(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	if middleware.SessionID(c) != sessionID {
		response.Forbidden(c, "token is not valid for this session")
		return
	}
	list, err := h.service.List(c.Request.Context(), sessionID, middleware.Role(c))
	if err != nil {
		h.respondErr(c, err, "failed to list questions")
		return
	}
	response.OK(c, gin.H{"questions": list})
}

// Approve handles POST /questions/:id/approve (moderator).
func (h *Handler) Approve(c *gin.Context) { h.moderate(c, models.ActionApprove) }

// Reject handles POST /questions/:id/reject (moderator).
func (h *Handler) Reject(c *gin.Context) { h.moderate(c, models.ActionReject) }

// Unflag handles POST /questions/:id/unflag (moderator): returns a
// rejected question to the review queue.
func (h *Handler) Unflag(c *gin.Context) { h.moderate(c, models.ActionUnflag) }

// Delete handles DELETE /questions/:id (moderator).
func (h *Handler) Delete(c *gin.Context) { h.moderate(c, models.ActionDelete) }

func (h *Handler) moderate(c *gin.Context, action models.ModerationAction) {
	id, ok := h.questionID(c)
	if !ok {
		return
	}
	q, err := h.service.Moderate(c.Request.Context(), id, action, middleware.SessionID(c))
	if err != nil {
		h.respondErr(c, err, "failed to moderate question")
		return
	}
	if action == models.ActionDelete {
		response.OK(c, gin.H{"id": q.ID, "deleted": true})
		return
	}
	response.OK(c, h.view(c, q))
}

// ToggleAnswered handles POST /questions/:id/answered (moderator).
func (h *Handler) ToggleAnswered(c *gin.Context) {
	id, ok := h.questionID(c)
	if !ok {
		return
	}
	q, err := h.service.ToggleAnswered(c.Request.Context(), id, middleware.SessionID(c))
	if err != nil {
		h.respondErr(c, err, "failed to update question")
		return
	}
	response.OK(c, h.view(c, q))
}

// PublishAnswer handles PUT /questions/:id/answer (moderator).
func (h *Handler) PublishAnswer(c *gin.Context) {
	id, ok := h.questionID(c)
	if !ok {
		return
	}
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	q, err := h.service.PublishAnswer(c.Request.Context(), id, req.Text, middleware.SessionID(c))
	if err != nil {
		h.respondErr(c, err, "failed to publish answer")
		return
	}
	response.OK(c, h.view(c, q))
}

// Vote handles POST /questions/:id/vote. Toggles: the second call from
// the same voter token withdraws the vote.
func (h *Handler) Vote(c *gin.Context) {
	id, ok := h.questionID(c)
	if !ok {
		return
	}
	votes, err := h.service.CastVote(c.Request.Context(), id, middleware.VoterToken(c), middleware.SessionID(c))
	if err != nil {
		h.respondErr(c, err, "failed to cast vote")
		return
	}
	response.OK(c, gin.H{"question_id": id, "vote_count": votes})
}

func (h *Handler) questionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid question id")
		return uuid.Nil, false
	}
	return id, true
}

// view renders a question for the calling role.
func (h *Handler) view(c *gin.Context, q *models.Question) Payload {
	if middleware.Role(c) == models.RoleModerator {
		return h.service.moderatorView(q)
	}
	return h.service.participantView(q)
}

func (h *Handler) respondErr(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrValidation):
		response.BadRequest(c, err.Error())
	case errors.Is(err, models.ErrNotFound):
		response.NotFound(c, "question not found")
	case errors.Is(err, models.ErrSessionClosed),
		errors.Is(err, models.ErrVotingClosed),
		errors.Is(err, models.ErrInvalidTransition):
		response.Conflict(c, err.Error())
	case errors.Is(err, models.ErrNumberingContention):
		response.ServiceUnavailable(c, "high submission volume, please retry")
	default:
		h.logger.Error(msg, zap.Error(err))
		response.Internal(c, msg)
	}
}
