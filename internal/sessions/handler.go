package sessions

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/raisemyhand/backend/internal/auth"
	"github.com/raisemyhand/backend/internal/middleware"
	"github.com/raisemyhand/backend/internal/models"
	"github.com/raisemyhand/backend/internal/realtime"
	"github.com/raisemyhand/backend/pkg/response"
)

// CreateRequest is the body for POST /sessions.
type CreateRequest struct {
	Title    string `json:"title"`
	Password string `json:"password"`
}

// JoinRequest is the body for POST /sessions/join/:code.
type JoinRequest struct {
	Password string `json:"password"`
}

// Handler handles session HTTP endpoints.
type Handler struct {
	store  Store
	jwt    *auth.JWTService
	hub    *realtime.Hub
	logger *zap.Logger
}

// NewHandler creates a sessions handler.
func NewHandler(store Store, jwt *auth.JWTService, hub *realtime.Hub, logger *zap.Logger) *Handler {
	return &Handler{store: store, jwt: jwt, hub: hub, logger: logger}
}

// Create handles POST /sessions. Public: anyone can open a room and
// becomes its moderator via the returned token.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		response.BadRequest(c, "title is required")
		return
	}

	s := &models.Session{
		Code:          NewJoinCode(),
		Title:         title,
		State:         models.SessionActive,
		VotingEnabled: true,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			response.Internal(c, "failed to create session")
			return
		}
		s.PasswordHash = string(hash)
	}
	if err := h.store.Create(c.Request.Context(), s); err != nil {
		h.logger.Error("create session", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}

	token, err := h.jwt.GenerateModerator(s.ID)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.Created(c, gin.H{"session": s, "moderator_token": token})
}

// Join handles POST /sessions/join/:code. Public: mints a participant
// token with a fresh anonymous voter token.
func (h *Handler) Join(c *gin.Context) {
	s, err := h.store.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	var req JoinRequest
	_ = c.ShouldBindJSON(&req)
	if s.HasPassword() {
		if bcrypt.CompareHashAndPassword([]byte(s.PasswordHash), []byte(req.Password)) != nil {
			response.Unauthorized(c, "invalid session password")
			return
		}
	}
	token, voterToken, err := h.jwt.GenerateParticipant(s.ID)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.OK(c, gin.H{"session": s, "participant_token": token, "voter_token": voterToken})
}

// Get handles GET /sessions/:id: the session metadata part of the
// full-state read reconnecting clients use to reconcile.
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	s, err := h.store.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "session not found")
		return
	}
	response.OK(c, s)
}

// ToggleVoting handles POST /sessions/:id/voting/toggle (moderator).
// Flips voting_enabled without touching existing vote rows.
func (h *Handler) ToggleVoting(c *gin.Context) {
	id, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	enabled, err := h.store.ToggleVoting(c.Request.Context(), id)
	if err != nil {
		h.respondErr(c, err, "failed to toggle voting")
		return
	}

	h.hub.Publish(realtime.Event{
		Name:        realtime.EventVotingStateChanged,
		SessionID:   id,
		Moderator:   gin.H{"session_id": id, "voting_enabled": enabled},
		Participant: gin.H{"session_id": id, "voting_enabled": enabled},
	})
	response.OK(c, gin.H{"id": id, "voting_enabled": enabled})
}

// End handles POST /sessions/:id/end (moderator). Question and vote
// writes fail once the session is ended.
func (h *Handler) End(c *gin.Context) {
	id, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	if err := h.store.End(c.Request.Context(), id); err != nil {
		h.respondErr(c, err, "failed to end session")
		return
	}

	h.hub.Publish(realtime.Event{
		Name:        realtime.EventSessionEnded,
		SessionID:   id,
		Moderator:   gin.H{"session_id": id},
		Participant: gin.H{"session_id": id},
	})
	response.OK(c, gin.H{"id": id, "state": models.SessionEnded})
}

// Restart handles POST /sessions/:id/restart (moderator). No-op when the
// session is already active; question numbering continues from the prior
// maximum.
func (h *Handler) Restart(c *gin.Context) {
	id, ok := h.sessionFromPath(c)
	if !ok {
		return
	}
	if err := h.store.Restart(c.Request.Context(), id); err != nil {
		h.respondErr(c, err, "failed to restart session")
		return
	}
	response.OK(c, gin.H{"id": id, "state": models.SessionActive})
}

// sessionFromPath parses :id and verifies the caller's token is scoped to
// that session.
func (h *Handler) sessionFromPath(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return uuid.Nil, false
	}
	if middleware.SessionID(c) != id {
		response.Forbidden(c, "token is not valid for this session")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondErr(c *gin.Context, err error, msg string) {
	if errors.Is(err, models.ErrNotFound) {
		response.NotFound(c, "session not found")
		return
	}
	h.logger.Error(msg, zap.Error(err))
	response.Internal(c, msg)
}
