package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/raisemyhand/backend/internal/auth"
	"github.com/raisemyhand/backend/internal/models"
	"github.com/raisemyhand/backend/pkg/response"
)

const (
	// ContextSessionID is the key for the token's session ID in gin context.
	ContextSessionID = "session_id"
	// ContextRole is the key for the caller role in gin context.
	ContextRole = "role"
	// ContextVoterToken is the key for the participant voter token in gin context.
	ContextVoterToken = "voter_token"
)

// JWT returns a middleware that validates the session token and sets
// claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Unauthorized(c, "missing authorization header")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, "invalid authorization header")
			c.Abort()
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(ContextSessionID, claims.SessionID)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextVoterToken, claims.VoterToken)
		c.Next()
	}
}

// SessionID returns the token's session ID from context.
func SessionID(c *gin.Context) uuid.UUID {
	return c.MustGet(ContextSessionID).(uuid.UUID)
}

// Role returns the caller role from context.
func Role(c *gin.Context) models.Role {
	return c.MustGet(ContextRole).(models.Role)
}

// VoterToken returns the participant voter token from context ("" for
// moderators).
func VoterToken(c *gin.Context) string {
	return c.MustGet(ContextVoterToken).(string)
}
