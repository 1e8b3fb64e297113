// Package handlers implements the office API endpoints.
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/access"
	"github.com/golden-turf/backoffice/internal/models"
)

// sessionContextKey is the gin context key holding the caller's session.
const sessionContextKey = "officeSession"

// SetSession stores the caller's access session on the request context.
func SetSession(c *gin.Context, sess access.Session) {
	c.Set(sessionContextKey, sess)
}

// SessionFrom returns the caller's access session from the request context.
func SessionFrom(c *gin.Context) (access.Session, bool) {
	value, ok := c.Get(sessionContextKey)
	if !ok {
		return access.Session{}, false
	}
	sess, ok := value.(access.Session)
	return sess, ok
}

// seesAll reports whether the session sees every owner's records. Admins and
// the bootstrap account see all; other users see only their own rows.
func seesAll(sess access.Session) bool {
	return sess.UserID == 1 || sess.Role == models.RoleAdmin
}
