package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/access"
	dbutil "github.com/golden-turf/backoffice/internal/db"
	"github.com/golden-turf/backoffice/internal/models"
	"github.com/golden-turf/backoffice/internal/permissions"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// UserHandler manages user administration endpoints. All role and permission
// mutations go through the access service so its invariants hold.
type UserHandler struct {
	db     *gorm.DB
	access *access.Service
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db, access: access.NewService(db)}
}

func userResponse(row models.User) gin.H {
	return gin.H{
		"id":          row.ID,
		"name":        row.Name,
		"email":       row.Email,
		"role":        row.Role,
		"permissions": permissions.Parse(row.Permissions),
		"created_at":  row.CreatedAt,
		"updated_at":  row.UpdatedAt,
	}
}

// List returns users with optional search filters.
func (h *UserHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.User{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(
			dbutil.CaseInsensitiveLikeExpr(h.db, "name")+" OR "+dbutil.CaseInsensitiveLikeExpr(h.db, "email"),
			pattern,
			pattern,
		)
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		q = q.Where("role = ?", role)
	}

	var rows []models.User
	if errFind := q.Order("id ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list users failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, userResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func parseIDParam(c *gin.Context) (uint64, bool) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

// Get returns a user by ID.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var user models.User
	if errFind := h.db.WithContext(c.Request.Context()).First(&user, id).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}

// updateUserRequest defines the request body for profile edits by an admin.
type updateUserRequest struct {
	Name string `json:"name"`
}

// Update edits a user's display name. Roles and permissions have their own
// endpoints.
func (h *UserHandler) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body updateUserRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", id).
		Update("name", name)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update user failed"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user updated"})
}

// Delete removes a user. IDs are re-sequenced afterwards, so any cached user
// ID is stale; self-deletion invalidates the caller's session.
func (h *UserHandler) Delete(c *gin.Context) {
	sess, okSess := SessionFrom(c)
	if !okSess {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	outcome, errDelete := h.access.DeleteUser(c.Request.Context(), id, sess.UserID)
	if errDelete != nil {
		if errors.Is(errDelete, access.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		log.WithError(errDelete).Error("delete user failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete user failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":          "user deleted",
		"self_deleted":     outcome.SelfDeleted,
		"auto_promoted":    outcome.AutoPromoted,
		"promoted_user_id": outcome.PromotedUserID,
	})
}

// Promote grants the admin role and the full permission set.
func (h *UserHandler) Promote(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if errPromote := h.access.PromoteToAdmin(c.Request.Context(), id); errPromote != nil {
		if errors.Is(errPromote, access.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "promote user failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user promoted"})
}

// Demote removes the admin role. Self-demotion and demoting the last admin
// are rejected.
func (h *UserHandler) Demote(c *gin.Context) {
	sess, okSess := SessionFrom(c)
	if !okSess {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	errDemote := h.access.DemoteFromAdmin(c.Request.Context(), id, sess.UserID)
	switch {
	case errDemote == nil:
		c.JSON(http.StatusOK, gin.H{"message": "user demoted"})
	case errors.Is(errDemote, access.ErrSelfRoleChange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot change your own role"})
	case errors.Is(errDemote, access.ErrLastAdmin):
		c.JSON(http.StatusConflict, gin.H{"error": "cannot demote the last admin"})
	case errors.Is(errDemote, access.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "demote user failed"})
	}
}

// updatePermissionsRequest defines the request body for permission updates.
type updatePermissionsRequest struct {
	Permissions []string `json:"permissions"`
}

// UpdatePermissions overwrites a user's stored permission set.
func (h *UserHandler) UpdatePermissions(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var body updatePermissionsRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	errUpdate := h.access.UpdatePermissions(c.Request.Context(), id, body.Permissions)
	if errUpdate != nil {
		if errors.Is(errUpdate, access.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errUpdate.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "permissions updated"})
}

// ListPermissions returns the known module definitions.
func (h *UserHandler) ListPermissions(c *gin.Context) {
	definitions := permissions.Definitions()
	out := make([]gin.H, 0, len(definitions))
	for _, definition := range definitions {
		out = append(out, gin.H{"name": definition.Name, "label": definition.Label})
	}
	c.JSON(http.StatusOK, gin.H{"permissions": out})
}
