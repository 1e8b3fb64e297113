package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/golden-turf/backoffice/internal/db"
	"github.com/golden-turf/backoffice/internal/models"
	"gorm.io/gorm"
)

// ClientHandler manages client record endpoints.
type ClientHandler struct {
	db *gorm.DB
}

// NewClientHandler constructs a ClientHandler.
func NewClientHandler(db *gorm.DB) *ClientHandler {
	return &ClientHandler{db: db}
}

// clientRequest defines the request body for client creation and updates.
type clientRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Address string `json:"address"`
}

func clientResponse(row models.Client) gin.H {
	return gin.H{
		"id":         row.ID,
		"name":       row.Name,
		"email":      row.Email,
		"phone":      row.Phone,
		"company":    row.Company,
		"address":    row.Address,
		"owner_id":   row.OwnerID,
		"created_at": row.CreatedAt,
		"updated_at": row.UpdatedAt,
	}
}

// Create creates a client record owned by the caller.
func (h *ClientHandler) Create(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	var body clientRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}

	client := models.Client{
		Name:    name,
		Email:   strings.TrimSpace(body.Email),
		Phone:   strings.TrimSpace(body.Phone),
		Company: strings.TrimSpace(body.Company),
		Address: strings.TrimSpace(body.Address),
		OwnerID: sess.UserID,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&client).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create client failed"})
		return
	}
	c.JSON(http.StatusCreated, clientResponse(client))
}

// List returns the clients visible to the caller, with an optional
// case-insensitive name search.
func (h *ClientHandler) List(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	q := h.db.WithContext(c.Request.Context()).Model(&models.Client{})
	if !seesAll(sess) {
		q = q.Where("owner_id = ?", sess.UserID)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name")+" OR "+dbutil.CaseInsensitiveLikeExpr(h.db, "company"), pattern, pattern)
	}

	var rows []models.Client
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list clients failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, clientResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"clients": out})
}

// findVisible loads a client by ID enforcing the caller's visibility.
func (h *ClientHandler) findVisible(c *gin.Context) (*models.Client, bool) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return nil, false
	}
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}

	var client models.Client
	errFind := h.db.WithContext(c.Request.Context()).First(&client, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if !seesAll(sess) && client.OwnerID != sess.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return &client, true
}

// Get returns a client by ID.
func (h *ClientHandler) Get(c *gin.Context) {
	client, ok := h.findVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, clientResponse(*client))
}

// Update edits a client record.
func (h *ClientHandler) Update(c *gin.Context) {
	client, ok := h.findVisible(c)
	if !ok {
		return
	}
	var body clientRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(body.Name); name != "" {
		updates["name"] = name
	}
	updates["email"] = strings.TrimSpace(body.Email)
	updates["phone"] = strings.TrimSpace(body.Phone)
	updates["company"] = strings.TrimSpace(body.Company)
	updates["address"] = strings.TrimSpace(body.Address)

	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Client{}).
		Where("id = ?", client.ID).
		Updates(updates).Error
	if errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update client failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "client updated"})
}

// Delete removes a client record.
func (h *ClientHandler) Delete(c *gin.Context) {
	client, ok := h.findVisible(c)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Client{}, client.ID).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete client failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "client deleted"})
}
