package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/models"
	"gorm.io/gorm"
)

// TaskHandler manages task endpoints.
type TaskHandler struct {
	db *gorm.DB
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(db *gorm.DB) *TaskHandler {
	return &TaskHandler{db: db}
}

// taskRequest defines the request body for task creation and updates.
type taskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"` // ISO date, empty clears the date.
	Status      string `json:"status"`
}

func taskResponse(row models.Task) gin.H {
	due := ""
	if row.DueDate != nil {
		due = row.DueDate.Format("2006-01-02")
	}
	return gin.H{
		"id":          row.ID,
		"title":       row.Title,
		"description": row.Description,
		"due_date":    due,
		"status":      row.Status,
		"owner_id":    row.OwnerID,
		"created_at":  row.CreatedAt,
		"updated_at":  row.UpdatedAt,
	}
}

// parseDueDate parses an ISO date, returning nil for the empty string.
func parseDueDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	due, errParse := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if errParse != nil {
		return nil, errParse
	}
	return &due, nil
}

func validTaskStatus(status models.TaskStatus) bool {
	switch status {
	case models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusCompleted:
		return true
	}
	return false
}

// Create creates a task owned by the caller.
func (h *TaskHandler) Create(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	var body taskRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	title := strings.TrimSpace(body.Title)
	if title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing title"})
		return
	}
	due, errDue := parseDueDate(body.DueDate)
	if errDue != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
		return
	}
	status := models.TaskStatusPending
	if raw := strings.TrimSpace(body.Status); raw != "" {
		status = models.TaskStatus(raw)
		if !validTaskStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
	}

	task := models.Task{
		Title:       title,
		Description: strings.TrimSpace(body.Description),
		DueDate:     due,
		Status:      status,
		OwnerID:     sess.UserID,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&task).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create task failed"})
		return
	}
	c.JSON(http.StatusCreated, taskResponse(task))
}

// List returns the tasks visible to the caller, optionally filtered by
// status.
func (h *TaskHandler) List(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	q := h.db.WithContext(c.Request.Context()).Model(&models.Task{})
	if !seesAll(sess) {
		q = q.Where("owner_id = ?", sess.UserID)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}

	var rows []models.Task
	if errFind := q.Order("due_date ASC, created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list tasks failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, taskResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"tasks": out})
}

// findVisible loads a task by ID enforcing the caller's visibility.
func (h *TaskHandler) findVisible(c *gin.Context) (*models.Task, bool) {
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

	var task models.Task
	errFind := h.db.WithContext(c.Request.Context()).First(&task, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if !seesAll(sess) && task.OwnerID != sess.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return &task, true
}

// Update edits a task's fields.
func (h *TaskHandler) Update(c *gin.Context) {
	task, ok := h.findVisible(c)
	if !ok {
		return
	}
	var body taskRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if title := strings.TrimSpace(body.Title); title != "" {
		updates["title"] = title
	}
	updates["description"] = strings.TrimSpace(body.Description)
	due, errDue := parseDueDate(body.DueDate)
	if errDue != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
		return
	}
	updates["due_date"] = due
	if raw := strings.TrimSpace(body.Status); raw != "" {
		status := models.TaskStatus(raw)
		if !validTaskStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		updates["status"] = status
	}

	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Task{}).
		Where("id = ?", task.ID).
		Updates(updates).Error
	if errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update task failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task updated"})
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	task, ok := h.findVisible(c)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Task{}, task.ID).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete task failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "task deleted"})
}
