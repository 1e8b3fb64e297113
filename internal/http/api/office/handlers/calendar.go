package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/calendar"
	"github.com/golden-turf/backoffice/internal/models"
	"gorm.io/gorm"
)

// CalendarHandler serves the month grid for the calendar module.
type CalendarHandler struct {
	db *gorm.DB
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(db *gorm.DB) *CalendarHandler {
	return &CalendarHandler{db: db}
}

// Month returns the month grid with the caller's visible tasks attached to
// their due dates. Defaults to the current month.
func (h *CalendarHandler) Month(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	now := time.Now().UTC()
	year := now.Year()
	month := now.Month()
	if raw := strings.TrimSpace(c.Query("year")); raw != "" {
		parsed, errParse := strconv.Atoi(raw)
		if errParse != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
			return
		}
		year = parsed
	}
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, errParse := strconv.Atoi(raw)
		if errParse != nil || parsed < 1 || parsed > 12 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month"})
			return
		}
		month = time.Month(parsed)
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Task{}).
		Where("due_date >= ? AND due_date < ?", first, next)
	if !seesAll(sess) {
		q = q.Where("owner_id = ?", sess.UserID)
	}

	var rows []models.Task
	if errFind := q.Order("due_date ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list tasks failed"})
		return
	}

	entries := make([]calendar.Entry, 0, len(rows))
	for _, row := range rows {
		if row.DueDate == nil {
			continue
		}
		entries = append(entries, calendar.Entry{
			ID:     row.ID,
			Title:  row.Title,
			Status: string(row.Status),
			Due:    *row.DueDate,
		})
	}

	c.JSON(http.StatusOK, calendar.BuildMonth(year, month, now, entries))
}
