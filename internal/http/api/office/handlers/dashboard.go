package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/models"
	"gorm.io/gorm"
)

// DashboardHandler serves the landing-page summary.
type DashboardHandler struct {
	db *gorm.DB
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(db *gorm.DB) *DashboardHandler {
	return &DashboardHandler{db: db}
}

// Summary returns record counts and revenue figures scoped to the caller's
// visibility.
func (h *DashboardHandler) Summary(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	scoped := func(model any) *gorm.DB {
		q := h.db.WithContext(c.Request.Context()).Model(model)
		if !seesAll(sess) {
			q = q.Where("owner_id = ?", sess.UserID)
		}
		return q
	}

	var clients, invoices, quotes, pendingTasks int64
	if errCount := scoped(&models.Client{}).Count(&clients).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard query failed"})
		return
	}
	if errCount := scoped(&models.Invoice{}).Count(&invoices).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard query failed"})
		return
	}
	if errCount := scoped(&models.Quote{}).Count(&quotes).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard query failed"})
		return
	}
	if errCount := scoped(&models.Task{}).Where("status <> ?", models.TaskStatusCompleted).Count(&pendingTasks).Error; errCount != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard query failed"})
		return
	}

	var paidRevenue, outstanding float64
	errPaid := scoped(&models.Invoice{}).
		Where("status = ?", models.InvoiceStatusPaid).
		Select("COALESCE(SUM(total), 0)").
		Scan(&paidRevenue).Error
	if errPaid != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard query failed"})
		return
	}
	errOutstanding := scoped(&models.Invoice{}).
		Where("status = ?", models.InvoiceStatusPending).
		Select("COALESCE(SUM(total), 0)").
		Scan(&outstanding).Error
	if errOutstanding != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"clients":             clients,
		"invoices":            invoices,
		"quotes":              quotes,
		"pending_tasks":       pendingTasks,
		"paid_revenue":        paidRevenue,
		"outstanding_revenue": outstanding,
	})
}
