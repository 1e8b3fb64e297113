package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/models"
	"github.com/golden-turf/backoffice/internal/pricing"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InvoiceHandler manages invoice endpoints.
type InvoiceHandler struct {
	db *gorm.DB
}

// NewInvoiceHandler constructs an InvoiceHandler.
func NewInvoiceHandler(db *gorm.DB) *InvoiceHandler {
	return &InvoiceHandler{db: db}
}

// createInvoiceRequest defines the request body for invoice creation.
type createInvoiceRequest struct {
	ClientID     uint64       `json:"client_id"`
	Product      string       `json:"product"`
	Area         float64      `json:"area"`
	Extras       []extraInput `json:"extras"`
	TaxInclusive bool         `json:"tax_inclusive"`
}

func invoiceResponse(row models.Invoice) gin.H {
	var lines []pricing.Line
	_ = json.Unmarshal(row.Extras, &lines)
	return gin.H{
		"id":         row.ID,
		"client_id":  row.ClientID,
		"product":    row.Product,
		"area":       row.Area,
		"subtotal":   row.Subtotal,
		"tax":        row.Tax,
		"total":      row.Total,
		"extras":     lines,
		"status":     row.Status,
		"owner_id":   row.OwnerID,
		"created_at": row.CreatedAt,
		"updated_at": row.UpdatedAt,
	}
}

// Create prices and stores an invoice for a client visible to the caller.
func (h *InvoiceHandler) Create(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	var body createInvoiceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if body.ClientID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing client_id"})
		return
	}

	var client models.Client
	errClient := h.db.WithContext(c.Request.Context()).First(&client, body.ClientID).Error
	if errClient != nil {
		if errors.Is(errClient, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !seesAll(sess) && client.OwnerID != sess.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "client not found"})
		return
	}

	catalog, errCatalog := loadCatalog(c.Request.Context(), h.db)
	if errCatalog != nil {
		log.WithError(errCatalog).Error("load catalog failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load catalog failed"})
		return
	}
	result := pricing.ComputeTotal(catalog, pricing.Request{
		Product:      strings.TrimSpace(body.Product),
		Area:         body.Area,
		Extras:       toPricingExtras(body.Extras),
		TaxInclusive: body.TaxInclusive,
	})

	extras, errMarshal := json.Marshal(result.Lines)
	if errMarshal != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode extras failed"})
		return
	}
	invoice := models.Invoice{
		ClientID: client.ID,
		Product:  strings.TrimSpace(body.Product),
		Area:     body.Area,
		Subtotal: result.Subtotal,
		Tax:      result.TaxAmount,
		Total:    result.GrandTotal,
		Extras:   datatypes.JSON(extras),
		Status:   models.InvoiceStatusPending,
		OwnerID:  sess.UserID,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&invoice).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create invoice failed"})
		return
	}
	c.JSON(http.StatusCreated, invoiceResponse(invoice))
}

// List returns the invoices visible to the caller, optionally filtered by
// status or client.
func (h *InvoiceHandler) List(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	q := h.db.WithContext(c.Request.Context()).Model(&models.Invoice{})
	if !seesAll(sess) {
		q = q.Where("owner_id = ?", sess.UserID)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		q = q.Where("status = ?", status)
	}
	if clientQ := strings.TrimSpace(c.Query("client_id")); clientQ != "" {
		if clientID, errParse := strconv.ParseUint(clientQ, 10, 64); errParse == nil {
			q = q.Where("client_id = ?", clientID)
		}
	}

	var rows []models.Invoice
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list invoices failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, invoiceResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"invoices": out})
}

// findVisible loads an invoice by ID enforcing the caller's visibility.
func (h *InvoiceHandler) findVisible(c *gin.Context) (*models.Invoice, bool) {
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

	var invoice models.Invoice
	errFind := h.db.WithContext(c.Request.Context()).First(&invoice, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if !seesAll(sess) && invoice.OwnerID != sess.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return &invoice, true
}

// Get returns an invoice by ID.
func (h *InvoiceHandler) Get(c *gin.Context) {
	invoice, ok := h.findVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, invoiceResponse(*invoice))
}

// updateStatusRequest defines the request body for status changes.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus marks an invoice pending or paid.
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	invoice, ok := h.findVisible(c)
	if !ok {
		return
	}
	var body updateStatusRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	status := models.InvoiceStatus(strings.TrimSpace(body.Status))
	if status != models.InvoiceStatusPending && status != models.InvoiceStatusPaid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.Invoice{}).
		Where("id = ?", invoice.ID).
		Update("status", status).Error
	if errUpdate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update invoice failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invoice updated"})
}

// Delete removes an invoice.
func (h *InvoiceHandler) Delete(c *gin.Context) {
	invoice, ok := h.findVisible(c)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Invoice{}, invoice.ID).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete invoice failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invoice deleted"})
}
