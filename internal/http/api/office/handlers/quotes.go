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

// QuoteHandler manages quote endpoints.
type QuoteHandler struct {
	db *gorm.DB
}

// NewQuoteHandler constructs a QuoteHandler.
func NewQuoteHandler(db *gorm.DB) *QuoteHandler {
	return &QuoteHandler{db: db}
}

// createQuoteRequest defines the request body for quote creation.
type createQuoteRequest struct {
	ClientName   string       `json:"client_name"`
	Product      string       `json:"product"`
	Area         float64      `json:"area"`
	Extras       []extraInput `json:"extras"`
	TaxInclusive bool         `json:"tax_inclusive"`
}

func quoteResponse(row models.Quote) gin.H {
	var lines []pricing.Line
	_ = json.Unmarshal(row.Extras, &lines)
	return gin.H{
		"id":          row.ID,
		"client_name": row.ClientName,
		"product":     row.Product,
		"area":        row.Area,
		"subtotal":    row.Subtotal,
		"tax":         row.Tax,
		"total":       row.Total,
		"extras":      lines,
		"owner_id":    row.OwnerID,
		"created_at":  row.CreatedAt,
		"updated_at":  row.UpdatedAt,
	}
}

// Create prices and stores a quote owned by the caller.
func (h *QuoteHandler) Create(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}
	var body createQuoteRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	clientName := strings.TrimSpace(body.ClientName)
	if clientName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing client_name"})
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
	quote := models.Quote{
		ClientName: clientName,
		Product:    strings.TrimSpace(body.Product),
		Area:       body.Area,
		Subtotal:   result.Subtotal,
		Tax:        result.TaxAmount,
		Total:      result.GrandTotal,
		Extras:     datatypes.JSON(extras),
		OwnerID:    sess.UserID,
	}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&quote).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create quote failed"})
		return
	}
	c.JSON(http.StatusCreated, quoteResponse(quote))
}

// List returns the quotes visible to the caller.
func (h *QuoteHandler) List(c *gin.Context) {
	sess, ok := SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing session"})
		return
	}

	q := h.db.WithContext(c.Request.Context()).Model(&models.Quote{})
	if !seesAll(sess) {
		q = q.Where("owner_id = ?", sess.UserID)
	}

	var rows []models.Quote
	if errFind := q.Order("created_at DESC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list quotes failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, quoteResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"quotes": out})
}

// findVisible loads a quote by ID enforcing the caller's visibility.
func (h *QuoteHandler) findVisible(c *gin.Context) (*models.Quote, bool) {
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

	var quote models.Quote
	errFind := h.db.WithContext(c.Request.Context()).First(&quote, id).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return nil, false
	}
	if !seesAll(sess) && quote.OwnerID != sess.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return nil, false
	}
	return &quote, true
}

// Get returns a quote by ID.
func (h *QuoteHandler) Get(c *gin.Context) {
	quote, ok := h.findVisible(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, quoteResponse(*quote))
}

// Delete removes a quote.
func (h *QuoteHandler) Delete(c *gin.Context) {
	quote, ok := h.findVisible(c)
	if !ok {
		return
	}
	if errDelete := h.db.WithContext(c.Request.Context()).Delete(&models.Quote{}, quote.ID).Error; errDelete != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete quote failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quote deleted"})
}
