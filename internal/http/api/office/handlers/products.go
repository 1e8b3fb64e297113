package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	dbutil "github.com/golden-turf/backoffice/internal/db"
	"github.com/golden-turf/backoffice/internal/models"
	"github.com/golden-turf/backoffice/internal/pricing"
	"gorm.io/gorm"
)

// ProductHandler manages the product catalog endpoints.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs a ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

func productResponse(row models.Product) gin.H {
	return gin.H{
		"id":          row.ID,
		"name":        row.Name,
		"category":    row.Category,
		"description": row.Description,
		"price":       row.Price,
		"unit_price":  pricing.ParseAmount(row.Price),
		"stock":       row.Stock,
		"created_at":  row.CreatedAt,
		"updated_at":  row.UpdatedAt,
	}
}

// List returns the catalog, with an optional case-insensitive name search.
func (h *ProductHandler) List(c *gin.Context) {
	q := h.db.WithContext(c.Request.Context()).Model(&models.Product{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		pattern := dbutil.NormalizeLikePattern(h.db, "%"+search+"%")
		q = q.Where(dbutil.CaseInsensitiveLikeExpr(h.db, "name"), pattern)
	}
	if category := strings.TrimSpace(c.Query("category")); category != "" {
		q = q.Where("category = ?", category)
	}

	var rows []models.Product
	if errFind := q.Order("name ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list products failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, productResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

// updateProductRequest defines the request body for product updates. Price
// stays text so "Custom Quote" survives the round trip.
type updateProductRequest struct {
	Description *string `json:"description"`
	Price       *string `json:"price"`
	Stock       *int    `json:"stock"`
}

// Update edits a product's description, price, or stock.
func (h *ProductHandler) Update(c *gin.Context) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var body updateProductRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	updates := map[string]any{}
	if body.Description != nil {
		updates["description"] = strings.TrimSpace(*body.Description)
	}
	if body.Price != nil {
		updates["price"] = strings.TrimSpace(*body.Price)
	}
	if body.Stock != nil {
		if *body.Stock < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stock cannot be negative"})
			return
		}
		updates["stock"] = *body.Stock
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	res := h.db.WithContext(c.Request.Context()).Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update product failed"})
		return
	}
	if res.RowsAffected == 0 {
		var product models.Product
		if errFind := h.db.WithContext(c.Request.Context()).First(&product, id).Error; errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "product updated"})
}
