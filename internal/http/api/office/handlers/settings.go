package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	internalsettings "github.com/golden-turf/backoffice/internal/settings"
)

// editableSettings are the keys exposed through the API.
var editableSettings = []string{
	internalsettings.SiteNameKey,
	internalsettings.LoginRateLimitKey,
	internalsettings.RateLimitRedisEnabledKey,
	internalsettings.RateLimitRedisAddrKey,
	internalsettings.RateLimitRedisPasswordKey,
	internalsettings.RateLimitRedisDBKey,
	internalsettings.RateLimitRedisPrefixKey,
}

// SettingHandler manages DB-backed settings endpoints.
type SettingHandler struct {
	store *internalsettings.Store
}

// NewSettingHandler constructs a SettingHandler.
func NewSettingHandler(store *internalsettings.Store) *SettingHandler {
	return &SettingHandler{store: store}
}

func knownSettingKey(key string) bool {
	for _, candidate := range editableSettings {
		if candidate == key {
			return true
		}
	}
	return false
}

// List returns every exposed setting with its current value.
func (h *SettingHandler) List(c *gin.Context) {
	out := make([]gin.H, 0, len(editableSettings))
	for _, key := range editableSettings {
		value, ok := h.store.Value(key)
		if !ok {
			value = json.RawMessage("null")
		}
		out = append(out, gin.H{"key": key, "value": value})
	}
	c.JSON(http.StatusOK, gin.H{"settings": out})
}

// Get returns one setting by key.
func (h *SettingHandler) Get(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if !knownSettingKey(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting"})
		return
	}
	value, ok := h.store.Value(key)
	if !ok {
		value = json.RawMessage("null")
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

// updateSettingRequest defines the request body for setting updates.
type updateSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

// Update stores a new value for a setting.
func (h *SettingHandler) Update(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if !knownSettingKey(key) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown setting"})
		return
	}
	var body updateSettingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if len(body.Value) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing value"})
		return
	}

	var decoded any
	if errDecode := json.Unmarshal(body.Value, &decoded); errDecode != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value must be valid json"})
		return
	}
	if errSet := h.store.SetValue(key, decoded); errSet != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update setting failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "setting updated"})
}
