// Package settings reads and writes configuration stored in the settings
// table. Values are JSON so the API can round-trip strings, numbers and
// booleans without a schema change.
package settings

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/golden-turf/backoffice/internal/models"
	"gorm.io/gorm"
)

// Store provides typed access to DB-backed configuration.
type Store struct {
	db *gorm.DB
}

// NewStore constructs a Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Value returns the raw JSON value for key, reporting whether it exists.
func (s *Store) Value(key string) (json.RawMessage, bool) {
	if s == nil || s.db == nil {
		return nil, false
	}
	var setting models.Setting
	errFind := s.db.Where("key = ?", key).First(&setting).Error
	if errFind != nil {
		return nil, false
	}
	return setting.Value, true
}

// SetValue stores value under key, JSON-encoding it first.
func (s *Store) SetValue(key string, value any) error {
	encoded, errMarshal := json.Marshal(value)
	if errMarshal != nil {
		return fmt.Errorf("encode setting %s: %w", key, errMarshal)
	}
	var setting models.Setting
	errFind := s.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(errFind, gorm.ErrRecordNotFound) {
		errCreate := s.db.Create(&models.Setting{Key: key, Value: encoded}).Error
		if errCreate != nil {
			return fmt.Errorf("create setting %s: %w", key, errCreate)
		}
		return nil
	}
	if errFind != nil {
		return fmt.Errorf("find setting %s: %w", key, errFind)
	}
	errUpdate := s.db.Model(&models.Setting{}).Where("key = ?", key).Update("value", json.RawMessage(encoded)).Error
	if errUpdate != nil {
		return fmt.Errorf("update setting %s: %w", key, errUpdate)
	}
	return nil
}

// String returns the string value for key, or fallback when missing or not
// parseable.
func (s *Store) String(key, fallback string) string {
	raw, ok := s.Value(key)
	if !ok {
		return fallback
	}
	parsed, okParse := parseString(raw)
	if !okParse {
		return fallback
	}
	return parsed
}

// Int returns the non-negative integer value for key, or fallback.
func (s *Store) Int(key string, fallback int) int {
	raw, ok := s.Value(key)
	if !ok {
		return fallback
	}
	parsed, okParse := parseNonNegativeInt(raw)
	if !okParse {
		return fallback
	}
	return parsed
}

// Bool returns the boolean value for key, or fallback.
func (s *Store) Bool(key string, fallback bool) bool {
	raw, ok := s.Value(key)
	if !ok {
		return fallback
	}
	parsed, okParse := parseBool(raw)
	if !okParse {
		return fallback
	}
	return parsed
}

// Values older than this service wrote strings or numbers where booleans were
// expected, so the parsers coerce across JSON types.

func parseBool(raw json.RawMessage) (bool, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false, false
	}
	var parsedBool bool
	if errUnmarshalBool := json.Unmarshal(raw, &parsedBool); errUnmarshalBool == nil {
		return parsedBool, true
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		switch strings.ToLower(strings.TrimSpace(parsedString)) {
		case "1", "true", "yes", "y", "on":
			return true, true
		case "0", "false", "no", "n", "off":
			return false, true
		default:
			return false, false
		}
	}
	var parsedFloat float64
	if errUnmarshalFloat := json.Unmarshal(raw, &parsedFloat); errUnmarshalFloat == nil {
		if math.IsNaN(parsedFloat) || math.IsInf(parsedFloat, 0) {
			return false, false
		}
		if parsedFloat == 1 {
			return true, true
		}
		if parsedFloat == 0 {
			return false, true
		}
	}
	return false, false
}

func parseString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	var parsedString string
	if errUnmarshal := json.Unmarshal(raw, &parsedString); errUnmarshal == nil {
		return strings.TrimSpace(parsedString), true
	}
	return "", false
}

func parseNonNegativeInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var parsedInt int
	if errUnmarshalInt := json.Unmarshal(raw, &parsedInt); errUnmarshalInt == nil {
		return parsedInt, parsedInt >= 0
	}
	var parsedString string
	if errUnmarshalString := json.Unmarshal(raw, &parsedString); errUnmarshalString == nil {
		parsed, errParse := strconv.Atoi(strings.TrimSpace(parsedString))
		if errParse != nil {
			return 0, false
		}
		return parsed, parsed >= 0
	}
	var parsedFloat float64
	if errUnmarshalFloat := json.Unmarshal(raw, &parsedFloat); errUnmarshalFloat == nil {
		if math.IsNaN(parsedFloat) || math.IsInf(parsedFloat, 0) {
			return 0, false
		}
		if parsedFloat < 0 || parsedFloat != math.Trunc(parsedFloat) {
			return 0, false
		}
		return int(parsedFloat), true
	}
	return 0, false
}
