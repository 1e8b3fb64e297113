package db

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golden-turf/backoffice/internal/models"
	internalsettings "github.com/golden-turf/backoffice/internal/settings"
	"gorm.io/gorm"
)

// Migrate applies the schema and seeds default rows.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}

	if errAutoMigrate := conn.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Invoice{},
		&models.Quote{},
		&models.Task{},
		&models.Product{},
		&models.Setting{},
	); errAutoMigrate != nil {
		return fmt.Errorf("db: migrate: %w", errAutoMigrate)
	}

	if errSeed := seedProducts(conn); errSeed != nil {
		return errSeed
	}
	if errSeed := ensureDefaultSettings(conn); errSeed != nil {
		return errSeed
	}
	return nil
}

// defaultProducts are the catalog rows seeded into an empty database.
var defaultProducts = []models.Product{
	{Name: "Golden Imperial Lush", Category: "Synthetic Turf", Description: "Premium synthetic turf designed for a lush, natural look.", Price: "38.00", Stock: 100},
	{Name: "Golden Green Lush", Category: "Synthetic Turf", Description: "Artificial grass with vibrant green color, ideal for backyards.", Price: "30.00", Stock: 150},
	{Name: "Golden Natural 40mm", Category: "Synthetic Turf", Description: "Realistic 40mm pile height turf, perfect for residential lawns.", Price: "32.00", Stock: 200},
	{Name: "Golden Golf Turf", Category: "Synthetic Turf", Description: "Specially crafted for golf putting and chipping.", Price: "40.00", Stock: 50},
	{Name: "Golden Premium Turf", Category: "Synthetic Turf", Description: "High-grade synthetic grass for premium landscaping projects.", Price: "35.00", Stock: 75},
	{Name: "Peg (U-pins/Nails)", Category: "Accessory", Description: "Used for securing turf.", Price: "2.50", Stock: 500},
	{Name: "Fountains", Category: "Accessory", Description: "Decorative fountains, priced per job.", Price: "Custom Quote", Stock: 20},
	{Name: "Artificial Hedges", Category: "Accessory", Description: "Hedges for decoration.", Price: "15.00", Stock: 200},
	{Name: "Black Pebbles", Category: "Pebbles", Description: "20kg bag of black pebbles.", Price: "5.00", Stock: 150},
	{Name: "White Pebbles", Category: "Pebbles", Description: "20kg bag of white pebbles.", Price: "5.50", Stock: 150},
	{Name: "Bamboo Products", Category: "Accessory", Description: "Various sizes of bamboo.", Price: "25.00", Stock: 100},
	{Name: "Adhesive Joining Tape", Category: "Accessory", Description: "Tape for joining turf.", Price: "8.00", Stock: 300},
}

// seedProducts inserts the default catalog when the products table is empty.
func seedProducts(conn *gorm.DB) error {
	var count int64
	if errCount := conn.Model(&models.Product{}).Count(&count).Error; errCount != nil {
		return fmt.Errorf("db: count products: %w", errCount)
	}
	if count > 0 {
		return nil
	}
	products := make([]models.Product, len(defaultProducts))
	copy(products, defaultProducts)
	if errCreate := conn.Create(&products).Error; errCreate != nil {
		return fmt.Errorf("db: seed products: %w", errCreate)
	}
	return nil
}

// ensureDefaultSettings seeds missing settings rows with their defaults.
func ensureDefaultSettings(conn *gorm.DB) error {
	defaults := map[string]any{
		internalsettings.SiteNameKey:              internalsettings.DefaultSiteName,
		internalsettings.LoginRateLimitKey:        internalsettings.DefaultLoginRateLimit,
		internalsettings.RateLimitRedisEnabledKey: false,
		internalsettings.RateLimitRedisPrefixKey:  internalsettings.DefaultRateLimitRedisPrefix,
	}
	for key, value := range defaults {
		var existing models.Setting
		errFind := conn.Where("key = ?", key).First(&existing).Error
		if errFind == nil {
			continue
		}
		if !errors.Is(errFind, gorm.ErrRecordNotFound) {
			return fmt.Errorf("db: read setting %s: %w", key, errFind)
		}
		payload, errMarshal := json.Marshal(value)
		if errMarshal != nil {
			return fmt.Errorf("db: marshal setting %s: %w", key, errMarshal)
		}
		setting := models.Setting{Key: key, Value: payload}
		if errCreate := conn.Create(&setting).Error; errCreate != nil {
			return fmt.Errorf("db: seed setting %s: %w", key, errCreate)
		}
	}
	return nil
}
