package app

import (
	"fmt"
	"os"

	"github.com/golden-turf/backoffice/internal/models"
	"github.com/golden-turf/backoffice/internal/security"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// defaultSQLitePath is the database file written into a generated config.
const defaultSQLitePath = "backoffice.db"

// ConfigExists reports whether the config file exists at the path.
func ConfigExists(configPath string) bool {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return false
	}
	return true
}

// generatedConfig is the YAML shape written on first run.
type generatedConfig struct {
	DatabaseDSN string `yaml:"database-dsn"`
	JWT         struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// EnsureConfig writes a default config file when none exists: a local sqlite
// database, a random JWT secret, and the given port. Existing files are left
// untouched.
func EnsureConfig(configPath string, port int) error {
	if ConfigExists(configPath) {
		return nil
	}

	secret, errSecret := security.GenerateRandomString(32)
	if errSecret != nil {
		return fmt.Errorf("generate jwt secret: %w", errSecret)
	}

	var cfg generatedConfig
	cfg.DatabaseDSN = defaultSQLitePath
	cfg.JWT.Secret = secret
	cfg.Server.Port = port

	data, errMarshal := yaml.Marshal(&cfg)
	if errMarshal != nil {
		return fmt.Errorf("encode config: %w", errMarshal)
	}
	if errWrite := os.WriteFile(configPath, data, 0600); errWrite != nil {
		return fmt.Errorf("write config: %w", errWrite)
	}
	log.Infof("generated default config at %s", configPath)
	return nil
}

// HasUsers reports whether any user account exists.
func HasUsers(conn *gorm.DB) (bool, error) {
	if conn == nil {
		return false, fmt.Errorf("nil db")
	}
	if !conn.Migrator().HasTable(&models.User{}) {
		return false, nil
	}
	var count int64
	if errCount := conn.Model(&models.User{}).Count(&count).Error; errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}
