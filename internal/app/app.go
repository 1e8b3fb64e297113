// Package app boots the back-office server: configuration, database,
// routes, and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/config"
	"github.com/golden-turf/backoffice/internal/db"
	"github.com/golden-turf/backoffice/internal/http/api/office"
	"github.com/golden-turf/backoffice/internal/ratelimit"
	internalsettings "github.com/golden-turf/backoffice/internal/settings"
	log "github.com/sirupsen/logrus"
)

const shutdownGrace = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the HTTP API with database-backed components and serves
// until the context is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}

	jwtConfig, _ := config.LoadJWTConfig(configPath)
	if jwtConfig.Secret == "" {
		return fmt.Errorf("missing jwt secret (set `jwt.secret` in config file or JWT_SECRET)")
	}
	serverConfig, _ := config.LoadServerConfig(configPath)

	store := internalsettings.NewStore(conn)
	limiter := ratelimit.NewManager(func() ratelimit.Config {
		return ratelimit.LoadConfig(store)
	}, nil, nil)

	hasUsers, errUsers := HasUsers(conn)
	if errUsers != nil {
		return errUsers
	}
	if !hasUsers {
		log.Info("no accounts yet; the first registered user becomes the admin")
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogMiddleware())
	office.RegisterOfficeRoutes(engine, office.Deps{
		DB:           conn,
		JWT:          jwtConfig,
		Settings:     store,
		LoginLimiter: limiter,
	})

	server := &http.Server{
		Addr:              serverConfig.Addr(),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return <-errCh
	case errServe := <-errCh:
		return errServe
	}
}

// requestLogMiddleware logs each request with method, path, status, and
// latency.
func requestLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(log.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request")
	}
}
