package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golden-turf/backoffice/internal/access"
	"github.com/golden-turf/backoffice/internal/config"
	"github.com/golden-turf/backoffice/internal/models"
	"github.com/golden-turf/backoffice/internal/ratelimit"
	"github.com/golden-turf/backoffice/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	resetTokenTTL       = 30 * time.Minute
	verificationCodeTTL = 10 * time.Minute
)

// AuthHandler manages registration, login and credential recovery.
type AuthHandler struct {
	db      *gorm.DB
	jwtCfg  config.JWTConfig
	limiter *ratelimit.Manager
	access  *access.Service
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig, limiter *ratelimit.Manager) *AuthHandler {
	return &AuthHandler{
		db:      db,
		jwtCfg:  jwtCfg,
		limiter: limiter,
		access:  access.NewService(db),
	}
}

// registerRequest defines the request body for account registration.
type registerRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	Permissions []string `json:"permissions"`
}

// Register creates a new account. The first account becomes an admin with
// the full permission set.
func (h *AuthHandler) Register(c *gin.Context) {
	var body registerRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing name"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || !strings.Contains(email, "@") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}
	password := strings.TrimSpace(body.Password)
	if len(password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}

	user, errRegister := h.access.Register(c.Request.Context(), name, email, hash, body.Permissions)
	if errRegister != nil {
		if errors.Is(errRegister, access.ErrEmailConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		log.WithError(errRegister).Error("register failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "register failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// loginRequest defines the request body for login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session token. Attempts are rate
// limited per client IP.
func (h *AuthHandler) Login(c *gin.Context) {
	if h.limiter != nil {
		result, errAllow := h.limiter.Allow(c.Request.Context(), ratelimit.LoginKey(c.ClientIP()))
		if errAllow != nil {
			log.WithError(errAllow).Warn("login rate limit check failed")
		} else if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts"})
			return
		}
	}

	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" || strings.TrimSpace(body.Password) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing credentials"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if errFind != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if !security.CheckPassword(user.Password, body.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, errToken := security.IssueUserToken(h.jwtCfg.Secret, user.ID, h.jwtCfg.Expiry)
	if errToken != nil {
		log.WithError(errToken).Error("issue token failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "issue token failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// emailRequest defines a request body carrying only an email address.
type emailRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset issues a reset token for the account. The response is
// the same whether or not the account exists.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var body emailRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if errFind == nil {
		token, errToken := security.GenerateRandomString(32)
		if errToken != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "issue reset token failed"})
			return
		}
		expiry := time.Now().UTC().Add(resetTokenTTL)
		errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]any{
				"reset_token":        token,
				"reset_token_expiry": expiry,
			}).Error
		if errUpdate != nil {
			log.WithError(errUpdate).Error("store reset token failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "issue reset token failed"})
			return
		}
		log.WithField("user_id", user.ID).Info("password reset token issued")
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a reset token was issued"})
}

// resetConfirmRequest defines the request body for completing a reset.
type resetConfirmRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ConfirmPasswordReset exchanges a valid reset token for a new password.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var body resetConfirmRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	token := strings.TrimSpace(body.Token)
	password := strings.TrimSpace(body.NewPassword)
	if email == "" || token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or token"})
		return
	}
	if len(password) < 6 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 6 characters"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if errFind != nil || user.ResetToken == "" || user.ResetToken != token {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid reset token"})
		return
	}
	if user.ResetTokenExpiry == nil || time.Now().UTC().After(*user.ResetTokenExpiry) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "reset token expired"})
		return
	}

	hash, errHash := security.HashPassword(password)
	if errHash != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash password failed"})
		return
	}
	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"password":           hash,
			"reset_token":        "",
			"reset_token_expiry": nil,
		}).Error
	if errUpdate != nil {
		log.WithError(errUpdate).Error("reset password failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reset password failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password updated"})
}

// RequestVerificationCode issues a short-lived one-time code for the account.
func (h *AuthHandler) RequestVerificationCode(c *gin.Context) {
	var body emailRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if errFind == nil {
		code, errCode := security.GenerateVerificationCode(6)
		if errCode != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "issue verification code failed"})
			return
		}
		expiry := time.Now().UTC().Add(verificationCodeTTL)
		errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
			Where("id = ?", user.ID).
			Updates(map[string]any{
				"verification_code":   code,
				"verification_expiry": expiry,
			}).Error
		if errUpdate != nil {
			log.WithError(errUpdate).Error("store verification code failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "issue verification code failed"})
			return
		}
		log.WithField("user_id", user.ID).Info("verification code issued")
	}
	c.JSON(http.StatusOK, gin.H{"message": "if the account exists, a verification code was issued"})
}

// verifyConfirmRequest defines the request body for verifying a code.
type verifyConfirmRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// ConfirmVerificationCode checks a one-time code and clears it on success.
func (h *AuthHandler) ConfirmVerificationCode(c *gin.Context) {
	var body verifyConfirmRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	email := strings.ToLower(strings.TrimSpace(body.Email))
	code := strings.TrimSpace(body.Code)
	if email == "" || code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing email or code"})
		return
	}

	var user models.User
	errFind := h.db.WithContext(c.Request.Context()).Where("email = ?", email).First(&user).Error
	if errFind != nil || user.VerificationCode == "" || user.VerificationCode != code {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid verification code"})
		return
	}
	if user.VerificationExpiry == nil || time.Now().UTC().After(*user.VerificationExpiry) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "verification code expired"})
		return
	}

	errUpdate := h.db.WithContext(c.Request.Context()).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"verification_code":   "",
			"verification_expiry": nil,
		}).Error
	if errUpdate != nil {
		log.WithError(errUpdate).Error("clear verification code failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verify failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "verified"})
}
