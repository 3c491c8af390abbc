package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quitjourney/quitjourney/config"
	"github.com/quitjourney/quitjourney/middleware"
	"github.com/quitjourney/quitjourney/models"
	"github.com/quitjourney/quitjourney/utils"
)

// AuthController handles registration, login and token lifecycle endpoints.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates a new controller instance.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// Register creates an account plus its empty profile and signs the user in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req registerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "email and password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !validEmail(email) {
		utils.Error(ctx, http.StatusBadRequest, 40002, "invalid email address")
		return
	}
	if len(req.Password) < 8 || len(req.Password) > 72 {
		utils.Error(ctx, http.StatusBadRequest, 40003, "password must be 8-72 characters")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50001, "failed to process password")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}

	err = a.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		profile := models.UserProfile{
			UserID: user.ID,
			Name:   utils.Sanitize(strings.TrimSpace(req.Name)),
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			utils.Error(ctx, http.StatusConflict, 40901, "email already registered")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50002, "failed to create account")
		return
	}

	tokens, err := a.issueTokens(&user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50003, "failed to issue tokens")
		return
	}

	utils.Created(ctx, gin.H{"user": a.loadUserPayload(user.ID), "tokens": tokens})
}

// Login authenticates with email and password.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "email and password are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	var user models.User
	if err := a.db.Where("email = ? AND is_active = ?", email, true).First(&user).Error; err != nil {
		// Same response for unknown email and wrong password.
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid email or password")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "invalid email or password")
		return
	}

	tokens, err := a.issueTokens(&user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to issue tokens")
		return
	}

	utils.Success(ctx, gin.H{"user": a.loadUserPayload(user.ID), "tokens": tokens})
}

// Refresh exchanges a valid refresh token for a fresh token pair. The used
// refresh token is revoked so each one works exactly once.
func (a *AuthController) Refresh(ctx *gin.Context) {
	var req refreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "refresh_token is required")
		return
	}

	claims, err := utils.ParseToken(req.RefreshToken)
	if err != nil || claims.Kind != utils.TokenKindRefresh {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "invalid refresh token")
		return
	}
	if utils.IsTokenBlacklisted(claims.ID) {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "refresh token revoked")
		return
	}

	var user models.User
	if err := a.db.First(&user, claims.UserID).Error; err != nil || !user.IsActive {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "account unavailable")
		return
	}

	tokens, err := a.issueTokens(&user)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to issue tokens")
		return
	}

	if claims.ExpiresAt != nil {
		utils.BlacklistToken(claims.ID, claims.ExpiresAt.Time)
	}

	utils.Success(ctx, gin.H{"tokens": tokens})
}

// Logout revokes the current access token and, when supplied, the refresh token.
func (a *AuthController) Logout(ctx *gin.Context) {
	if v, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok && claims.ExpiresAt != nil {
			utils.BlacklistToken(claims.ID, claims.ExpiresAt.Time)
		}
	}

	var req refreshRequest
	if err := ctx.ShouldBindJSON(&req); err == nil && req.RefreshToken != "" {
		if claims, err := utils.ParseToken(req.RefreshToken); err == nil && claims.ExpiresAt != nil {
			utils.BlacklistToken(claims.ID, claims.ExpiresAt.Time)
		}
	}

	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated account with its profile.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.Preload("Profile").First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40401, "user not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to load user")
		return
	}

	utils.Success(ctx, user)
}

type tokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

func (a *AuthController) issueTokens(user *models.User) (*tokenPair, error) {
	access, err := utils.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	a.db.Model(user).Update("last_login_at", &now)

	return &tokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(accessTokenTTL().Seconds()),
	}, nil
}

func (a *AuthController) loadUserPayload(userID uint) *models.User {
	var user models.User
	if err := a.db.Preload("Profile").First(&user, userID).Error; err != nil {
		return nil
	}
	return &user
}

func accessTokenTTL() time.Duration {
	return time.Duration(config.Get().AccessTokenTTLMin) * time.Minute
}

func validEmail(s string) bool {
	if len(s) < 3 || len(s) > 255 {
		return false
	}
	at := strings.Index(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return strings.Contains(s[at+1:], ".") && !strings.ContainsAny(s, " \t")
}
