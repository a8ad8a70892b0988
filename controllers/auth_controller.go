package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/mohamedzeina/node-social/middleware"
	"github.com/mohamedzeina/node-social/services"
	"github.com/mohamedzeina/node-social/utils"
)

// AuthController handles signup, login and the status endpoints.
type AuthController struct {
	auth *services.AuthService
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(auth *services.AuthService) *AuthController {
	return &AuthController{auth: auth}
}

// Signup registers a new account.
func (a *AuthController) Signup(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, 400, 40001, "invalid request payload")
		return
	}

	user, err := a.auth.Signup(services.SignupInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Created(ctx, "user created", gin.H{"userId": user.ID})
}

// Login verifies credentials and returns a token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, 400, 40002, "invalid request payload")
		return
	}

	token, userID, err := a.auth.Login(req.Email, req.Password)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{"token": token, "userId": userID})
}

// GetStatus returns the acting user's status text.
func (a *AuthController) GetStatus(ctx *gin.Context) {
	status, err := a.auth.Status(middleware.CurrentIdentity(ctx))
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"status": status})
}

// UpdateStatus replaces the acting user's status text.
func (a *AuthController) UpdateStatus(ctx *gin.Context) {
	var req struct {
		Status string `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, 400, 40003, "invalid request payload")
		return
	}

	user, err := a.auth.UpdateStatus(middleware.CurrentIdentity(ctx), req.Status)
	if err != nil {
		respondServiceError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"status": user.Status})
}
