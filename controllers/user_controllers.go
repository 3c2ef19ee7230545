package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/table-order/models"
	"github.com/yeremiapane/table-order/services"
	"github.com/yeremiapane/table-order/session"
	"github.com/yeremiapane/table-order/utils"
)

type UserController struct {
	Users  *services.UserService
	Issuer *session.Issuer
}

func NewUserController(users *services.UserService, issuer *session.Issuer) *UserController {
	return &UserController{Users: users, Issuer: issuer}
}

// Login checks the credentials and returns a session token.
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := uc.Users.Authenticate(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		utils.InfoLogger.Printf("Failed login for %q from %s", input.Username, c.ClientIP())
		respondServiceError(c, err)
		return
	}

	token, s, err := uc.Issuer.Issue(*user)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Username, user.Role)
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":        token,
		"role":         s.Role,
		"expires_at":   s.Expires,
		"capabilities": s.Capabilities(),
	})
}

// GetProfile returns the caller's session.
func (uc *UserController) GetProfile(c *gin.Context) {
	s := session.From(c)
	utils.RespondJSON(c, http.StatusOK, "Profile", gin.H{
		"id":           s.UserID,
		"username":     s.Username,
		"role":         s.Role,
		"capabilities": s.Capabilities(),
	})
}

func (uc *UserController) CreateUser(c *gin.Context) {
	var req struct {
		Username string      `json:"username" binding:"required"`
		Password string      `json:"password" binding:"required"`
		Role     models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := uc.Users.CreateUser(c.Request.Context(), req.Username, req.Password, req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.InfoLogger.Printf("New user created: %s (role=%s) by %s", user.Username, user.Role, session.From(c).Username)
	utils.RespondJSON(c, http.StatusCreated, "User created", user)
}

func (uc *UserController) GetAllUsers(c *gin.Context) {
	users, err := uc.Users.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All users", users)
}
