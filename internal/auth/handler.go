package auth

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/database"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/identity"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/logs"
	"github.com/MMortalxAlpha/Mind-Mortal-WebApp/internal/user"
)

// Handler proxies signup and login to the identity provider and keeps the
// local profiles table in sync.
type Handler struct {
	IDP *identity.Client
}

func NewHandler(idp *identity.Client) *Handler {
	return &Handler{IDP: idp}
}

// Signup registers the account with the identity provider, then creates the
// matching profile row.
func (h *Handler) Signup(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
		FullName string `json:"full_name"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if input.Email == "" || input.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	if user.ExistsByEmail(input.Email) {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
		return
	}

	respBytes, status, err := h.IDP.Signup(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity provider unreachable"})
		return
	}
	if status >= 400 {
		c.JSON(status, gin.H{"error": "Signup failed", "details": string(respBytes)})
		return
	}

	var authResp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if err := json.Unmarshal(respBytes, &authResp); err != nil || authResp.User.ID == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity provider returned no user id"})
		return
	}

	username := input.Username
	if username == "" {
		username = input.Email
	}

	profile := user.Profile{
		ID:        authResp.User.ID,
		CreatedAt: time.Now(),
		Username:  username,
		FullName:  input.FullName,
		Email:     input.Email,
	}

	if err := database.DB.Create(&profile).Error; err != nil {
		logs.LogJSON("ERROR", "Profile creation failed after signup", map[string]interface{}{
			"error":  err.Error(),
			"userID": authResp.User.ID,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created",
		"user":    profile,
	})
}

// Login exchanges credentials for a session and relays the provider response
// verbatim.
func (h *Handler) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	respBytes, status, err := h.IDP.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Identity provider unreachable"})
		return
	}

	c.Data(status, "application/json", respBytes)
}
