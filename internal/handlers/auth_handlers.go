package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/readnow/bookshop-api/internal/auth"
	"github.com/readnow/bookshop-api/internal/models"
)

//
// --- Account Handlers ---
//

// RegisterInput is kept separate from models.User so a caller can never
// supply an id or a role.
type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register is the handler for POST /api/auth/register.
// New accounts always get the "customer" role.
func (h *Handlers) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// Email uniqueness is enforced here and by the unique index.
	var existingID int64
	err := h.DB.QueryRow("SELECT id FROM users WHERE email = ?", input.Email).Scan(&existingID)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "User already exists"})
		return
	}
	if err != sql.ErrNoRows {
		h.internalError(c, "failed to check existing email", err)
		return
	}

	var password models.Password
	if err := password.Set(input.Password); err != nil {
		h.internalError(c, "failed to hash password", err)
		return
	}

	user := &models.User{
		Name:      input.Name,
		Email:     input.Email,
		Role:      "customer",
		CreatedAt: time.Now(),
	}
	user.PasswordHash = password.Hash

	result, err := h.DB.Exec(
		"INSERT INTO users (name, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)",
		user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt,
	)
	if err != nil {
		h.internalError(c, "failed to insert user", err)
		return
	}
	user.ID, err = result.LastInsertId()
	if err != nil {
		h.internalError(c, "failed to get new user ID", err)
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		h.internalError(c, "failed to generate token", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"token":   token,
		"user":    user,
	})
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /api/auth/login.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	var user models.User
	err := h.DB.QueryRow(
		"SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = ?",
		input.Email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// Same message as a bad password, to avoid exposing account existence
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
			return
		}
		h.internalError(c, "failed to fetch user for login", err)
		return
	}

	password := models.Password{Hash: user.PasswordHash}
	matches, err := password.Matches(input.Password)
	if err != nil {
		h.internalError(c, "failed to compare password", err)
		return
	}
	if !matches {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		h.internalError(c, "failed to generate token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Me is the handler for GET /api/auth/me.
func (h *Handlers) Me(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var user models.User
	err := h.DB.QueryRow(
		"SELECT id, name, email, role, created_at FROM users WHERE id = ?",
		userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
			return
		}
		h.internalError(c, "failed to fetch user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfileInput covers the self-service profile edit: name and email only.
// There is deliberately no password field here.
type UpdateProfileInput struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

// UpdateProfile is the handler for PUT /api/auth/profile.
func (h *Handlers) UpdateProfile(c *gin.Context) {
	userIDRaw, _ := c.Get("userID")
	userID := userIDRaw.(int64)

	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// The new email must not belong to someone else.
	var otherID int64
	err := h.DB.QueryRow("SELECT id FROM users WHERE email = ? AND id <> ?", input.Email, userID).Scan(&otherID)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email already in use"})
		return
	}
	if err != sql.ErrNoRows {
		h.internalError(c, "failed to check email uniqueness", err)
		return
	}

	result, err := h.DB.Exec("UPDATE users SET name = ?, email = ? WHERE id = ?", input.Name, input.Email, userID)
	if err != nil {
		h.internalError(c, "failed to update profile", err)
		return
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		// The row can only be missing if the account was deleted under us.
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}

	var user models.User
	err = h.DB.QueryRow(
		"SELECT id, name, email, role, created_at FROM users WHERE id = ?",
		userID,
	).Scan(&user.ID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		h.internalError(c, "failed to fetch updated user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}
