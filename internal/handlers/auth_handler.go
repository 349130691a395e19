package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/harentsoaR/carrental-api/internal/middleware"
	"github.com/harentsoaR/carrental-api/internal/models"
	"github.com/harentsoaR/carrental-api/internal/store"
	"github.com/harentsoaR/carrental-api/internal/utils"
	"github.com/harentsoaR/carrental-api/internal/validation"
)

type SignupRequest struct {
	FirstName string `json:"firstName" validate:"required,min=2,alphaspace"`
	LastName  string `json:"lastName" validate:"required,min=2,alphaspace"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,hasupper,haslower,hasdigit,hasspecial"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin"`
}

func (r *SignupRequest) normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.Password = strings.TrimSpace(r.Password)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest holds the admin-editable profile fields. Nil means unchanged.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=2,alphaspace"`
	LastName  *string `json:"lastName" validate:"omitempty,min=2,alphaspace"`
	Password  *string `json:"password" validate:"omitempty,min=8,hasupper,haslower,hasdigit,hasspecial"`
	Role      *string `json:"role" validate:"omitempty,oneof=user admin"`
	Status    *string `json:"status" validate:"omitempty,oneof=active inactive suspended"`
}

func (r *UpdateUserRequest) normalize() {
	for _, s := range []*string{r.FirstName, r.LastName, r.Password} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

func (r *UpdateUserRequest) empty() bool {
	return r.FirstName == nil && r.LastName == nil && r.Password == nil && r.Role == nil && r.Status == nil
}

// Signup registers a new account. Admin accounts need ALLOW_ADMIN_SIGNUP.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	req.normalize()
	if err := validation.Struct(req); err != nil {
		badInput(c, err)
		return
	}
	email := strings.ToLower(req.Email)

	if req.Role == models.RoleAdmin && !h.Settings.AllowAdminSignup {
		c.JSON(http.StatusForbidden, gin.H{"message": "Admin accounts can only be created by an administrator"})
		return
	}

	ctx := c.Request.Context()
	if _, err := h.Users.FindByEmail(ctx, email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		h.internalError(c, "signup: lookup email", err)
		return
	}

	hashed, err := utils.HashPassword(req.Password, h.Settings.BcryptCost)
	if err != nil {
		h.internalError(c, "signup: hash password", err)
		return
	}

	user := &models.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Password:  hashed,
		Role:      req.Role,
	}
	if err := h.Users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent signup for the same address.
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
			return
		}
		h.internalError(c, "signup: create user", err)
		return
	}

	h.Log.Info("user registered", zap.String("userId", user.ID.Hex()), zap.String("role", user.Role))
	h.Notifier.UserCreated(user)

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user.Summary(),
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Password = strings.TrimSpace(req.Password)
	if err := validation.Struct(req); err != nil {
		badInput(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.FindByEmail(ctx, strings.ToLower(req.Email))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}
	if err != nil {
		h.internalError(c, "login: lookup user", err)
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid email or password"})
		return
	}

	if err := h.Users.TouchLastLogin(ctx, user.ID); err != nil {
		h.Log.Warn("login: update lastLogin", zap.Error(err), zap.String("userId", user.ID.Hex()))
	}

	token, err := h.Tokens.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		h.internalError(c, "login: generate token", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

// ValidateUser resolves the bearer token to the stored profile.
func (h *Handler) ValidateUser(c *gin.Context) {
	token := middleware.BearerToken(c.GetHeader("Authorization"))
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "No token provided"})
		return
	}

	claims, err := h.Tokens.ValidateJWT(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token"})
		return
	}

	user, err := h.Users.FindByID(c.Request.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		h.internalError(c, "validate: load user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// GetAllUsers lists users newest first with per-status and per-role counts.
func (h *Handler) GetAllUsers(c *gin.Context) {
	page := pageFromQuery(c)

	res, err := h.Users.List(c.Request.Context(), strings.TrimSpace(c.Query("email")), page)
	if err != nil {
		h.internalError(c, "list users", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"data":    res.Users,
		"pagination": gin.H{
			"page":       page.Page,
			"limit":      page.Limit,
			"total":      res.Total,
			"totalPages": page.TotalPages(res.Total),
		},
		"stats": res.Stats,
	})
}

func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := objectIDParam(c, "user")
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badInput(c, err)
		return
	}
	req.normalize()
	if err := validation.Struct(req); err != nil {
		badInput(c, err)
		return
	}
	if req.empty() {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No update fields provided"})
		return
	}

	update := store.UserUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
		Status:    req.Status,
	}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password, h.Settings.BcryptCost)
		if err != nil {
			h.internalError(c, "update user: hash password", err)
			return
		}
		update.Password = &hashed
	}

	user, err := h.Users.Update(c.Request.Context(), id, update)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"message": "Email already in use by another account"})
		return
	case err != nil:
		h.internalError(c, "update user", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    user,
	})
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := objectIDParam(c, "user")
	if !ok {
		return
	}

	user, err := h.Users.Delete(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		h.internalError(c, "delete user", err)
		return
	}

	h.Log.Info("user deleted", zap.String("userId", id.Hex()), zap.String("by", c.GetString(middleware.ContextUserID)))

	summary := user.Summary()
	summary.Role, summary.Status = "", ""
	c.JSON(http.StatusOK, gin.H{
		"message":     "User deleted successfully",
		"deletedUser": summary,
	})
}
