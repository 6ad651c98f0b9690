package handler

import (
	"errors"
	"net/http"
	"strings"

	"novatrade/internal/auth"
	"novatrade/internal/repository"

	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUp godoc
// @Summary      Create an account
// @Description  Registers a new user and opens a session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body  credentialsRequest  true  "Email and password"
// @Success      201  {object}  auth.Session
// @Failure      400  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/auth/signup [post]
func (h *Handler) SignUp(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.sign-up")
	defer span.End()

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.authService.CreateAccount(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
		}
		return
	}

	c.JSON(http.StatusCreated, session)
}

// SignIn godoc
// @Summary      Sign in
// @Description  Opens a session for an existing user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        credentials  body  credentialsRequest  true  "Email and password"
// @Success      200  {object}  auth.Session
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/signin [post]
func (h *Handler) SignIn(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.sign-in")
	defer span.End()

	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.authService.SignInWithPassword(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	c.JSON(http.StatusOK, session)
}

// SignOut godoc
// @Summary      Sign out
// @Description  Invalidates the current session token
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string
// @Router       /api/auth/signout [post]
func (h *Handler) SignOut(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.sign-out")
	defer span.End()

	header := strings.TrimSpace(c.GetHeader("Authorization"))
	token, _ := strings.CutPrefix(header, "Bearer ")
	if err := h.authService.SignOut(ctx, token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign out"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "signed out"})
}
