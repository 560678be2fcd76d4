package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"maintenance-service/internal/service"
)

func (h *Handler) register(c *gin.Context) {
	var req struct {
		Username        string `json:"username" binding:"required,max=150"`
		Email           string `json:"email" binding:"omitempty,email"`
		Password        string `json:"password" binding:"required,min=6"`
		PasswordConfirm string `json:"password_confirm" binding:"required,min=6"`
		FirstName       string `json:"first_name" binding:"max=150"`
		LastName        string `json:"last_name" binding:"max=150"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, messageResponse("registration successful", user))
}

func (h *Handler) obtainToken(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, errorResponse("no active account found with the given credentials"))
			return
		}
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access":  res.Tokens.Access,
		"refresh": res.Tokens.Refresh,
		"user":    res.User,
	})
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req struct {
		Refresh string `json:"refresh" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	access, err := h.authService.Refresh(c.Request.Context(), req.Refresh)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access": access})
}
