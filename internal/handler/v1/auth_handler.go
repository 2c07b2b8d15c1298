package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.d.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.d.Auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}
	respondOK(c, pair)
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.d.Auth.ChangePassword(c.Request.Context(), actor(c).UserID, req.CurrentPassword, req.NewPassword); err != nil {
		h.respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
