package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/auth"
)

func (h *handler) login(c *gin.Context) {
	var body loginBody
	if !h.bind(c, &body) {
		return
	}
	token, u, err := h.auth.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("user logged in", "user_id", u.ID, "role", u.Role)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": toUser(*u)})
}

func (h *handler) me(c *gin.Context) {
	u, err := h.Users.GetByID(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil {
		h.fail(c, apperr.Unauthorized("usuário não encontrado"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUser(*u)})
}

func (h *handler) logout(c *gin.Context) {
	claims, _ := c.Get(claimsKey)
	if cl, isClaims := claims.(*auth.Claims); isClaims {
		if err := h.auth.Logout(c.Request.Context(), cl); err != nil {
			h.fail(c, err)
			return
		}
	}
	message(c, "sessão encerrada")
}

func (h *handler) dashboardStats(c *gin.Context) {
	st, err := h.Dashboard.Stats(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toStats(st))
}
