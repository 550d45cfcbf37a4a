package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/auth"
)

func (h *handler) listUsers(c *gin.Context) {
	us, err := h.Users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(us, toUser))
}

func (h *handler) getUser(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	u, err := h.Users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if u == nil {
		h.fail(c, apperr.NotFound("usuário não encontrado"))
		return
	}
	c.JSON(http.StatusOK, toUser(*u))
}

func (h *handler) createUser(c *gin.Context) {
	var body userBody
	if !h.bind(c, &body) {
		return
	}
	hash, err := auth.HashPassword(body.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	id, err := h.Users.Create(c.Request.Context(), body.input(), hash)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("user created", "user_id", id, "role", body.Role, "actor_id", identity(c).UserID)
	created(c, id, "usuário criado com sucesso")
}

// updateUser keeps the current password when none is sent.
func (h *handler) updateUser(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var body userBody
	if !h.bind(c, &body) {
		return
	}
	var hash string
	if body.Password != "" {
		var err error
		if hash, err = auth.HashPassword(body.Password); err != nil {
			h.fail(c, err)
			return
		}
	}
	if err := h.Users.Update(c.Request.Context(), id, body.input(), hash); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "usuário atualizado com sucesso")
}

func (h *handler) deleteUser(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	if id == identity(c).UserID {
		h.fail(c, apperr.BusinessRule("você não pode excluir o próprio usuário"))
		return
	}
	if err := h.Users.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "usuário excluído com sucesso")
}
