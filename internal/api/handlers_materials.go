package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/school-supply/internal/apperr"
)

func (h *handler) listMaterials(c *gin.Context) {
	ms, err := h.Materials.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(ms, toMaterial))
}

func (h *handler) searchMaterials(c *gin.Context) {
	q := strings.TrimSpace(c.Query("query"))
	if q == "" {
		h.badRequest(c, "query é obrigatório")
		return
	}
	ms, err := h.Materials.Search(c.Request.Context(), q)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(ms, toMaterial))
}

func (h *handler) lowStockMaterials(c *gin.Context) {
	ms, err := h.Materials.ListLowStock(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(ms, toMaterial))
}

func (h *handler) getMaterial(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	m, err := h.Materials.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if m == nil {
		h.fail(c, apperr.NotFound("material não encontrado"))
		return
	}
	c.JSON(http.StatusOK, toMaterial(*m))
}

func (h *handler) materialMovements(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	moves, err := h.Movements.ListMovements(c.Request.Context(), id, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(moves, toMovement))
}

func (h *handler) createMaterial(c *gin.Context) {
	var body materialBody
	if !h.bind(c, &body) {
		return
	}
	id, err := h.Materials.Create(c.Request.Context(), body.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, id, "material criado com sucesso")
}

func (h *handler) updateMaterial(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var body materialBody
	if !h.bind(c, &body) {
		return
	}
	if err := h.Materials.Update(c.Request.Context(), id, body.input()); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "material atualizado com sucesso")
}

func (h *handler) deleteMaterial(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	if err := h.Materials.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "material excluído com sucesso")
}
