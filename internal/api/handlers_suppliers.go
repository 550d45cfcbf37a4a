package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/school-supply/internal/apperr"
)

func (h *handler) listSuppliers(c *gin.Context) {
	ss, err := h.Suppliers.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(ss, toSupplier))
}

func (h *handler) getSupplier(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	s, err := h.Suppliers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if s == nil {
		h.fail(c, apperr.NotFound("fornecedor não encontrado"))
		return
	}
	c.JSON(http.StatusOK, toSupplier(*s))
}

func (h *handler) createSupplier(c *gin.Context) {
	var body supplierBody
	if !h.bind(c, &body) {
		return
	}
	id, err := h.Suppliers.Create(c.Request.Context(), body.input())
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, id, "fornecedor criado com sucesso")
}

func (h *handler) updateSupplier(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var body supplierBody
	if !h.bind(c, &body) {
		return
	}
	if err := h.Suppliers.Update(c.Request.Context(), id, body.input()); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "fornecedor atualizado com sucesso")
}

func (h *handler) deleteSupplier(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	if err := h.Suppliers.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "fornecedor excluído com sucesso")
}
