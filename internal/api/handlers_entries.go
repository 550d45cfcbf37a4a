package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/stockentries"
	"github.com/Spok95/school-supply/internal/reports"
)

const maxImportSize = 5 << 20

func (h *handler) listEntries(c *gin.Context) {
	var f stockentries.Filter
	f.MaterialID, _ = strconv.ParseInt(c.Query("material_id"), 10, 64)
	f.SupplierID, _ = strconv.ParseInt(c.Query("supplier_id"), 10, 64)

	es, err := h.Entries.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(es, toEntry))
}

func (h *handler) getEntry(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	e, err := h.Entries.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	if e == nil {
		h.fail(c, apperr.NotFound("entrada de estoque não encontrada"))
		return
	}
	c.JSON(http.StatusOK, toEntry(*e))
}

func (h *handler) createEntry(c *gin.Context) {
	var body entryBody
	if !h.bind(c, &body) {
		return
	}
	in, err := body.input()
	if err != nil {
		h.fail(c, err)
		return
	}
	who := identity(c)
	id, err := h.Entries.Create(c.Request.Context(), who.UserID, in)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("stock entry created", "entry_id", id, "material_id", in.MaterialID, "quantity", in.Quantity, "actor_id", who.UserID)
	created(c, id, "entrada de estoque registrada com sucesso")
}

func (h *handler) importEntries(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		h.badRequest(c, "envie a planilha no campo file")
		return
	}
	if fh.Size > maxImportSize {
		h.badRequest(c, "planilha muito grande (máximo 5 MB)")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(io.LimitReader(f, maxImportSize))
	if err != nil {
		h.fail(c, err)
		return
	}

	ins, err := reports.ParseEntries(data)
	if err != nil {
		h.fail(c, err)
		return
	}
	who := identity(c)
	ids, err := h.Entries.CreateBatch(c.Request.Context(), who.UserID, ins)
	if err != nil {
		h.fail(c, err)
		return
	}
	h.log.Info("stock entries imported", "count", len(ids), "actor_id", who.UserID)
	c.JSON(http.StatusCreated, gin.H{"ids": ids, "message": strconv.Itoa(len(ids)) + " entradas importadas com sucesso"})
}

func (h *handler) updateEntry(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var body entryBody
	if !h.bind(c, &body) {
		return
	}
	in, err := body.input()
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.Entries.Update(c.Request.Context(), identity(c).UserID, id, in); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "entrada de estoque atualizada com sucesso")
}

func (h *handler) deleteEntry(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	if err := h.Entries.Delete(c.Request.Context(), identity(c).UserID, id); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "entrada de estoque excluída com sucesso")
}
