package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/school-supply/internal/domain/stockentries"
	"github.com/Spok95/school-supply/internal/reports"
)

const xlsxType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func sendWorkbook(c *gin.Context, name string, data []byte) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxType, data)
}

func (h *handler) stockReport(c *gin.Context) {
	ms, err := h.Materials.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := reports.StockWorkbook(ms)
	if err != nil {
		h.fail(c, err)
		return
	}
	sendWorkbook(c, "estoque", data)
}

func (h *handler) entriesReport(c *gin.Context) {
	es, err := h.Entries.List(c.Request.Context(), stockentries.Filter{})
	if err != nil {
		h.fail(c, err)
		return
	}
	data, err := reports.EntriesWorkbook(es)
	if err != nil {
		h.fail(c, err)
		return
	}
	sendWorkbook(c, "entradas", data)
}
