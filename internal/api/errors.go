package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/inventory"
)

func statusOf(k apperr.Kind) int {
	switch k {
	case apperr.KindValidation, apperr.KindBusinessRule:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

type shortageJSON struct {
	MaterialID int64  `json:"material_id"`
	Name       string `json:"name"`
	Requested  int    `json:"requested"`
	Available  int    `json:"available"`
}

// fail writes {error} with the status for err's kind. Internal errors are logged with
// the request id and answered with a generic message.
func (h *handler) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)
	if kind == apperr.KindInternal {
		h.log.Error("request failed",
			"request_id", c.GetString(requestIDKey),
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err,
		)
		c.AbortWithStatusJSON(status, gin.H{"error": "erro interno do servidor"})
		return
	}

	body := gin.H{"error": apperr.PublicMessage(err)}
	var ie *inventory.InsufficientStockError
	if errors.As(err, &ie) {
		list := make([]shortageJSON, 0, len(ie.Shortages))
		for _, s := range ie.Shortages {
			list = append(list, shortageJSON{MaterialID: s.MaterialID, Name: s.Name, Requested: s.Requested, Available: s.Available})
		}
		body["insufficient"] = list
	}
	c.AbortWithStatusJSON(status, body)
}

func (h *handler) badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
