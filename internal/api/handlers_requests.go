package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Spok95/school-supply/internal/domain/requests"
)

func (h *handler) listRequests(c *gin.Context) {
	f := requests.Filter{Status: requests.Status(c.Query("status"))}
	f.RequesterID, _ = strconv.ParseInt(c.Query("requester_id"), 10, 64)

	rs, err := h.Requests.List(c.Request.Context(), identity(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(rs, toRequest))
}

func (h *handler) getRequest(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	r, err := h.Requests.Get(c.Request.Context(), identity(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRequest(*r))
}

func (h *handler) createRequest(c *gin.Context) {
	var body requestBody
	if !h.bind(c, &body) {
		return
	}
	id, err := h.Requests.Create(c.Request.Context(), identity(c), toCreateInput(body.Priority, body.Notes, body.Items))
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, id, "solicitação criada com sucesso")
}

func (h *handler) updateRequest(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var body requestEditBody
	if !h.bind(c, &body) {
		return
	}
	if err := h.Requests.Update(c.Request.Context(), identity(c), id, toCreateInput(body.Priority, body.Notes, body.Items)); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "solicitação atualizada com sucesso")
}

func (h *handler) approveRequest(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var body approvalBody
	if !h.bind(c, &body) {
		return
	}
	if err := h.Requests.Approve(c.Request.Context(), identity(c), id, body.approvals()); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "solicitação aprovada com sucesso")
}

func (h *handler) dispatchRequest(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	// The body may carry dispatched_by for compatibility; it is not read.
	if err := h.Requests.Dispatch(c.Request.Context(), identity(c), id); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "solicitação despachada com sucesso")
}

func (h *handler) rejectRequest(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	var body rejectBody
	if !h.bind(c, &body) {
		return
	}
	if err := h.Requests.Reject(c.Request.Context(), identity(c), id, body.Reason); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "solicitação rejeitada")
}

func (h *handler) cancelRequest(c *gin.Context) {
	id, valid := h.pathID(c)
	if !valid {
		return
	}
	if err := h.Requests.Cancel(c.Request.Context(), identity(c), id); err != nil {
		h.fail(c, err)
		return
	}
	message(c, "solicitação cancelada")
}
