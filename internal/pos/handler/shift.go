package handler

import (
	"coffeeshop.com/internal/pos/service"
	"coffeeshop.com/pkg/common"
	"github.com/gin-gonic/gin"
)

type Shift struct {
	Svc *service.ShiftService
}

func (h *Shift) Open(c *gin.Context) {
	var in service.OpenShiftInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.Svc.Open(c.Request.Context(), in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, s)
}

func (h *Shift) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	s, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, s)
}

// Current ?staff_id= 可选
func (h *Shift) Current(c *gin.Context) {
	s, err := h.Svc.Current(c.Request.Context(), c.Query("staff_id"))
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, s)
}

func (h *Shift) Close(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.CloseShiftInput
	if !bindJSON(c, &in) {
		return
	}
	s, err := h.Svc.Close(c.Request.Context(), id, in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, s)
}
