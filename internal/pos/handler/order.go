package handler

import (
	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/internal/pos/service"
	"coffeeshop.com/pkg/common"
	"github.com/gin-gonic/gin"
)

type Order struct {
	Svc *service.OrderService
}

func (h *Order) Create(c *gin.Context) {
	var in service.CreateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, o)
}

func (h *Order) List(c *gin.Context) {
	f := domain.OrderFilter{
		Status:  domain.OrderStatus(c.Query("status")),
		TableID: queryUint(c, "table_id"),
		ShiftID: queryUint(c, "shift_id"),
	}
	f.Page, f.Limit = pageParams(c)
	list, total, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, listData{Items: list, Total: total})
}

func (h *Order) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, o)
}

func (h *Order) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.UpdateOrderInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.Svc.Update(c.Request.Context(), id, in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, o)
}

func (h *Order) Transfer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.TransferOrderInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.Svc.Transfer(c.Request.Context(), id, in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, o)
}

func (h *Order) Checkout(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	o, err := h.Svc.Checkout(c.Request.Context(), id)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, o)
}

func (h *Order) Merge(c *gin.Context) {
	var in service.MergeOrdersInput
	if !bindJSON(c, &in) {
		return
	}
	o, err := h.Svc.Merge(c.Request.Context(), in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, o)
}

func (h *Order) CancelItem(c *gin.Context) {
	var in service.CancelItemInput
	if !bindJSON(c, &in) {
		return
	}
	ci, err := h.Svc.CancelItem(c.Request.Context(), in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, ci)
}

func (h *Order) CancelledItems(c *gin.Context) {
	list, err := h.Svc.CancelledItems(c.Request.Context(), queryUint(c, "order_id"))
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, list)
}
