package handler

import (
	"coffeeshop.com/internal/pos/domain"
	"coffeeshop.com/internal/pos/service"
	"coffeeshop.com/pkg/common"
	"github.com/gin-gonic/gin"
)

type Menu struct {
	Svc *service.MenuService
}

func (h *Menu) List(c *gin.Context) {
	f := domain.MenuFilter{
		Category:      c.Query("category"),
		AvailableOnly: c.Query("available") == "true",
	}
	items, err := h.Svc.List(c.Request.Context(), f)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, items)
}

func (h *Menu) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	m, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, m)
}

func (h *Menu) Create(c *gin.Context) {
	var in service.MenuItemInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, m)
}

func (h *Menu) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in service.MenuItemInput
	if !bindJSON(c, &in) {
		return
	}
	m, err := h.Svc.Update(c.Request.Context(), id, in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, m)
}

func (h *Menu) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Svc.Delete(c.Request.Context(), id); err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, nil)
}
