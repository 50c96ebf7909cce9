package handler

import (
	"coffeeshop.com/internal/pos/service"
	"coffeeshop.com/pkg/common"
	"github.com/gin-gonic/gin"
)

type Table struct {
	Svc *service.TableService
}

func (h *Table) List(c *gin.Context) {
	list, err := h.Svc.List(c.Request.Context())
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, list)
}

func (h *Table) Create(c *gin.Context) {
	var in service.TableInput
	if !bindJSON(c, &in) {
		return
	}
	t, err := h.Svc.Create(c.Request.Context(), in)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, t)
}

func (h *Table) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	t, err := h.Svc.Get(c.Request.Context(), id)
	if err != nil {
		common.FailFromErr(c, err)
		return
	}
	common.Success(c, t)
}
