package handler

import (
	"net/http"
	"strconv"

	"coffeeshop.com/pkg/common"
	"coffeeshop.com/pkg/orm"
	"coffeeshop.com/pkg/xerr"
	"github.com/gin-gonic/gin"
)

func idParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		common.Fail(c, http.StatusBadRequest, xerr.RequestParamsError, "invalid "+name)
		return 0, false
	}
	return id, true
}

func queryUint(c *gin.Context, key string) uint64 {
	v, _ := strconv.ParseUint(c.Query(key), 10, 64)
	return v
}

func queryInt(c *gin.Context, key string) int {
	v, _ := strconv.Atoi(c.Query(key))
	return v
}

const defaultPageSize = 20

// pageParams 列表接口总是分页：缺省第 1 页，limit 缺省 defaultPageSize、最大 orm.MaxPageSize
func pageParams(c *gin.Context) (page, limit int) {
	page, limit = queryInt(c, "page"), queryInt(c, "limit")
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	return page, min(limit, orm.MaxPageSize)
}

func bindJSON(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		common.Fail(c, http.StatusBadRequest, xerr.RequestParamsError, err.Error())
		return false
	}
	return true
}

type listData struct {
	Items interface{} `json:"items"`
	Total int64       `json:"total"`
}
