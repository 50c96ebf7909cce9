package router

import (
	"coffeeshop.com/internal/pos/handler"
	"coffeeshop.com/pkg/middleware"
	"github.com/gin-gonic/gin"
)

func Menu(api *gin.RouterGroup, h *handler.Menu) {
	g := api.Group("/menu-items")
	{
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}
}

func Table(api *gin.RouterGroup, h *handler.Table) {
	g := api.Group("/tables")
	{
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
	}
}

func Order(api *gin.RouterGroup, h *handler.Order) {
	g := api.Group("/orders")
	{
		// 下单单独一个 sentinel 资源，高峰期可以单独限
		g.POST("", middleware.Sentinel("pos:order:create"), h.Create)
		g.GET("", h.List)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.POST("/:id/transfer", h.Transfer)
		g.POST("/:id/checkout", h.Checkout)
		g.POST("/merge", h.Merge)
	}

	c := api.Group("/cancelled-items")
	{
		c.POST("", h.CancelItem)
		c.GET("", h.CancelledItems)
	}
}

func Shift(api *gin.RouterGroup, h *handler.Shift) {
	g := api.Group("/shifts")
	{
		g.POST("", h.Open)
		g.GET("/current", h.Current)
		g.GET("/:id", h.Get)
		g.POST("/:id/close", h.Close)
	}
}

func Realtime(api *gin.RouterGroup, h *handler.Realtime) {
	api.GET("/realtime/stats", h.Stats)
}
