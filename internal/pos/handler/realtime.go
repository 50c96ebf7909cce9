package handler

import (
	"coffeeshop.com/internal/realtime"
	"coffeeshop.com/pkg/common"
	"github.com/gin-gonic/gin"
)

// Realtime 在线连接和待派发事件，给后台页面看
type Realtime struct {
	Registries []*realtime.Registry
	Publisher  *realtime.Publisher
}

type roleStats struct {
	Count       int                   `json:"count"`
	Connections []realtime.Connection `json:"connections"`
}

func (h *Realtime) Stats(c *gin.Context) {
	roles := make(map[realtime.Role]roleStats, len(h.Registries))
	for _, r := range h.Registries {
		conns := r.Connections()
		roles[r.Role()] = roleStats{Count: len(conns), Connections: conns}
	}
	common.Success(c, gin.H{
		"roles":   roles,
		"pending": h.Publisher.Pending(),
	})
}
