package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"SentriSafe/internal/models"
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/response"
)

// ListAlerts 按时间倒序列出警报
func (h *Handlers) ListAlerts(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	limit := cast.ToInt(c.Query("limit"))

	alerts, err := models.ListAlerts(h.db, userID, limit)
	if err != nil {
		response.Fail(c, "list alerts failed", nil)
		return
	}
	response.Success(c, "ok", alerts)
}

// MarkAlertRead 标记警报已读
func (h *Handlers) MarkAlertRead(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	id := cast.ToUint(c.Param("id"))

	if err := models.MarkAlertRead(h.db, userID, id); err != nil {
		response.Fail(c, "mark alert read failed", nil)
		return
	}
	response.Success(c, "alert marked read", nil)
}

// ListSOSEvents 按时间倒序列出 SOS 事件记录
func (h *Handlers) ListSOSEvents(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	limit := cast.ToInt(c.Query("limit"))

	events, err := models.ListSOSEvents(h.db, userID, limit)
	if err != nil {
		response.Fail(c, "list sos events failed", nil)
		return
	}
	response.Success(c, "ok", events)
}

// AlertFeed websocket 实时警报推送
func (h *Handlers) AlertFeed(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	if err := h.hub.Serve(c, userID); err != nil {
		logger.Warn("websocket upgrade failed", zap.Uint("user", userID), zap.Error(err))
	}
}
