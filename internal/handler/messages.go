package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"SentriSafe/internal/models"
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/response"
)

type messageRequest struct {
	Label string `json:"label"`
	Text  string `json:"text" binding:"required"`
}

// ListMessages 列出预写短信，首次访问时写入内置三条
func (h *Handlers) ListMessages(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	if err := models.SeedDefaultMessages(h.db, userID); err != nil {
		logger.Warn("seed messages failed", zap.Uint("user", userID), zap.Error(err))
	}

	messages, err := models.ListMessages(h.db, userID)
	if err != nil {
		response.Fail(c, "list messages failed", nil)
		return
	}
	response.Success(c, "ok", messages)
}

// CreateMessage 新增预写短信
func (h *Handlers) CreateMessage(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "message text is required")
		return
	}

	msg, err := models.CreateMessage(h.db, userID, req.Label, req.Text)
	if err != nil {
		logger.Error("create message failed", zap.Uint("user", userID), zap.Error(err))
		response.Fail(c, "create message failed", nil)
		return
	}
	response.Created(c, "message created", msg)
}

// UpdateMessage 修改短信内容
func (h *Handlers) UpdateMessage(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	id := cast.ToUint(c.Param("id"))

	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "message text is required")
		return
	}

	if err := models.UpdateMessageText(h.db, userID, id, req.Label, req.Text); err != nil {
		response.Fail(c, "update message failed", nil)
		return
	}
	response.Success(c, "message updated", nil)
}

// DeleteMessage 删除短信
func (h *Handlers) DeleteMessage(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	id := cast.ToUint(c.Param("id"))

	if err := models.DeleteMessage(h.db, userID, id); err != nil {
		response.Fail(c, "delete message failed", nil)
		return
	}
	response.Success(c, "message deleted", nil)
}

// SetDefaultMessage 设为默认短信，同一用户至多一条默认
func (h *Handlers) SetDefaultMessage(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	id := cast.ToUint(c.Param("id"))

	if err := models.SetDefaultMessage(h.db, userID, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			response.BadRequest(c, "message not found")
			return
		}
		logger.Error("set default message failed", zap.Uint("user", userID), zap.Error(err))
		response.Fail(c, "set default failed", nil)
		return
	}
	response.Success(c, "default message updated", nil)
}
