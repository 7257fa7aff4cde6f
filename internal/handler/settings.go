package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"SentriSafe/internal/models"
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/response"
)

// 部分更新：nil 字段表示不修改
type settingsRequest struct {
	ShakeSOSEnabled      *bool `json:"shakeSosEnabled"`
	KeyboardSOSEnabled   *bool `json:"keyboardSosEnabled"`
	AutoLocationEnabled  *bool `json:"autoLocationEnabled"`
	AutoRecordingEnabled *bool `json:"autoRecordingEnabled"`
}

// GetSettings 读取当前用户设置，不存在时按默认值创建
func (h *Handlers) GetSettings(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	settings, err := models.GetOrCreateSettings(h.db, userID)
	if err != nil {
		logger.Error("load settings failed", zap.Uint("user", userID), zap.Error(err))
		response.Fail(c, "load settings failed", nil)
		return
	}
	response.Success(c, "ok", settings)
}

// UpdateSettings 部分更新设置开关，并使缓存失效
func (h *Handlers) UpdateSettings(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid settings payload")
		return
	}

	fields := map[string]any{}
	if req.ShakeSOSEnabled != nil {
		fields["shake_sos_enabled"] = *req.ShakeSOSEnabled
	}
	if req.KeyboardSOSEnabled != nil {
		fields["keyboard_sos_enabled"] = *req.KeyboardSOSEnabled
	}
	if req.AutoLocationEnabled != nil {
		fields["auto_location_enabled"] = *req.AutoLocationEnabled
	}
	if req.AutoRecordingEnabled != nil {
		fields["auto_recording_enabled"] = *req.AutoRecordingEnabled
	}

	settings, err := models.UpdateSettings(h.db, userID, fields)
	if err != nil {
		logger.Error("update settings failed", zap.Uint("user", userID), zap.Error(err))
		response.Fail(c, "update settings failed", nil)
		return
	}

	h.manager.Get(userID).InvalidateSettings(c.Request.Context())
	response.Success(c, "settings updated", settings)
}
