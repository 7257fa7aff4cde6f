package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"SentriSafe/internal/detection"
	"SentriSafe/internal/models"
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/metrics"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/response"
	"SentriSafe/pkg/ws"
)

type scanRequest struct {
	Content      string `json:"content" binding:"required"`
	SaveEvidence bool   `json:"saveEvidence"`
	Platform     string `json:"platform"`
}

// ScanMessage 扫描一条消息
//
// 有害结果写入警报并推送；saveEvidence 为真时同时留存原文到证据库
func (h *Handlers) ScanMessage(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "message content is required")
		return
	}

	result := h.scanner.Scan(req.Content)
	metrics.CountScan(result.Category)

	if result.IsHarmful {
		alert := &models.SafetyAlert{
			UserID:    userID,
			AlertType: models.AlertTypeDetection,
			Message:   fmt.Sprintf("Harmful message detected: %s (risk %d%%)", result.Category, result.RiskScore),
			RiskLevel: detection.AlertRiskLevel(result.RiskScore),
		}
		if err := models.CreateSafetyAlert(h.db, alert); err != nil {
			logger.Error("save detection alert failed", zap.Uint("user", userID), zap.Error(err))
		} else if h.hub != nil {
			h.hub.Notify(userID, ws.Event{
				Type:      "safety_alert",
				UserID:    userID,
				RiskLevel: alert.RiskLevel,
				Message:   alert.Message,
			})
		}

		if req.SaveEvidence {
			evidence := &models.Evidence{
				UserID:    userID,
				Content:   req.Content,
				Category:  result.Category,
				RiskScore: result.RiskScore,
				Platform:  req.Platform,
			}
			if err := models.SaveEvidence(h.db, evidence); err != nil {
				logger.Error("save evidence failed", zap.Uint("user", userID), zap.Error(err))
			}
		}
	}

	response.Success(c, "ok", result)
}

// ListEvidence 列出留存的证据
func (h *Handlers) ListEvidence(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	limit := cast.ToInt(c.Query("limit"))

	items, err := models.ListEvidence(h.db, userID, limit)
	if err != nil {
		response.Fail(c, "list evidence failed", nil)
		return
	}
	response.Success(c, "ok", items)
}
