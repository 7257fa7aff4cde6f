package handler

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"SentriSafe/internal/device"
	"SentriSafe/internal/sos"
	"SentriSafe/internal/trigger"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/response"
)

// sensorSession 单个用户的触发检测会话
//
// 检测器只做模式识别；开关判定在喂入数据前完成，关闭的检测器收不到数据
type sensorSession struct {
	mu       sync.Mutex
	shake    *trigger.ShakeDetector
	keyboard *trigger.KeyboardDetector
	fired    sos.TriggerType
}

// feedMotion 喂入样本并返回本批是否命中
func (s *sensorSession) feedMotion(samples []motionSample) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fired = ""
	for _, sample := range samples {
		s.shake.Sample(sample.X, sample.Y, sample.Z, sampleTime(sample.TimestampMillis))
	}
	return s.fired == sos.TriggerShake
}

// feedKeys 喂入按键并返回本批是否命中
func (s *sensorSession) feedKeys(keys []keyPress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fired = ""
	for _, press := range keys {
		s.keyboard.KeyPress(press.Key, sampleTime(press.TimestampMillis))
	}
	return s.fired == sos.TriggerKeyboard
}

func (h *Handlers) session(userID uint) *sensorSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	if s, ok := h.sessions[userID]; ok {
		return s
	}
	s := &sensorSession{}
	s.shake = trigger.NewShakeDetector(0, 0, func() { s.fired = sos.TriggerShake })
	s.keyboard = trigger.NewKeyboardDetector(nil, 0, func() { s.fired = sos.TriggerKeyboard })
	h.sessions[userID] = s
	return s
}

func (h *Handlers) dropSensorSession(userID uint) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, userID)
}

type motionSample struct {
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
	Z               float64 `json:"z"`
	TimestampMillis int64   `json:"timestampMillis"`
}

type motionRequest struct {
	Samples []motionSample `json:"samples" binding:"required,min=1"`
}

type keyPress struct {
	Key             string `json:"key" binding:"required"`
	TimestampMillis int64  `json:"timestampMillis"`
}

type keysRequest struct {
	Keys []keyPress `json:"keys" binding:"required,min=1"`
}

// MotionSamples 接收一批加速度样本喂入摇晃检测
func (h *Handlers) MotionSamples(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req motionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "motion samples are required")
		return
	}

	o := h.manager.Get(userID)
	if !o.Settings(c.Request.Context()).ShakeSOSEnabled {
		response.Success(c, "ok", gin.H{"triggered": false})
		return
	}

	triggered := h.session(userID).feedMotion(req.Samples)
	if triggered {
		o.Activate(c.Request.Context(), sos.TriggerShake, h.fallbackProviders(c)...)
	}
	response.Success(c, "ok", gin.H{"triggered": triggered})
}

// KeyPresses 接收一批按键喂入键盘序列检测
func (h *Handlers) KeyPresses(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req keysRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "key presses are required")
		return
	}

	o := h.manager.Get(userID)
	if !o.Settings(c.Request.Context()).KeyboardSOSEnabled {
		response.Success(c, "ok", gin.H{"triggered": false})
		return
	}

	triggered := h.session(userID).feedKeys(req.Keys)
	if triggered {
		o.Activate(c.Request.Context(), sos.TriggerKeyboard, h.fallbackProviders(c)...)
	}
	response.Success(c, "ok", gin.H{"triggered": triggered})
}

// fallbackProviders 传感器触发没有随附坐标，只有 GeoIP 兜底
func (h *Handlers) fallbackProviders(c *gin.Context) []device.LocationProvider {
	if geo := h.geoIP.Provider(c.ClientIP()); geo != nil {
		return []device.LocationProvider{geo}
	}
	return nil
}

func sampleTime(millis int64) time.Time {
	if millis <= 0 {
		return time.Now()
	}
	return time.UnixMilli(millis)
}
