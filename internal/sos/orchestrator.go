package sos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"SentriSafe/internal/device"
	"SentriSafe/internal/models"
	"SentriSafe/pkg/cache"
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/metrics"
	"SentriSafe/pkg/storage"
	"SentriSafe/pkg/ws"
)

// TriggerType SOS 激活来源
type TriggerType string

const (
	TriggerManual   TriggerType = "manual"
	TriggerShake    TriggerType = "shake"
	TriggerKeyboard TriggerType = "keyboard"
)

const settingsCacheTTL = 5 * time.Minute

// Orchestrator 单个用户的 SOS 编排器
//
// 持有会话状态（激活标志、触发类型、最近定位、录音状态），协调定位、
// 录音与警报落库。每次登录会话构造一次，由调用方显式传递。
//
// 异步定位结果带会话纪元标记，纪元不匹配（期间已停用或重新激活）时丢弃。
type Orchestrator struct {
	mu           sync.Mutex
	db           *gorm.DB
	userID       uint
	recorder     device.AudioRecorder
	settings     cache.Cache
	hub          *ws.Hub
	recordings   storage.RecordingStore

	active       bool
	epoch        uint64
	triggerType  TriggerType
	lastLocation *device.Coordinate
}

// NewOrchestrator 创建编排器；hub、recordings、settingsCache 均可为 nil
func NewOrchestrator(db *gorm.DB, userID uint, recorder device.AudioRecorder,
	settingsCache cache.Cache, hub *ws.Hub, recordings storage.RecordingStore) *Orchestrator {
	if recorder == nil {
		recorder = device.NewBufferRecorder()
	}
	return &Orchestrator{
		db:         db,
		userID:     userID,
		recorder:   recorder,
		settings:   settingsCache,
		hub:        hub,
		recordings: recordings,
	}
}

// Activate 激活 SOS
//
// 已激活状态下的再次触发是无操作，只记录多出来的触发来源。
// 定位与录音按用户设置决定是否执行，任一步失败都只降级不中断；
// 警报与事件记录总是尝试写入。
func (o *Orchestrator) Activate(ctx context.Context, trigger TriggerType, providers ...device.LocationProvider) {
	o.mu.Lock()
	if o.active {
		o.mu.Unlock()
		logger.Info("sos already active, extra trigger ignored",
			zap.Uint("user", o.userID), zap.String("trigger", string(trigger)))
		return
	}
	o.active = true
	o.epoch++
	epoch := o.epoch
	o.triggerType = trigger
	o.mu.Unlock()

	metrics.CountSOSActivation(string(trigger))
	logger.Info("sos activated", zap.Uint("user", o.userID), zap.String("trigger", string(trigger)))

	settings := o.loadSettings(ctx)

	var loc *device.Coordinate
	if settings.AutoLocationEnabled {
		loc = device.ResolveLocation(ctx, providers...)
		o.storeLocation(epoch, loc)
	}

	// 定位期间可能已被停用，录音只在会话仍是当前纪元时开启
	if settings.AutoRecordingEnabled && o.currentEpoch(epoch) {
		if err := o.recorder.Start(); err != nil {
			logger.Warn("start recording failed", zap.Uint("user", o.userID), zap.Error(err))
		}
	}

	o.sendAlerts(trigger, loc)
}

// Deactivate 停用 SOS：停止录音并归档，最近定位保留展示
func (o *Orchestrator) Deactivate() {
	o.mu.Lock()
	if !o.active {
		o.mu.Unlock()
		return
	}
	o.active = false
	o.epoch++ // 废弃仍在途的定位结果
	o.mu.Unlock()

	logger.Info("sos deactivated", zap.Uint("user", o.userID))

	if blob := o.recorder.Stop(); len(blob) > 0 && o.recordings != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		key, err := o.recordings.Save(ctx, o.userID, blob)
		if err != nil {
			logger.Warn("save recording failed", zap.Uint("user", o.userID), zap.Error(err))
		} else {
			logger.Info("recording archived", zap.Uint("user", o.userID), zap.String("key", key))
		}
	}

	if o.hub != nil {
		o.hub.Notify(o.userID, ws.Event{Type: "sos_deactivated", UserID: o.userID})
	}
}

// IsActive 当前是否处于 SOS 激活状态
func (o *Orchestrator) IsActive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active
}

// LastLocation 最近一次成功定位，可能为 nil
func (o *Orchestrator) LastLocation() *device.Coordinate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastLocation
}

// Trigger 本次激活的触发来源
func (o *Orchestrator) Trigger() TriggerType {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.triggerType
}

// Recorder 返回录音会话，供音频分块上传使用
func (o *Orchestrator) Recorder() device.AudioRecorder {
	return o.recorder
}

// Settings 读取当前用户设置，缓存优先；供触发开关判定复用
func (o *Orchestrator) Settings(ctx context.Context) models.UserSettings {
	return o.loadSettings(ctx)
}

// currentEpoch 会话是否仍处于给定纪元且未被停用
func (o *Orchestrator) currentEpoch(epoch uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.active && o.epoch == epoch
}

// storeLocation 纪元一致时才写入 lastLocation，过期结果直接丢弃
func (o *Orchestrator) storeLocation(epoch uint64, loc *device.Coordinate) {
	if loc == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.epoch != epoch {
		logger.Info("stale location discarded", zap.Uint("user", o.userID))
		return
	}
	o.lastLocation = loc
}

// loadSettings 读取用户设置，缓存优先；读取失败时按全开默认值继续
func (o *Orchestrator) loadSettings(ctx context.Context) models.UserSettings {
	key := settingsCacheKey(o.userID)
	if o.settings != nil {
		if v, ok := o.settings.Get(ctx, key); ok {
			if s, ok := v.(models.UserSettings); ok {
				return s
			}
		}
	}

	s, err := models.GetOrCreateSettings(o.db, o.userID)
	if err != nil {
		logger.Warn("load settings failed, using defaults", zap.Uint("user", o.userID), zap.Error(err))
		return models.DefaultSettings(o.userID)
	}
	if o.settings != nil {
		_ = o.settings.Set(ctx, key, *s, settingsCacheTTL)
	}
	return *s
}

// sendAlerts 拼装完整文案后，同一事务写入警报与事件记录；失败只记日志
func (o *Orchestrator) sendAlerts(trigger TriggerType, loc *device.Coordinate) {
	canned := models.GetDefaultMessageText(o.db, o.userID)
	full := ComposeAlertMessage(canned, loc)

	contacts, err := models.ListContacts(o.db, o.userID)
	if err != nil {
		logger.Warn("list contacts failed", zap.Uint("user", o.userID), zap.Error(err))
	}

	alert := &models.SafetyAlert{
		UserID:    o.userID,
		AlertType: models.AlertTypeSOS,
		Message:   full,
		RiskLevel: models.RiskCritical,
		IsRead:    false,
	}
	event := &models.SOSEvent{
		UserID:      o.userID,
		TriggerType: string(trigger),
		MessageSent: full,
	}
	if loc != nil {
		lat, lon := loc.Latitude, loc.Longitude
		event.Latitude = &lat
		event.Longitude = &lon
	}
	event.SetNotifiedNames(models.ContactNames(contacts))

	if err := models.CreateActivationRecords(o.db, alert, event); err != nil {
		logger.Error("persist sos activation failed", zap.Uint("user", o.userID), zap.Error(err))
		return
	}

	if o.hub != nil {
		o.hub.Notify(o.userID, ws.Event{
			Type:      "sos_activated",
			UserID:    o.userID,
			RiskLevel: alert.RiskLevel,
			Message:   full,
		})
	}
}

// SettingsCacheKey 设置缓存键，登出清理时复用
func settingsCacheKey(userID uint) string {
	return fmt.Sprintf("settings:%d", userID)
}

// InvalidateSettings 清除设置缓存（设置变更或登出时调用）
func (o *Orchestrator) InvalidateSettings(ctx context.Context) {
	if o.settings != nil {
		_ = o.settings.Delete(ctx, settingsCacheKey(o.userID))
	}
}
