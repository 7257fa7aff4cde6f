package sos

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"SentriSafe/internal/device"
	"SentriSafe/pkg/cache"
	"SentriSafe/pkg/storage"
	"SentriSafe/pkg/ws"
)

// Manager 维护每个登录会话一个的编排器实例
type Manager struct {
	mu            sync.Mutex
	db            *gorm.DB
	settingsCache cache.Cache
	hub           *ws.Hub
	recordings    storage.RecordingStore
	orchestrators map[uint]*Orchestrator
}

// NewManager 创建编排器管理器
func NewManager(db *gorm.DB, settingsCache cache.Cache, hub *ws.Hub, recordings storage.RecordingStore) *Manager {
	return &Manager{
		db:            db,
		settingsCache: settingsCache,
		hub:           hub,
		recordings:    recordings,
		orchestrators: make(map[uint]*Orchestrator),
	}
}

// Get 取用户的编排器，不存在时创建
func (m *Manager) Get(userID uint) *Orchestrator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.orchestrators[userID]; ok {
		return o
	}
	o := NewOrchestrator(m.db, userID, device.NewBufferRecorder(), m.settingsCache, m.hub, m.recordings)
	m.orchestrators[userID] = o
	return o
}

// Drop 会话结束时释放编排器：停用进行中的 SOS 并清理设置缓存
func (m *Manager) Drop(ctx context.Context, userID uint) {
	m.mu.Lock()
	o, ok := m.orchestrators[userID]
	delete(m.orchestrators, userID)
	m.mu.Unlock()

	if ok {
		o.Deactivate()
		o.InvalidateSettings(ctx)
	}
}
