package handler

import (
	"sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"SentriSafe/internal/detection"
	"SentriSafe/internal/device"
	"SentriSafe/internal/sos"
	"SentriSafe/pkg/cache"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/response"
	"SentriSafe/pkg/ws"
)

// Handlers 聚合所有 HTTP 处理器的依赖
type Handlers struct {
	db      *gorm.DB
	cache   cache.Cache
	scanner *detection.Scanner
	manager *sos.Manager
	hub     *ws.Hub

	// nil 时禁用 IP 定位回退
	geoIP *device.GeoIPResolver

	mu       sync.Mutex
	sessions map[uint]*sensorSession
}

// New 创建处理器集合，geoIP 可为 nil
func New(db *gorm.DB, c cache.Cache, scanner *detection.Scanner,
	manager *sos.Manager, hub *ws.Hub, geoIP *device.GeoIPResolver) *Handlers {
	return &Handlers{
		db:       db,
		cache:    c,
		scanner:  scanner,
		manager:  manager,
		hub:      hub,
		geoIP:    geoIP,
		sessions: make(map[uint]*sensorSession),
	}
}

// RegisterRoutes 挂载全部路由
func (h *Handlers) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.Register)
		api.POST("/auth/login", h.Login)
	}

	auth := api.Group("", middleware.AuthRequired())
	{
		auth.POST("/auth/logout", h.Logout)
		auth.GET("/auth/me", h.Me)

		auth.GET("/settings", h.GetSettings)
		auth.PATCH("/settings", h.UpdateSettings)

		auth.GET("/messages", h.ListMessages)
		auth.POST("/messages", h.CreateMessage)
		auth.PUT("/messages/:id", h.UpdateMessage)
		auth.DELETE("/messages/:id", h.DeleteMessage)
		auth.POST("/messages/:id/default", h.SetDefaultMessage)

		auth.GET("/contacts", h.ListContacts)
		auth.POST("/contacts", h.AddContact)
		auth.DELETE("/contacts/:id", h.DeleteContact)

		auth.POST("/scan", h.ScanMessage)
		auth.GET("/evidence", h.ListEvidence)

		auth.POST("/sos/activate", h.ActivateSOS)
		auth.POST("/sos/deactivate", h.DeactivateSOS)
		auth.GET("/sos/status", h.SOSStatus)
		auth.POST("/sos/audio", h.AppendAudioChunk)

		auth.POST("/sensors/motion", h.MotionSamples)
		auth.POST("/sensors/keys", h.KeyPresses)

		auth.GET("/alerts", h.ListAlerts)
		auth.POST("/alerts/:id/read", h.MarkAlertRead)
		auth.GET("/sos/events", h.ListSOSEvents)

		auth.GET("/alerts/feed", h.AlertFeed)
	}
}

// Health 存活探针
func (h *Handlers) Health(c *gin.Context) {
	response.Success(c, "ok", gin.H{"connections": h.hub.ConnectionCount()})
}
