package handler

import (
	"github.com/gin-gonic/gin"

	"SentriSafe/internal/device"
	"SentriSafe/internal/sos"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/response"
)

type activateRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
}

type sosStatus struct {
	Active    bool               `json:"active"`
	Trigger   string             `json:"trigger,omitempty"`
	Location  *device.Coordinate `json:"location,omitempty"`
	Recording bool               `json:"recording"`
}

// ActivateSOS 手动激活 SOS
//
// 客户端上报的坐标优先，其次按请求 IP 做粗粒度定位回退
func (h *Handlers) ActivateSOS(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req activateRequest
	_ = c.ShouldBindJSON(&req) // 空请求体也允许激活

	o := h.manager.Get(userID)
	o.Activate(c.Request.Context(), sos.TriggerManual, h.locationProviders(c, &req)...)

	response.Success(c, "sos activated", h.statusOf(o))
}

// DeactivateSOS 停用 SOS
func (h *Handlers) DeactivateSOS(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	o := h.manager.Get(userID)
	o.Deactivate()
	response.Success(c, "sos deactivated", h.statusOf(o))
}

// SOSStatus 查询当前 SOS 状态
func (h *Handlers) SOSStatus(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	response.Success(c, "ok", h.statusOf(h.manager.Get(userID)))
}

// AppendAudioChunk 追加一段录音数据；未在录音时静默丢弃
func (h *Handlers) AppendAudioChunk(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	chunk, err := c.GetRawData()
	if err != nil || len(chunk) == 0 {
		response.BadRequest(c, "audio chunk is required")
		return
	}

	o := h.manager.Get(userID)
	if err := o.Recorder().Append(chunk); err != nil {
		response.Fail(c, "append audio failed", nil)
		return
	}
	response.Success(c, "ok", gin.H{"recording": o.Recorder().Recording()})
}

func (h *Handlers) statusOf(o *sos.Orchestrator) sosStatus {
	status := sosStatus{
		Active:    o.IsActive(),
		Location:  o.LastLocation(),
		Recording: o.Recorder().Recording(),
	}
	if status.Active {
		status.Trigger = string(o.Trigger())
	}
	return status
}

// locationProviders 组装定位链：客户端坐标优先，GeoIP 兜底
func (h *Handlers) locationProviders(c *gin.Context, req *activateRequest) []device.LocationProvider {
	var providers []device.LocationProvider
	if req != nil && req.Latitude != nil && req.Longitude != nil {
		providers = append(providers, &device.ClientReported{Coord: &device.Coordinate{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
			Accuracy:  req.Accuracy,
		}})
	}
	if geo := h.geoIP.Provider(c.ClientIP()); geo != nil {
		providers = append(providers, geo)
	}
	return providers
}
