package device

import (
	"context"
	"net"
	"time"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"

	"SentriSafe/pkg/logger"
)

// LocationTimeout 单次定位的超时上限
const LocationTimeout = 10 * time.Second

// Coordinate 一次定位读数，捕获后不再变更
type Coordinate struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Accuracy         float64 `json:"accuracy"`
	CapturedAtMillis int64   `json:"capturedAtMillis"`
}

// LocationProvider 一次性定位查询
//
// 所有失败路径（无能力、无权限、超时）都以 nil 返回，不 panic
type LocationProvider interface {
	GetLocation(ctx context.Context) (*Coordinate, error)
}

// ResolveLocation 依次尝试各 provider，整体受 LocationTimeout 约束；
// 全部失败时返回 nil，原因只记日志
func ResolveLocation(ctx context.Context, providers ...LocationProvider) *Coordinate {
	ctx, cancel := context.WithTimeout(ctx, LocationTimeout)
	defer cancel()

	for _, p := range providers {
		if p == nil {
			continue
		}
		loc, err := p.GetLocation(ctx)
		if err != nil {
			logger.Warn("location provider failed", zap.Error(err))
			continue
		}
		if loc != nil {
			return loc
		}
	}
	return nil
}

// ClientReported 客户端随请求上报的坐标
type ClientReported struct {
	Coord *Coordinate
}

// GetLocation 直接返回上报坐标，没有上报时返回 nil
func (c *ClientReported) GetLocation(ctx context.Context) (*Coordinate, error) {
	if c.Coord == nil {
		return nil, nil
	}
	loc := *c.Coord
	if loc.CapturedAtMillis == 0 {
		loc.CapturedAtMillis = time.Now().UnixMilli()
	}
	return &loc, nil
}

// GeoIPResolver 持有打开的 GeoIP 数据库，进程内复用
type GeoIPResolver struct {
	reader *geoip2.Reader
}

// NewGeoIPResolver 打开 GeoIP 数据库，路径为空或打开失败时返回 nil（禁用回退）
func NewGeoIPResolver(dbPath string) *GeoIPResolver {
	if dbPath == "" {
		return nil
	}
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		logger.Warn("open geoip database failed", zap.Error(err))
		return nil
	}
	return &GeoIPResolver{reader: reader}
}

// Provider 生成针对单个请求 IP 的定位回退
func (r *GeoIPResolver) Provider(ip string) *GeoIPProvider {
	if r == nil || r.reader == nil {
		return nil
	}
	return &GeoIPProvider{reader: r.reader, ip: ip}
}

// Close 释放 GeoIP 数据库
func (r *GeoIPResolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}

// GeoIPProvider 按请求 IP 做粗粒度定位的降级方案
type GeoIPProvider struct {
	reader *geoip2.Reader
	ip     string
}

// GetLocation 查询 IP 对应的城市坐标
func (g *GeoIPProvider) GetLocation(ctx context.Context) (*Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ip := net.ParseIP(g.ip)
	if ip == nil {
		return nil, nil
	}
	record, err := g.reader.City(ip)
	if err != nil {
		return nil, err
	}
	if record.Location.Latitude == 0 && record.Location.Longitude == 0 {
		return nil, nil
	}
	return &Coordinate{
		Latitude:         record.Location.Latitude,
		Longitude:        record.Location.Longitude,
		Accuracy:         float64(record.Location.AccuracyRadius) * 1000, // 半径公里转米
		CapturedAtMillis: time.Now().UnixMilli(),
	}, nil
}

