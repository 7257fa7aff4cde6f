package middleware

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimiterConfig 限流配置
//
// Rate: "100-M"、"1000-H" 等 limiter 速率表达式
// SkipPaths: 前缀匹配，命中的路径不限流（如 /health、/metrics）
type RateLimiterConfig struct {
	Rate        string   `json:"rate"`
	SkipPaths   []string `json:"skip_paths"`
	DenyStatus  int      `json:"deny_status"` // 默认 429
	DenyMessage string   `json:"deny_message"`
}

// MetricsObserver 指标上报接口
type MetricsObserver interface {
	OnAllow(route string)
	OnDeny(route string)
}

// PrometheusObserver 基于 Prometheus 的实现
type PrometheusObserver struct {
	allow *prometheus.CounterVec
	deny  *prometheus.CounterVec
}

// NewPrometheusObserver 创建 Prometheus 观察者
func NewPrometheusObserver() *PrometheusObserver {
	return &PrometheusObserver{
		allow: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_allow_total",
			Help: "Allowed requests by rate limiter",
		}, []string{"route"}),
		deny: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_deny_total",
			Help: "Denied requests by rate limiter",
		}, []string{"route"}),
	}
}

func (p *PrometheusObserver) OnAllow(route string) { p.allow.WithLabelValues(route).Inc() }
func (p *PrometheusObserver) OnDeny(route string)  { p.deny.WithLabelValues(route).Inc() }

// RateLimiter 面向实例的限流器，按客户端 IP 限速
type RateLimiter struct {
	cfg      *RateLimiterConfig
	store    limiter.Store
	observer MetricsObserver
	limiter  *limiter.Limiter
	mu       sync.RWMutex
}

// NewRateLimiter 构造函数，store 为空时使用内存存储
func NewRateLimiter(cfg RateLimiterConfig, store limiter.Store) (*RateLimiter, error) {
	if store == nil {
		store = memory.NewStore()
	}
	rate, err := limiter.NewRateFromFormatted(cfg.Rate)
	if err != nil {
		return nil, err
	}
	return &RateLimiter{
		cfg:     &cfg,
		store:   store,
		limiter: limiter.New(store, rate),
	}, nil
}

// WithObserver 配置指标观察者
func (l *RateLimiter) WithObserver(observer MetricsObserver) *RateLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observer = observer
	return l
}

// Middleware 返回 gin 中间件
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range l.cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		lctx, err := l.limiter.Get(c.Request.Context(), c.ClientIP())
		if err != nil {
			// 限流器自身故障不应阻断请求
			c.Next()
			return
		}

		l.mu.RLock()
		observer := l.observer
		l.mu.RUnlock()

		if lctx.Reached {
			if observer != nil {
				observer.OnDeny(path)
			}
			status := l.cfg.DenyStatus
			if status == 0 {
				status = http.StatusTooManyRequests
			}
			msg := l.cfg.DenyMessage
			if msg == "" {
				msg = "too many requests"
			}
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}

		if observer != nil {
			observer.OnAllow(path)
		}
		c.Next()
	}
}
