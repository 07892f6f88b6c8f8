package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/yeisme/filevault/pkg/configs"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	maxLimiterEntries      = 10000
)

// RateLimitMiddleware 基于 x/time/rate 的令牌桶限流.
// key 维度由配置决定：global（单桶）、ip（按客户端 IP）或 header:<name>.
// 入库请求是异步 202，限流主要保护提交接口不被批量脚本刷爆.
func RateLimitMiddleware(cfg configs.RateLimitConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	keyMode := strings.ToLower(strings.TrimSpace(cfg.Key))
	if keyMode == "global" || keyMode == "" {
		limiter := rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst)

		return func(c *gin.Context) {
			if !limiter.Allow() {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
				return
			}

			c.Next()
		}
	}

	pool := newLimiterPool(cfg)

	return func(c *gin.Context) {
		key := limiterKey(c, keyMode)

		if !pool.get(key).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				gin.H{"error": "rate limit exceeded, request too frequent, please try again later"})

			return
		}

		c.Next()
	}
}

// limiterKey 按配置的维度取限流 key，取不到时退回客户端 IP.
func limiterKey(c *gin.Context, keyMode string) string {
	var key string

	switch {
	case strings.HasPrefix(keyMode, "header:"):
		key = c.GetHeader(strings.TrimPrefix(keyMode, "header:"))
		if key == "" {
			key = clientIP(c)
		}
	default: // "ip" 及其余取值
		key = clientIP(c)
	}

	if key == "" {
		return "unknown"
	}

	return key
}

// limiterPool 按 key 缓存限流器，超过上限时整体重置，避免无界增长.
type limiterPool struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cfg      configs.RateLimitConfig
}

func newLimiterPool(cfg configs.RateLimitConfig) *limiterPool {
	p := &limiterPool{
		limiters: map[string]*rate.Limiter{},
		cfg:      cfg,
	}

	go p.cleanupLoop()

	return p
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.limiters[key]; ok {
		return l
	}

	l := rate.NewLimiter(rate.Limit(p.cfg.RPS), p.cfg.Burst)
	p.limiters[key] = l

	return l
}

func (p *limiterPool) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		p.mu.Lock()

		// 不做逐 key 的访问时间统计，条目过多时直接重建
		if len(p.limiters) > maxLimiterEntries {
			p.limiters = map[string]*rate.Limiter{}
		}

		p.mu.Unlock()
	}
}

func clientIP(c *gin.Context) string {
	ip := c.ClientIP()
	if ip == "" {
		host, _, err := net.SplitHostPort(c.Request.RemoteAddr)
		if err == nil {
			ip = host
		} else {
			ip = c.Request.RemoteAddr
		}
	}

	return ip
}
