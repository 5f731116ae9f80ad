package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const metaKey = "response_meta"

// WithResponseMeta gives each request a meta map that list handlers echo back.
// The handler's elapsed time is added after it returns unless already set.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		meta := map[string]interface{}{}
		c.Set(metaKey, meta)
		c.Next()
		if _, ok := meta["processing_time_ms"]; !ok {
			meta["processing_time_ms"] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit marks whether the list came from Redis, in meta and in X-Cache.
func SetCacheHit(c *gin.Context, hit bool) {
	status := "MISS"
	if hit {
		status = "HIT"
	}
	c.Header("X-Cache", status)
	meta(c)["cache_hit"] = hit
}

// ExtractMeta returns the request's meta map, or nil outside WithResponseMeta.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	return existingMeta(c)
}

// CachedList advertises the list cache lifetime on cacheable list routes.
func CachedList(ttl time.Duration) gin.HandlerFunc {
	seconds := int(ttl.Seconds())
	value := strconv.Itoa(seconds)
	return func(c *gin.Context) {
		c.Header("X-Cache-TTL", value)
		if m := existingMeta(c); m != nil {
			m["cache_ttl_seconds"] = seconds
		}
		c.Next()
	}
}

func existingMeta(c *gin.Context) map[string]interface{} {
	v, ok := c.Get(metaKey)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]interface{})
	return m
}

func meta(c *gin.Context) map[string]interface{} {
	if m := existingMeta(c); m != nil {
		return m
	}
	m := map[string]interface{}{}
	c.Set(metaKey, m)
	return m
}
