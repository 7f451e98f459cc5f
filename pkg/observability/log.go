package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogCacheHooks writes cache traffic to a logger at debug level.
type LogCacheHooks struct {
	logger *log.Logger
}

// NewLogCacheHooks returns hooks logging to l under the "cache" prefix.
func NewLogCacheHooks(l *log.Logger) *LogCacheHooks {
	return &LogCacheHooks{logger: l.WithPrefix("cache")}
}

func (h *LogCacheHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("hit", "type", keyType)
}

func (h *LogCacheHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("miss", "type", keyType)
}

func (h *LogCacheHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("stored", "type", keyType, "bytes", size)
}

// LogHTTPHooks writes upstream requests to a logger at debug level.
// Failed requests are logged at warn.
type LogHTTPHooks struct {
	logger *log.Logger
}

// NewLogHTTPHooks returns hooks logging to l under the "feed" prefix.
func NewLogHTTPHooks(l *log.Logger) *LogHTTPHooks {
	return &LogHTTPHooks{logger: l.WithPrefix("feed")}
}

func (h *LogHTTPHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("request", "method", method, "host", host, "path", path)
}

func (h *LogHTTPHooks) OnResponse(_ context.Context, method, host, path string, statusCode int, duration time.Duration) {
	h.logger.Debug("response", "method", method, "host", host, "path", path,
		"status", statusCode, "took", duration.Round(time.Millisecond))
}

func (h *LogHTTPHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Warn("request failed", "method", method, "host", host, "path", path, "error", err)
}

var (
	_ CacheHooks = (*LogCacheHooks)(nil)
	_ HTTPHooks  = (*LogHTTPHooks)(nil)
)
