package engine

import (
	"context"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

// cacheKey 包含模型代 id，换代后旧结果自然失效。
func cacheKey(generationID, userID string, topN int) string {
	return "hybrid:" + generationID + ":" + userID + ":" + strconv.Itoa(topN)
}

func (e *Engine) cacheGet(ctx context.Context, key string) ([]BookResult, bool) {
	if e.cache == nil {
		return nil, false
	}
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		result := "miss"
		if !core.IsStoreNotFound(err) {
			result = "error"
			e.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		}
		e.metrics.cacheLookups.WithLabelValues(result).Inc()
		return nil, false
	}
	var out []BookResult
	if err := json.Unmarshal(data, &out); err != nil {
		e.metrics.cacheLookups.WithLabelValues("error").Inc()
		e.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return nil, false
	}
	e.metrics.cacheLookups.WithLabelValues("hit").Inc()
	return out, true
}

func (e *Engine) cacheSet(ctx context.Context, key string, results []BookResult) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		e.logger.Warn().Err(err).Msg("cache encode failed")
		return
	}
	if err := e.cache.Set(ctx, key, data, int(e.cfg.CacheTTL.Seconds())); err != nil {
		e.logger.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}
