// Package engine 是推荐引擎的编排层：训练出一代模型并原子发布，在当前代上回答查询。
//
// 并发模型：单写多读。训练由互斥锁串行化；模型代通过 atomic.Pointer 发布，
// 每个查询只加载一次当前代，因此只会看到完整的旧代或完整的新代。
// 训练失败时旧代保持生效。
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/core"
)

// Engine 是推荐引擎，可安全并发使用。
type Engine struct {
	cfg    *Config
	source core.SnapshotSource
	logger zerolog.Logger

	current atomic.Pointer[generation]
	trainMu sync.Mutex

	cache   core.Store
	metrics *metrics
}

// Option 是 Engine 的可选配置。
type Option func(*Engine)

// WithLogger 设置日志（默认不输出）。
//
//nolint:gocritic // zerolog.Logger 按值传递
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithCache 为混合推荐启用结果缓存（key 含模型代 id）。
func WithCache(s core.Store) Option {
	return func(e *Engine) { e.cache = s }
}

// WithRegisterer 设置指标注册器（默认使用独立的 Registry）。
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics = newMetrics(reg) }
}

// New 创建引擎。source 可为 nil，此时只能通过 TrainSnapshot 训练。
func New(cfg *Config, source core.SnapshotSource, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, err, "engine: invalid config")
	}
	// 提前构建一次后处理节点，配置错误在启动时暴露
	if _, err := buildHybridPipeline(cfg, &generation{}); err != nil {
		return nil, core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, err, "engine: invalid post_process")
	}

	e := &Engine{
		cfg:    cfg,
		source: source,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = newMetrics(prometheus.NewRegistry())
	}
	e.logger = e.logger.With().Str("component", "engine").Logger()
	return e, nil
}

// Train 从数据源加载快照并训练新一代模型。
func (e *Engine) Train(ctx context.Context) error {
	if e.source == nil {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported, "engine: no snapshot source configured")
	}
	snap, err := e.source.Load(ctx)
	if err != nil {
		e.metrics.trainTotal.WithLabelValues("failure").Inc()
		e.logger.Error().Err(err).Str("source", e.source.Name()).Msg("load snapshot failed")
		return fmt.Errorf("engine: load snapshot from %s: %w", e.source.Name(), err)
	}
	return e.TrainSnapshot(ctx, snap)
}

// TrainSnapshot 在给定快照上训练新一代模型，成功后原子替换当前代。
// 失败时返回错误，当前代不变。训练一旦开始即运行到结束，ctx 只在开始前检查。
func (e *Engine) TrainSnapshot(ctx context.Context, snap *core.Snapshot) error {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		e.metrics.trainTotal.WithLabelValues("failure").Inc()
		e.logger.Warn().Err(err).Msg("snapshot rejected")
		return err
	}

	g, err := buildGeneration(e.cfg, snap)
	if err != nil {
		e.metrics.trainTotal.WithLabelValues("failure").Inc()
		e.logger.Error().Err(err).Int("ratings", len(snap.Ratings)).Int("books", len(snap.Catalog)).
			Msg("training failed, keeping previous generation")
		if core.IsDomainError(err) {
			return err
		}
		return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeTrainingFailure, err, "engine: training failed")
	}

	prev := e.current.Swap(g)
	e.metrics.trainTotal.WithLabelValues("success").Inc()
	e.metrics.trainDuration.Observe(g.duration.Seconds())
	e.metrics.generationBooks.Set(float64(g.books.Len()))
	e.metrics.generationRating.Set(float64(g.numRatings))
	e.metrics.generationUsers.Set(float64(len(g.history)))

	ev := e.logger.Info().
		Str("generation", g.id).
		Int("books", g.books.Len()).
		Int("ratings", g.numRatings).
		Int("users", len(g.history)).
		Dur("duration", g.duration)
	if prev != nil {
		ev = ev.Str("previous", prev.id)
	}
	ev.Msg("model generation published")
	return nil
}

// Status 描述当前代模型。
type Status struct {
	Trained      bool          `json:"trained"`
	GenerationID string        `json:"generation_id,omitempty"`
	TrainedAt    time.Time     `json:"trained_at,omitempty"`
	Duration     time.Duration `json:"duration_ns,omitempty"`
	Books        int           `json:"books"`
	Ratings      int           `json:"ratings"`
	Users        int           `json:"users"`
}

// Status 返回当前代的概要信息，未训练时 Trained 为 false。
func (e *Engine) Status() Status {
	g := e.current.Load()
	if g == nil {
		return Status{}
	}
	return Status{
		Trained:      true,
		GenerationID: g.id,
		TrainedAt:    g.trainedAt,
		Duration:     g.duration,
		Books:        g.books.Len(),
		Ratings:      g.numRatings,
		Users:        len(g.history),
	}
}

// load 返回当前代，未训练时返回 ErrUntrained。
func (e *Engine) load() (*generation, error) {
	g := e.current.Load()
	if g == nil {
		return nil, core.ErrUntrained
	}
	return g, nil
}
