// Command bookrec 运行图书推荐服务：加载快照、训练模型并提供 HTTP 接口。
//
// 配置见 config 包（默认值 → BOOKREC_CONFIG 指定的 YAML → BOOKREC_ 环境变量）。
//
//	bookrec                        启动服务
//	bookrec -publish snapshot.json 把文件快照写入 Redis 数据源后退出
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/engine"
	"github.com/rushteam/bookrec/server"
	"github.com/rushteam/bookrec/source"
	"github.com/rushteam/bookrec/store"
)

// HTTP 超时
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 10 * time.Second
	writeTimeout      = 60 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 30 * time.Second
	requestTimeout    = 30 * time.Second
)

func main() {
	publish := flag.String("publish", "", "publish a snapshot file (.json/.yaml) to the redis source and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *publish != "" {
		if err := publishSnapshot(ctx, cfg, *publish); err != nil {
			logger.Fatal().Err(err).Str("path", *publish).Msg("publish snapshot failed")
		}
		logger.Info().Str("path", *publish).Msg("snapshot published")
		return
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("bookrec exited")
	}
}

//nolint:gocritic // zerolog.Logger 按值传递
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	var closers []func() error
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn().Err(err).Msg("close failed")
			}
		}
	}()

	src, closeSrc, err := openSource(ctx, cfg.Source)
	if err != nil {
		return err
	}
	closers = append(closers, closeSrc)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []engine.Option{engine.WithLogger(logger), engine.WithRegisterer(reg)}
	cache, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return err
	}
	if cache != nil {
		closers = append(closers, cache.Close)
		opts = append(opts, engine.WithCache(cache))
	}

	eng, err := engine.New(&cfg.Engine, src, opts...)
	if err != nil {
		return err
	}
	if cfg.TrainOnStart {
		// 启动训练失败不退出：服务以 UNTRAINED 状态运行，等待 /api/v1/admin/train
		if err := eng.Train(ctx); err != nil {
			logger.Error().Err(err).Msg("initial training failed")
		}
	}

	handler := server.New(eng, logger, server.Options{
		DefaultLimit:   cfg.Engine.DefaultTopN,
		Gatherer:       reg,
		RequestTimeout: requestTimeout,
	}).Handler()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Str("source", src.Name()).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var logger zerolog.Logger
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Str("service", "bookrec").Logger()
}

func noClose() error { return nil }

// openSource 按配置创建快照数据源，返回的 close 函数释放底层连接。
func openSource(ctx context.Context, cfg config.SourceConfig) (core.SnapshotSource, func() error, error) {
	switch cfg.Kind {
	case config.SourceFile:
		return &source.FileSource{Path: cfg.Path}, noClose, nil
	case config.SourcePostgres:
		db, err := source.OpenPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return source.NewSQLSource(db), db.Close, nil
	case config.SourceRedis:
		rs, err := store.NewRedisStore(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return &source.StoreSource{Store: rs, Prefix: cfg.Prefix}, rs.Close, nil
	default:
		return nil, nil, core.InvalidInputError(core.ModuleSource, "unknown source kind %q", cfg.Kind)
	}
}

// openCache 按配置创建结果缓存，none 时返回 nil。
func openCache(ctx context.Context, cfg config.CacheConfig) (core.Store, error) {
	switch cfg.Kind {
	case config.CacheMemory:
		return store.NewMemoryStore(), nil
	case config.CacheRedis:
		return store.NewRedisStore(ctx, cfg.Redis)
	default:
		return nil, nil
	}
}

// publishSnapshot 读取文件快照，校验后写入 Redis 数据源。
func publishSnapshot(ctx context.Context, cfg *config.Config, path string) error {
	if cfg.Source.Kind != config.SourceRedis {
		return core.InvalidInputError(core.ModuleSource, "publish needs source.kind=redis, got %q", cfg.Source.Kind)
	}
	snap, err := (&source.FileSource{Path: path}).Load(ctx)
	if err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return err
	}
	rs, err := store.NewRedisStore(ctx, cfg.Source.Redis)
	if err != nil {
		return err
	}
	defer rs.Close()
	return (&source.StoreSource{Store: rs, Prefix: cfg.Source.Prefix}).Publish(ctx, snap)
}
