// Package config 定义 bookrec 进程的配置结构与加载逻辑。
//
// 加载顺序（低 → 高）：
//  1. 默认值（New）
//  2. YAML 文件（BOOKREC_CONFIG 指定时）
//  3. 环境变量（前缀 BOOKREC_，嵌套字段用双下划线，例如 BOOKREC_ENGINE__ALS__FACTORS）
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/bookrec/engine"
	"github.com/rushteam/bookrec/source"
	"github.com/rushteam/bookrec/store"
)

// 快照数据源类型
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
)

// 结果缓存类型
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config 是进程配置。
type Config struct {
	// LogLevel: debug / info / warn / error
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// LogFormat: json（默认）或 console（开发环境彩色输出）
	LogFormat string `koanf:"log_format" validate:"oneof=json console"`

	// Addr 是 HTTP 监听地址，例如 ":8080"
	Addr string `koanf:"addr" validate:"required"`

	// TrainOnStart 为 true 时启动即训练一次；失败不退出，查询返回 UNTRAINED 直到下一次训练成功
	TrainOnStart bool `koanf:"train_on_start"`

	Source SourceConfig  `koanf:"source"`
	Cache  CacheConfig   `koanf:"cache"`
	Engine engine.Config `koanf:"engine" validate:"-"`
}

// SourceConfig 选择训练快照的来源。
type SourceConfig struct {
	Kind string `koanf:"kind" validate:"oneof=file postgres redis"`

	// file：.json / .yaml / .yml
	Path string `koanf:"path"`

	Postgres source.PostgresOptions `koanf:"postgres" validate:"-"`
	// redis：快照以 {Prefix}:ratings / {Prefix}:catalog 保存
	Redis  store.RedisOptions `koanf:"redis" validate:"-"`
	Prefix string             `koanf:"prefix"`
}

// CacheConfig 选择混合推荐结果缓存。
type CacheConfig struct {
	Kind  string             `koanf:"kind" validate:"oneof=none memory redis"`
	Redis store.RedisOptions `koanf:"redis" validate:"-"`
}

// New 返回带默认值的配置。
func New() *Config {
	return &Config{
		LogLevel:     "info",
		LogFormat:    "json",
		Addr:         ":8080",
		TrainOnStart: true,
		Source: SourceConfig{
			Kind:   SourceFile,
			Path:   "data/snapshot.json",
			Prefix: source.DefaultStorePrefix,
		},
		Cache: CacheConfig{
			Kind: CacheNone,
		},
		Engine: *engine.DefaultConfig(),
	}
}

// Validate 校验配置：只校验被选中的数据源与缓存的连接参数。
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch c.Source.Kind {
	case SourceFile:
		if c.Source.Path == "" {
			return fmt.Errorf("config: source.path is required for kind %q", SourceFile)
		}
	case SourcePostgres:
		if err := v.Struct(c.Source.Postgres); err != nil {
			return fmt.Errorf("config: source.postgres: %w", err)
		}
	case SourceRedis:
		if err := v.Struct(c.Source.Redis); err != nil {
			return fmt.Errorf("config: source.redis: %w", err)
		}
	}
	if c.Cache.Kind == CacheRedis {
		if err := v.Struct(c.Cache.Redis); err != nil {
			return fmt.Errorf("config: cache.redis: %w", err)
		}
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
