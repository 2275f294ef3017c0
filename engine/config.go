package engine

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// Config 是引擎的训练与查询配置。零值不可用，请从 DefaultConfig 开始修改。
type Config struct {
	// 协同过滤（Item KNN）
	KNNNeighbors    int     `koanf:"knn_neighbors" validate:"gte=1"`
	KNNMinNeighbors int     `koanf:"knn_min_neighbors" validate:"gte=1"`
	HoldoutRatio    float64 `koanf:"holdout_ratio" validate:"gte=0,lt=1"`
	SplitSeed       int64   `koanf:"split_seed"`

	// 隐式反馈 ALS
	ALS ALSConfig `koanf:"als"`

	// DefaultTopN 是请求未指定条数时的默认值
	DefaultTopN int `koanf:"default_top_n" validate:"gte=1"`

	// CacheTTL 是混合推荐结果缓存的过期时间，仅在配置了缓存 Store 时生效
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`

	// PostProcess 是插在混合排序与 TopN 截断之间的可选节点，默认为空
	PostProcess []pipeline.NodeConfig `koanf:"post_process"`
}

// ALSConfig 是 ALS 的超参配置。
type ALSConfig struct {
	Factors        int     `koanf:"factors" validate:"gte=1"`
	Iterations     int     `koanf:"iterations" validate:"gte=1"`
	Regularization float64 `koanf:"regularization" validate:"gt=0"`
	Seed           int64   `koanf:"seed"`
	Workers        int     `koanf:"workers" validate:"gte=0"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		KNNNeighbors:    core.DefaultKNNNeighbors,
		KNNMinNeighbors: core.DefaultKNNMinNeighbors,
		HoldoutRatio:    core.DefaultHoldoutRatio,
		SplitSeed:       core.DefaultSplitSeed,
		ALS: ALSConfig{
			Factors:        core.DefaultALSFactors,
			Iterations:     core.DefaultALSIterations,
			Regularization: core.DefaultALSRegularization,
			Seed:           core.DefaultALSSeed,
		},
		DefaultTopN: core.DefaultTopN,
		CacheTTL:    5 * time.Minute,
	}
}

// Validate 校验配置取值范围。
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("engine config is nil")
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	return nil
}
