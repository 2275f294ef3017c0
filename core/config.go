package core

// 评分刻度：协同过滤训练与预测使用 [RatingScaleMin, RatingScaleMax] 做裁剪；
// 加载边界允许的评分范围为 [0, RatingScaleMax]。
const (
	RatingScaleMin = 1.0
	RatingScaleMax = 5.0
)

// 混合打分固定权重
const (
	HybridCollaborativeWeight = 0.6
	HybridContentWeight       = 0.4
)

// 各模型默认超参
const (
	DefaultTopN = 5

	DefaultKNNNeighbors    = 40
	DefaultKNNMinNeighbors = 1
	DefaultHoldoutRatio    = 0.2
	DefaultSplitSeed       = 42

	DefaultALSFactors        = 50
	DefaultALSIterations     = 15
	DefaultALSRegularization = 0.01
	DefaultALSSeed           = 42
)
