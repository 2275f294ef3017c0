package recall

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/bookrec/core"
)

// ItemKNNConfig 是物品协同过滤的配置。
type ItemKNNConfig struct {
	// K 预测时最多考虑的近邻物品数
	K int

	// MinK 至少需要的正相似度近邻数，不足则退化为全局均值
	MinK int

	// HoldoutRatio 留出集比例，训练只使用其余部分；0 表示全部用于训练
	HoldoutRatio float64

	// Seed 划分训练/留出集的随机种子
	Seed int64
}

func (c ItemKNNConfig) withDefaults() ItemKNNConfig {
	if c.K <= 0 {
		c.K = core.DefaultKNNNeighbors
	}
	if c.MinK <= 0 {
		c.MinK = core.DefaultKNNMinNeighbors
	}
	if c.HoldoutRatio < 0 || c.HoldoutRatio >= 1 {
		c.HoldoutRatio = core.DefaultHoldoutRatio
	}
	if c.Seed == 0 {
		c.Seed = core.DefaultSplitSeed
	}
	return c
}

// ItemKNN 是基于物品的协同过滤模型（Item-based KNN basic）。
//
// 核心思想："被同一批用户喜欢的物品，相互相似"
//
// 算法流程：
//  1. 评分按 (1-HoldoutRatio)/HoldoutRatio 随机划分，只用训练部分
//  2. 物品相似度 = 共同评分用户上的余弦相似度
//  3. 预测 (u, i)：在用户评过的物品中取与 i 最相似的 K 个，
//     est = Σ sim·r / Σ sim（只计正相似度）
//  4. 用户或物品未出现、近邻不足时退化为训练集全局均值
//  5. 结果裁剪到评分刻度 [1, 5]
type ItemKNN struct {
	cfg ItemKNNConfig

	users map[string]int
	items map[string]int

	// userRatings[u] 是用户 u 在训练集中的 (物品下标, 评分)，允许重复
	userRatings [][]ScoredBook

	sim        *mat.SymDense
	globalMean float64
	trainSize  int
}

// SplitRatings 按种子打乱后划分留出集与训练集，留出集大小为 ceil(ratio·n)。
func SplitRatings(ratings []core.RatingRecord, ratio float64, seed int64) (train, holdout []core.RatingRecord) {
	n := len(ratings)
	perm := rand.New(rand.NewSource(seed)).Perm(n) //nolint:gosec // 可复现的划分
	testSize := int(math.Ceil(ratio * float64(n)))
	if testSize > n {
		testSize = n
	}
	holdout = make([]core.RatingRecord, 0, testSize)
	train = make([]core.RatingRecord, 0, n-testSize)
	for k, p := range perm {
		if k < testSize {
			holdout = append(holdout, ratings[p])
		} else {
			train = append(train, ratings[p])
		}
	}
	return train, holdout
}

// NewItemKNN 在评分表上训练模型。
func NewItemKNN(ratings []core.RatingRecord, cfg ItemKNNConfig) *ItemKNN {
	cfg = cfg.withDefaults()
	train, _ := SplitRatings(ratings, cfg.HoldoutRatio, cfg.Seed)

	m := &ItemKNN{
		cfg:       cfg,
		users:     make(map[string]int),
		items:     make(map[string]int),
		trainSize: len(train),
	}

	var sum float64
	for _, r := range train {
		u, ok := m.users[r.UserID]
		if !ok {
			u = len(m.userRatings)
			m.users[r.UserID] = u
			m.userRatings = append(m.userRatings, nil)
		}
		i, ok := m.items[r.BookID]
		if !ok {
			i = len(m.items)
			m.items[r.BookID] = i
		}
		m.userRatings[u] = append(m.userRatings[u], ScoredBook{Index: i, Score: r.Rating})
		sum += r.Rating
	}
	if len(train) > 0 {
		m.globalMean = sum / float64(len(train))
	}
	m.sim = m.cosine()
	return m
}

// cosine 计算物品两两相似度，只在共同评分用户上累加。
func (m *ItemKNN) cosine() *mat.SymDense {
	n := len(m.items)
	if n == 0 {
		return nil
	}
	prods := make([]float64, n*n)
	sqi := make([]float64, n*n)
	sqj := make([]float64, n*n)
	for _, rated := range m.userRatings {
		for _, a := range rated {
			for _, b := range rated {
				k := a.Index*n + b.Index
				prods[k] += a.Score * b.Score
				sqi[k] += a.Score * a.Score
				sqj[k] += b.Score * b.Score
			}
		}
	}

	sim := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sim.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			k := i*n + j
			denom := math.Sqrt(sqi[k] * sqj[k])
			if denom == 0 {
				continue
			}
			sim.SetSym(i, j, prods[k]/denom)
		}
	}
	return sim
}

// GlobalMean 返回训练集评分均值（空训练集为 0）
func (m *ItemKNN) GlobalMean() float64 { return m.globalMean }

// TrainSize 返回训练集评分条数
func (m *ItemKNN) TrainSize() int { return m.trainSize }

// Predict 估计 (userID, bookID) 的评分，总是返回裁剪后的结果。
func (m *ItemKNN) Predict(userID, bookID string) float64 {
	est, _ := m.estimate(userID, bookID)
	return clip(est, core.RatingScaleMin, core.RatingScaleMax)
}

// estimate 返回未裁剪的估计值，以及是否由近邻得出（false 表示退化为全局均值）。
func (m *ItemKNN) estimate(userID, bookID string) (float64, bool) {
	u, okU := m.users[userID]
	i, okI := m.items[bookID]
	if !okU || !okI {
		return m.globalMean, false
	}

	rated := m.userRatings[u]
	neighbors := make([]ScoredBook, len(rated))
	for k, r := range rated {
		neighbors[k] = ScoredBook{Index: r.Index, Score: m.sim.At(i, r.Index)}
	}
	// 按相似度降序稳定排序，取前 K 个
	order := make([]int, len(rated))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool {
		return neighbors[order[a]].Score > neighbors[order[b]].Score
	})
	if len(order) > m.cfg.K {
		order = order[:m.cfg.K]
	}

	var sumSim, sumRatings float64
	actualK := 0
	for _, k := range order {
		s := neighbors[k].Score
		if s > 0 {
			sumSim += s
			sumRatings += s * rated[k].Score
			actualK++
		}
	}
	if actualK < m.cfg.MinK || sumSim == 0 {
		return m.globalMean, false
	}
	return sumRatings / sumSim, true
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
