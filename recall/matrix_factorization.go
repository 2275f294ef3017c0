package recall

import (
	"errors"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/bookrec/core"
)

// ALSConfig 是隐式反馈 ALS 的超参。
type ALSConfig struct {
	Factors        int
	Iterations     int
	Regularization float64
	Seed           int64

	// Workers 并行求解的协程数，<=0 时取 GOMAXPROCS
	Workers int
}

func (c ALSConfig) withDefaults() ALSConfig {
	if c.Factors <= 0 {
		c.Factors = core.DefaultALSFactors
	}
	if c.Iterations <= 0 {
		c.Iterations = core.DefaultALSIterations
	}
	if c.Regularization <= 0 {
		c.Regularization = core.DefaultALSRegularization
	}
	if c.Seed == 0 {
		c.Seed = core.DefaultALSSeed
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// errNotPositiveDefinite 表示某一行的正规方程无法做 Cholesky 分解
var errNotPositiveDefinite = errors.New("normal equations are not positive definite")

// ALSModel 是隐式反馈矩阵分解模型（Implicit ALS）。
//
// 核心思想：评分当作置信度 c，偏好 p = 1（观测到）/ 0（未观测），
// 交替固定一侧因子、对另一侧逐行求解加权最小二乘。
//
// 每行的正规方程：
//
//	(YᵀY + Σ (c−1)·y·yᵀ + λI) x = Σ c·y
//
// 用 Cholesky 分解求解，YᵀY 每个半步只算一次。
//
// 工程特征：
//   - 训练：离线全量，行级并行（errgroup）
//   - 预测：用户因子 · 物品因子，O(items·factors)
//   - 同一输入 + 同一种子，结果确定
type ALSModel struct {
	index      *InteractionIndex
	confidence *CSR
	users      *mat.Dense // NumUsers × Factors
	items      *mat.Dense // NumItems × Factors
	factors    int
}

// TrainALS 在评分表上训练 ALS 模型。空评分表得到一个没有用户的模型。
func TrainALS(ratings []core.RatingRecord, cfg ALSConfig) (*ALSModel, error) {
	cfg = cfg.withDefaults()
	index := NewInteractionIndex(ratings)

	triples := make([]Triple, 0, len(ratings))
	for _, r := range ratings {
		u, _ := index.UserIndex(r.UserID)
		i, _ := index.ItemIndex(r.BookID)
		triples = append(triples, Triple{Row: u, Col: i, Value: r.Rating})
	}
	cui := NewCSR(index.NumUsers(), index.NumItems(), triples)

	m := &ALSModel{index: index, confidence: cui, factors: cfg.Factors}
	if cui.Rows == 0 || cui.Cols == 0 {
		return m, nil
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // 可复现的初始化
	m.users = randomFactors(rng, cui.Rows, cfg.Factors)
	m.items = randomFactors(rng, cui.Cols, cfg.Factors)

	ciu := cui.Transpose()
	for it := 0; it < cfg.Iterations; it++ {
		if err := solveHalfStep(m.users, m.items, cui, cfg); err != nil {
			return nil, core.WrapDomainError(core.ModuleRecall, core.ErrorCodeTrainingFailure, err,
				"recall: als iteration %d (users)", it)
		}
		if err := solveHalfStep(m.items, m.users, ciu, cfg); err != nil {
			return nil, core.WrapDomainError(core.ModuleRecall, core.ErrorCodeTrainingFailure, err,
				"recall: als iteration %d (items)", it)
		}
	}
	return m, nil
}

func randomFactors(rng *rand.Rand, rows, factors int) *mat.Dense {
	data := make([]float64, rows*factors)
	for k := range data {
		data[k] = rng.Float64() * 0.01
	}
	return mat.NewDense(rows, factors, data)
}

// solveHalfStep 固定 fixed，逐行求解 target。conf 的第 r 行对应 target 的第 r 行。
func solveHalfStep(target, fixed *mat.Dense, conf *CSR, cfg ALSConfig) error {
	f := cfg.Factors
	var gram mat.SymDense
	gram.SymOuterK(1, fixed.T())

	g := new(errgroup.Group)
	g.SetLimit(cfg.Workers)
	for r := 0; r < conf.Rows; r++ {
		g.Go(func() error {
			idx, val := conf.Row(r)
			a := mat.NewSymDense(f, nil)
			a.CopySym(&gram)
			b := mat.NewVecDense(f, nil)
			for k, c := range idx {
				y := fixed.RowView(c)
				a.SymRankOne(a, val[k]-1, y)
				b.AddScaledVec(b, val[k], y)
			}
			for d := 0; d < f; d++ {
				a.SetSym(d, d, a.At(d, d)+cfg.Regularization)
			}

			var chol mat.Cholesky
			if ok := chol.Factorize(a); !ok {
				return errNotPositiveDefinite
			}
			var x mat.VecDense
			if err := chol.SolveVecTo(&x, b); err != nil {
				return err
			}
			target.SetRow(r, x.RawVector().Data)
			return nil
		})
	}
	return g.Wait()
}

// Index 返回模型使用的用户/物品映射
func (m *ALSModel) Index() *InteractionIndex { return m.index }

// Confidence 返回用户 × 物品置信度矩阵
func (m *ALSModel) Confidence() *CSR { return m.confidence }

// Score 返回用户下标 u 对物品下标 i 的偏好分 xᵤ·yᵢ
func (m *ALSModel) Score(u, i int) float64 {
	return mat.Dot(m.users.RowView(u), m.items.RowView(i))
}

// Recommend 返回用户下标 u 的 topN 物品（下标空间），排除用户已交互的物品，
// 分数降序，同分按物品下标升序。
func (m *ALSModel) Recommend(u, n int) []ScoredBook {
	if n <= 0 || m.items == nil {
		return []ScoredBook{}
	}
	seen, _ := m.confidence.Row(u)
	exclude := make(map[int]struct{}, len(seen))
	for _, i := range seen {
		exclude[i] = struct{}{}
	}

	var scores mat.VecDense
	scores.MulVec(m.items, m.users.RowView(u))

	out := make([]ScoredBook, 0, m.confidence.Cols)
	for i := 0; i < m.confidence.Cols; i++ {
		if _, ok := exclude[i]; ok {
			continue
		}
		out = append(out, ScoredBook{Index: i, Score: scores.AtVec(i)})
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].Index < out[b].Index
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// RecommendUser 按用户标识推荐，返回书目标识。用户未出现在评分表中返回 NOT_FOUND。
func (m *ALSModel) RecommendUser(userID string, n int) ([]string, error) {
	u, ok := m.index.UserIndex(userID)
	if !ok {
		return nil, core.NotFoundError(core.ModuleRecall, "user", userID)
	}
	scored := m.Recommend(u, n)
	ids := make([]string, 0, len(scored))
	for _, s := range scored {
		id, ok := m.index.ItemID(s.Index)
		if !ok {
			return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeInvariantViolation,
				"recall: als item index without identifier")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
