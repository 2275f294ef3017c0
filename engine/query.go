package engine

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// BookResult 是一条带元信息的推荐结果。
type BookResult struct {
	BookID string  `json:"book_id"`
	Score  float64 `json:"score"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
}

// 查询类型（指标 label）
const (
	querySimilar    = "similar"
	queryHybrid     = "hybrid"
	queryFactorized = "factorized"
	queryPredict    = "predict"
	queryStats      = "statistics"
)

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case core.IsNotFound(err):
		return "not_found"
	case core.IsUntrained(err):
		return "untrained"
	case core.IsInvalidInput(err):
		return "invalid_input"
	default:
		return "error"
	}
}

// SimilarBooks 返回与 bookID 内容最相似的 topN 本其他书（不含自身）。
// 分数降序，同分保持目录顺序；topN <= 0 返回空列表；未知书返回 NOT_FOUND。
func (e *Engine) SimilarBooks(bookID string, topN int) (out []BookResult, err error) {
	defer func() { e.metrics.observeQuery(querySimilar, err) }()

	g, err := e.load()
	if err != nil {
		return nil, err
	}
	idx, ok := g.books.Index(bookID)
	if !ok {
		return nil, core.NotFoundError(core.ModuleEngine, "book", bookID)
	}

	scored := g.content.Similar(idx, topN)
	out = make([]BookResult, 0, len(scored))
	for _, s := range scored {
		entry, ok := g.books.Entry(s.Index)
		if !ok {
			return nil, invariantViolation("similar book index %d has no catalog row", s.Index)
		}
		out = append(out, BookResult{BookID: entry.BookID, Score: s.Score, Title: entry.Title, Author: entry.Author})
	}
	return out, nil
}

// PredictScore 返回协同过滤对 (userID, bookID) 的评分预测，裁剪到 [1,5]。
// 未知用户/书退化为训练集全局均值，训练后不会报错。
func (e *Engine) PredictScore(userID, bookID string) (score float64, err error) {
	defer func() { e.metrics.observeQuery(queryPredict, err) }()

	g, err := e.load()
	if err != nil {
		return 0, err
	}
	return g.collab.Predict(userID, bookID), nil
}

// FactorizedRecommend 返回 ALS 为用户推荐的 n 本书（只含书目标识），排除用户已交互的书。
// 用户未出现在评分快照中返回 NOT_FOUND。
func (e *Engine) FactorizedRecommend(userID string, n int) (ids []string, err error) {
	defer func() { e.metrics.observeQuery(queryFactorized, err) }()

	g, err := e.load()
	if err != nil {
		return nil, err
	}
	ids, err = g.als.RecommendUser(userID, n)
	if core.IsNotFound(err) {
		return nil, core.NotFoundError(core.ModuleEngine, "user", userID)
	}
	return ids, err
}

// HybridRecommend 返回混合打分（0.6·协同 + 0.4·内容偏好）最高的 topN 本书。
// 未知用户不会报错；topN <= 0 返回空列表。
func (e *Engine) HybridRecommend(ctx context.Context, userID string, topN int) (out []BookResult, err error) {
	defer func() { e.metrics.observeQuery(queryHybrid, err) }()

	g, err := e.load()
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		return []BookResult{}, nil
	}

	key := cacheKey(g.id, userID, topN)
	if cached, ok := e.cacheGet(ctx, key); ok {
		return cached, nil
	}

	rctx := &core.RecommendContext{
		UserID: userID,
		TopN:   topN,
		Params: map[string]any{"generation_id": g.id},
	}
	items, err := g.hybrid.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	out = make([]BookResult, 0, len(items))
	for _, it := range items {
		idx, ok := g.books.Index(it.ID)
		if !ok {
			return nil, invariantViolation("ranked book %q has no catalog row", it.ID)
		}
		entry, _ := g.books.Entry(idx)
		out = append(out, BookResult{BookID: entry.BookID, Score: it.Score, Title: entry.Title, Author: entry.Author})
	}

	e.cacheSet(ctx, key, out)
	return out, nil
}

// UserAverageRating 返回用户的评分均值与条数；没有评分返回 NOT_FOUND。
func (e *Engine) UserAverageRating(userID string) (st RatingStat, err error) {
	defer func() { e.metrics.observeQuery(queryStats, err) }()

	g, err := e.load()
	if err != nil {
		return RatingStat{}, err
	}
	st, ok := g.userStats.get(userID)
	if !ok {
		return RatingStat{}, core.NotFoundError(core.ModuleEngine, "user", userID)
	}
	return st, nil
}

// BookAverageRating 返回书的评分均值与条数；没有评分返回 NOT_FOUND。
func (e *Engine) BookAverageRating(bookID string) (st RatingStat, err error) {
	defer func() { e.metrics.observeQuery(queryStats, err) }()

	g, err := e.load()
	if err != nil {
		return RatingStat{}, err
	}
	st, ok := g.bookStats.get(bookID)
	if !ok {
		return RatingStat{}, core.NotFoundError(core.ModuleEngine, "book", bookID)
	}
	return st, nil
}

// UserAverageRatings 返回所有用户的评分统计，按首次出现顺序。
func (e *Engine) UserAverageRatings() ([]RatingStat, error) {
	g, err := e.load()
	e.metrics.observeQuery(queryStats, err)
	if err != nil {
		return nil, err
	}
	return g.userStats.all(), nil
}

// BookAverageRatings 返回所有有评分的书的统计，按首次出现顺序。
func (e *Engine) BookAverageRatings() ([]RatingStat, error) {
	g, err := e.load()
	e.metrics.observeQuery(queryStats, err)
	if err != nil {
		return nil, err
	}
	return g.bookStats.all(), nil
}

func invariantViolation(format string, args ...any) error {
	return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvariantViolation, nil, "engine: "+format, args...)
}
