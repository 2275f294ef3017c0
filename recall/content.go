package recall

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/bookrec/core"
)

// ContentModel 是基于内容的相似度模型（Content-Based）。
//
// 核心思想："标题/作者/类型文本相近的书，彼此相似"
//
// 算法流程：
//  1. 每本书拼接 title + author + genres 为一段文本
//  2. TF-IDF 向量化（去除英文停用词）
//  3. 计算两两余弦相似度，得到 N×N 稠密对称矩阵
//
// 工程特征：
//   - 计算复杂度：O(N²·V)，仅适合中小规模目录（没有近似近邻降级）
//   - 对角线恒为 1，矩阵按构造对称
type ContentModel struct {
	books *BookIndex
	sim   *mat.SymDense
}

// ScoredBook 是一条带分数的书目结果（下标空间）。
type ScoredBook struct {
	Index int
	Score float64
}

// BookText 拼接一本书的文本特征。
func BookText(c core.CatalogEntry) string {
	return c.Title + " " + c.Author + " " + strings.Join(c.Genres, " ")
}

// NewContentModel 在目录上构建相似度矩阵。
func NewContentModel(books *BookIndex) *ContentModel {
	n := books.Len()
	m := &ContentModel{books: books}
	if n == 0 {
		return m
	}

	docs := make([]string, n)
	for i, c := range books.Entries() {
		docs[i] = BookText(c)
	}
	tfidf := FitTFIDF(docs)

	sim := mat.NewSymDense(n, nil)
	if v := len(tfidf.Vocabulary); v > 0 {
		x := mat.NewDense(n, v, nil)
		for i, row := range tfidf.Rows {
			x.SetRow(i, row)
		}
		// sim = X·Xᵀ，行已 L2 归一化，即余弦相似度
		sim.SymOuterK(1, x)
	}
	for i := 0; i < n; i++ {
		sim.SetSym(i, i, 1)
	}
	m.sim = sim
	return m
}

// Len 返回目录大小
func (m *ContentModel) Len() int { return m.books.Len() }

// Similarity 返回两本书（下标）之间的相似度
func (m *ContentModel) Similarity(i, j int) float64 {
	return m.sim.At(i, j)
}

// Similar 返回与第 i 本书最相似的 topN 本其他书，按分数降序，分数相同保持目录顺序。
func (m *ContentModel) Similar(i, topN int) []ScoredBook {
	if topN <= 0 {
		return nil
	}
	n := m.books.Len()
	scores := make([]ScoredBook, 0, n)
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		scores = append(scores, ScoredBook{Index: j, Score: m.sim.At(i, j)})
	}
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Score > scores[b].Score
	})
	if len(scores) > topN {
		scores = scores[:topN]
	}
	return scores
}

// Affinity 计算用户的内容偏好向量：对用户评过的每本书（Index 为书目下标，Score 为评分），
// 取其相似度行乘以评分累加，再除以评分条数。没有评分时返回全零向量。
func (m *ContentModel) Affinity(rated []ScoredBook) []float64 {
	n := m.books.Len()
	out := make([]float64, n)
	if len(rated) == 0 {
		return out
	}
	for _, r := range rated {
		for j := 0; j < n; j++ {
			out[j] += m.sim.At(r.Index, j) * r.Score
		}
	}
	for j := range out {
		out[j] /= float64(len(rated))
	}
	return out
}
