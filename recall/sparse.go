package recall

import "sort"

// CSR 是行压缩的稀疏矩阵（用户 × 物品置信度）。
//
//   - 同一 (row, col) 的重复条目求和
//   - 求和后为 0 的条目被移除
//   - 每行的列下标升序
type CSR struct {
	Rows, Cols int

	// IndPtr[r]..IndPtr[r+1] 是第 r 行在 Indices/Data 中的区间
	IndPtr  []int
	Indices []int
	Data    []float64
}

// Triple 是 COO 格式的一条稀疏条目。
type Triple struct {
	Row, Col int
	Value    float64
}

// NewCSR 从 COO 三元组构建 CSR 矩阵。
func NewCSR(rows, cols int, triples []Triple) *CSR {
	perRow := make([]map[int]float64, rows)
	for _, t := range triples {
		if perRow[t.Row] == nil {
			perRow[t.Row] = make(map[int]float64)
		}
		perRow[t.Row][t.Col] += t.Value
	}

	m := &CSR{Rows: rows, Cols: cols, IndPtr: make([]int, rows+1)}
	for r, entries := range perRow {
		cols := make([]int, 0, len(entries))
		for c, v := range entries {
			if v != 0 {
				cols = append(cols, c)
			}
		}
		sort.Ints(cols)
		for _, c := range cols {
			m.Indices = append(m.Indices, c)
			m.Data = append(m.Data, entries[c])
		}
		m.IndPtr[r+1] = len(m.Indices)
	}
	return m
}

// Row 返回第 r 行的列下标与取值（共享底层数组，只读）。
func (m *CSR) Row(r int) ([]int, []float64) {
	lo, hi := m.IndPtr[r], m.IndPtr[r+1]
	return m.Indices[lo:hi], m.Data[lo:hi]
}

// NNZ 返回非零条目数
func (m *CSR) NNZ() int { return len(m.Data) }

// Transpose 返回转置矩阵（物品 × 用户）。
func (m *CSR) Transpose() *CSR {
	t := &CSR{Rows: m.Cols, Cols: m.Rows, IndPtr: make([]int, m.Cols+1)}
	for _, c := range m.Indices {
		t.IndPtr[c+1]++
	}
	for c := 0; c < m.Cols; c++ {
		t.IndPtr[c+1] += t.IndPtr[c]
	}
	t.Indices = make([]int, len(m.Indices))
	t.Data = make([]float64, len(m.Data))
	next := append([]int(nil), t.IndPtr[:m.Cols]...)
	// 按行顺序遍历，转置后每行的列下标天然升序
	for r := 0; r < m.Rows; r++ {
		idx, val := m.Row(r)
		for k, c := range idx {
			p := next[c]
			t.Indices[p] = r
			t.Data[p] = val[k]
			next[c]++
		}
	}
	return t
}
