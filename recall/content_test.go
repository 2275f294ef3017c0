package recall

import (
	"math"
	"reflect"
	"testing"

	"github.com/rushteam/bookrec/core"
)

func testCatalog() []core.CatalogEntry {
	return []core.CatalogEntry{
		{BookID: "b1", Title: "Dune", Author: "Frank Herbert", Genres: []string{"scifi", "classic"}},
		{BookID: "b2", Title: "Dune Messiah", Author: "Frank Herbert", Genres: []string{"scifi"}},
		{BookID: "b3", Title: "Emma", Author: "Jane Austen", Genres: []string{"romance", "classic"}},
		{BookID: "b4", Title: "Persuasion", Author: "Jane Austen", Genres: []string{"romance"}},
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("The Lord of the Rings, by J.R.R. Tolkien (1954)")
	want := []string{"lord", "rings", "tolkien", "1954"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
	if toks := Tokenize("a an the of"); len(toks) != 0 {
		t.Errorf("stop words only: got %v", toks)
	}
}

func TestFitTFIDFRowsNormalized(t *testing.T) {
	tfidf := FitTFIDF([]string{"dune herbert", "dune messiah herbert", "the of"})
	if len(tfidf.Vocabulary) != 3 {
		t.Fatalf("vocabulary = %v", tfidf.Vocabulary)
	}
	for i, row := range tfidf.Rows[:2] {
		var norm float64
		for _, v := range row {
			norm += v * v
		}
		if math.Abs(norm-1) > 1e-9 {
			t.Errorf("row %d norm² = %f, want 1", i, norm)
		}
	}
	for _, v := range tfidf.Rows[2] {
		if v != 0 {
			t.Errorf("empty document should have a zero row, got %v", tfidf.Rows[2])
		}
	}
}

func TestContentModelDiagonalAndSymmetry(t *testing.T) {
	m := NewContentModel(NewBookIndex(testCatalog()))
	n := m.Len()
	for i := 0; i < n; i++ {
		if m.Similarity(i, i) != 1 {
			t.Errorf("sim(%d,%d) = %f, want 1", i, i, m.Similarity(i, i))
		}
		for j := 0; j < n; j++ {
			if m.Similarity(i, j) != m.Similarity(j, i) {
				t.Errorf("sim(%d,%d) != sim(%d,%d)", i, j, j, i)
			}
			if s := m.Similarity(i, j); s < 0 || s > 1+1e-9 {
				t.Errorf("sim(%d,%d) = %f out of [0,1]", i, j, s)
			}
		}
	}
	if m.Similarity(0, 1) <= m.Similarity(0, 2) {
		t.Errorf("Dune should be closer to Dune Messiah than to Emma")
	}
}

func TestContentModelSimilar(t *testing.T) {
	m := NewContentModel(NewBookIndex(testCatalog()))

	got := m.Similar(0, 2)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Index != 1 {
		t.Errorf("most similar to Dune = %d, want 1", got[0].Index)
	}
	for k, s := range got {
		if s.Index == 0 {
			t.Errorf("result %d is the query book itself", k)
		}
		if k > 0 && s.Score > got[k-1].Score {
			t.Errorf("scores not descending: %v", got)
		}
	}

	if all := m.Similar(0, 100); len(all) != 3 {
		t.Errorf("top_n beyond catalog: len = %d, want 3", len(all))
	}
	if none := m.Similar(0, 0); len(none) != 0 {
		t.Errorf("top_n 0: got %v", none)
	}
}

func TestContentModelSimilarTiesKeepCatalogOrder(t *testing.T) {
	catalog := []core.CatalogEntry{
		{BookID: "x", Title: "Alpha"},
		{BookID: "y", Title: "Bravo"},
		{BookID: "z", Title: "Charlie"},
		{BookID: "w", Title: "Delta"},
	}
	m := NewContentModel(NewBookIndex(catalog))
	got := m.Similar(2, 3)
	want := []int{0, 1, 3}
	for k, s := range got {
		if s.Index != want[k] || s.Score != 0 {
			t.Errorf("result %d = %+v, want index %d score 0", k, s, want[k])
		}
	}
}

func TestContentModelEmptyCatalog(t *testing.T) {
	m := NewContentModel(NewBookIndex(nil))
	if m.Len() != 0 {
		t.Fatalf("Len() = %d", m.Len())
	}
	if got := m.Affinity(nil); len(got) != 0 {
		t.Errorf("Affinity on empty catalog = %v", got)
	}
}

func TestContentModelAffinity(t *testing.T) {
	m := NewContentModel(NewBookIndex(testCatalog()))

	zero := m.Affinity(nil)
	for j, v := range zero {
		if v != 0 {
			t.Errorf("affinity[%d] = %f for a user without ratings", j, v)
		}
	}

	rated := []ScoredBook{{Index: 0, Score: 5}, {Index: 2, Score: 1}}
	got := m.Affinity(rated)
	for j := range got {
		want := (m.Similarity(0, j)*5 + m.Similarity(2, j)*1) / 2
		if math.Abs(got[j]-want) > 1e-12 {
			t.Errorf("affinity[%d] = %f, want %f", j, got[j], want)
		}
	}
}
