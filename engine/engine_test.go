package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/source"
	"github.com/rushteam/bookrec/store"
)

func threeBooks() []core.CatalogEntry {
	return []core.CatalogEntry{
		{BookID: "A", Title: "Dune", Author: "Frank Herbert", Genres: []string{"scifi", "desert"}},
		{BookID: "B", Title: "Dune Messiah", Author: "Frank Herbert", Genres: []string{"scifi", "desert"}},
		{BookID: "C", Title: "Emma", Author: "Jane Austen", Genres: []string{"romance"}},
	}
}

func richSnapshot() *core.Snapshot {
	return &core.Snapshot{
		Catalog: append(threeBooks(),
			core.CatalogEntry{BookID: "D", Title: "Persuasion", Author: "Jane Austen", Genres: []string{"romance"}},
			core.CatalogEntry{BookID: "E", Title: "Foundation", Author: "Isaac Asimov", Genres: []string{"scifi"}},
		),
		Ratings: []core.RatingRecord{
			{UserID: "u1", BookID: "A", Rating: 5},
			{UserID: "u1", BookID: "B", Rating: 4},
			{UserID: "u2", BookID: "A", Rating: 4},
			{UserID: "u2", BookID: "E", Rating: 5},
			{UserID: "u3", BookID: "C", Rating: 5},
			{UserID: "u3", BookID: "D", Rating: 4},
			{UserID: "u4", BookID: "B", Rating: 3},
			{UserID: "u4", BookID: "D", Rating: 2},
		},
	}
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.ALS.Factors = 4
	cfg.ALS.Iterations = 5
	return cfg
}

func newTestEngine(src core.SnapshotSource, opts ...Option) *Engine {
	opts = append([]Option{WithRegisterer(prometheus.NewRegistry())}, opts...)
	e, err := New(testConfig(), src, opts...)
	So(err, ShouldBeNil)
	return e
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Load(context.Context) (*core.Snapshot, error) {
	return nil, errors.New("connection refused")
}

func TestEngineLifecycle(t *testing.T) {
	Convey("Given an engine that has not been trained", t, func() {
		e := newTestEngine(nil)
		ctx := context.Background()

		Convey("Every query fails with UNTRAINED", func() {
			_, err := e.SimilarBooks("A", 5)
			So(core.IsUntrained(err), ShouldBeTrue)
			_, err = e.HybridRecommend(ctx, "u1", 5)
			So(core.IsUntrained(err), ShouldBeTrue)
			_, err = e.FactorizedRecommend("u1", 5)
			So(core.IsUntrained(err), ShouldBeTrue)
			_, err = e.PredictScore("u1", "A")
			So(core.IsUntrained(err), ShouldBeTrue)
			_, err = e.UserAverageRatings()
			So(core.IsUntrained(err), ShouldBeTrue)
			So(e.Status().Trained, ShouldBeFalse)
		})

		Convey("Train without a source is not supported", func() {
			So(core.IsNotSupported(e.Train(ctx)), ShouldBeTrue)
		})

		Convey("A malformed snapshot is rejected with INVALID_INPUT", func() {
			snap := richSnapshot()
			snap.Ratings[0].Rating = 9
			err := e.TrainSnapshot(ctx, snap)
			So(core.IsInvalidInput(err), ShouldBeTrue)
			So(e.Status().Trained, ShouldBeFalse)
		})
	})
}

func TestEngineQueries(t *testing.T) {
	Convey("Given an engine trained on a small catalog", t, func() {
		ctx := context.Background()
		e := newTestEngine(source.NewStaticSource(richSnapshot().Ratings, richSnapshot().Catalog))
		So(e.Train(ctx), ShouldBeNil)

		status := e.Status()
		So(status.Trained, ShouldBeTrue)
		So(status.Books, ShouldEqual, 5)
		So(status.Ratings, ShouldEqual, 8)
		So(status.Users, ShouldEqual, 4)

		Convey("SimilarBooks excludes the book, caps at top_n and sorts descending", func() {
			got, err := e.SimilarBooks("A", 3)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 3)
			So(got[0].BookID, ShouldEqual, "B")
			So(got[0].Title, ShouldEqual, "Dune Messiah")
			for i, r := range got {
				So(r.BookID, ShouldNotEqual, "A")
				if i > 0 {
					So(r.Score, ShouldBeLessThanOrEqualTo, got[i-1].Score)
				}
			}

			empty, err := e.SimilarBooks("A", 0)
			So(err, ShouldBeNil)
			So(empty, ShouldBeEmpty)
		})

		Convey("SimilarBooks for an unknown book is NOT_FOUND", func() {
			_, err := e.SimilarBooks("nope", 5)
			So(core.IsNotFound(err), ShouldBeTrue)
		})

		Convey("PredictScore stays on the rating scale, even for strangers", func() {
			for _, u := range []string{"u1", "u3", "stranger"} {
				p, err := e.PredictScore(u, "C")
				So(err, ShouldBeNil)
				So(p, ShouldBeBetweenOrEqual, core.RatingScaleMin, core.RatingScaleMax)
			}
		})

		Convey("FactorizedRecommend never returns books the user rated", func() {
			ids, err := e.FactorizedRecommend("u1", 10)
			So(err, ShouldBeNil)
			So(ids, ShouldNotContain, "A")
			So(ids, ShouldNotContain, "B")
			So(len(ids), ShouldBeLessThanOrEqualTo, 3)

			_, err = e.FactorizedRecommend("stranger", 3)
			So(core.IsNotFound(err), ShouldBeTrue)
		})

		Convey("HybridRecommend for a user without ratings follows the collaborative ranking", func() {
			got, err := e.HybridRecommend(ctx, "stranger", 5)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 5)
			for _, r := range got {
				p, _ := e.PredictScore("stranger", r.BookID)
				So(r.Score, ShouldAlmostEqual, core.HybridCollaborativeWeight*p, 1e-12)
			}
		})

		Convey("HybridRecommend attaches metadata and respects top_n", func() {
			got, err := e.HybridRecommend(ctx, "u3", 2)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
			for _, r := range got {
				So(r.Title, ShouldNotBeEmpty)
				So(r.Author, ShouldNotBeEmpty)
			}

			none, err := e.HybridRecommend(ctx, "u3", 0)
			So(err, ShouldBeNil)
			So(none, ShouldBeEmpty)
		})

		Convey("Rating statistics come from the full snapshot", func() {
			st, err := e.UserAverageRating("u1")
			So(err, ShouldBeNil)
			So(st.Count, ShouldEqual, 2)
			So(st.Average, ShouldAlmostEqual, 4.5)

			bst, err := e.BookAverageRating("D")
			So(err, ShouldBeNil)
			So(bst.Average, ShouldAlmostEqual, 3.0)

			_, err = e.BookAverageRating("E-unrated")
			So(core.IsNotFound(err), ShouldBeTrue)

			users, _ := e.UserAverageRatings()
			So(len(users), ShouldEqual, 4)
			So(users[0].ID, ShouldEqual, "u1")
			books, _ := e.BookAverageRatings()
			So(len(books), ShouldEqual, 5)
		})
	})
}

func TestEngineScenarios(t *testing.T) {
	ctx := context.Background()

	Convey("Given three books and one user who rated A=5 and B=3", t, func() {
		e := newTestEngine(nil)
		snap := &core.Snapshot{
			Catalog: threeBooks(),
			Ratings: []core.RatingRecord{
				{UserID: "U", BookID: "A", Rating: 5},
				{UserID: "U", BookID: "B", Rating: 3},
			},
		}
		So(e.TrainSnapshot(ctx, snap), ShouldBeNil)

		Convey("The content-similar books rank above the unrated C", func() {
			got, err := e.HybridRecommend(ctx, "U", 2)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
			ids := []string{got[0].BookID, got[1].BookID}
			So(ids, ShouldContain, "A")
			So(ids, ShouldContain, "B")
			So(ids, ShouldNotContain, "C")
		})
	})

	Convey("Given an empty ratings snapshot", t, func() {
		e := newTestEngine(nil)
		So(e.TrainSnapshot(ctx, &core.Snapshot{Catalog: threeBooks()}), ShouldBeNil)

		Convey("Training succeeds and every factorized query is NOT_FOUND", func() {
			for _, u := range []string{"U", "anyone", ""} {
				_, err := e.FactorizedRecommend(u, 3)
				So(core.IsNotFound(err), ShouldBeTrue)
			}
		})

		Convey("Similarity still works from the catalog alone", func() {
			got, err := e.SimilarBooks("A", 1)
			So(err, ShouldBeNil)
			So(got[0].BookID, ShouldEqual, "B")
		})
	})

	Convey("Given two trainings on the same snapshot", t, func() {
		e := newTestEngine(nil)
		So(e.TrainSnapshot(ctx, richSnapshot()), ShouldBeNil)
		first := e.Status().GenerationID
		h1, _ := e.HybridRecommend(ctx, "u4", 5)
		f1, _ := e.FactorizedRecommend("u2", 3)
		s1, _ := e.SimilarBooks("C", 4)
		p1, _ := e.PredictScore("u1", "E")

		So(e.TrainSnapshot(ctx, richSnapshot()), ShouldBeNil)
		So(e.Status().GenerationID, ShouldNotEqual, first)

		Convey("Query outputs are identical", func() {
			h2, _ := e.HybridRecommend(ctx, "u4", 5)
			f2, _ := e.FactorizedRecommend("u2", 3)
			s2, _ := e.SimilarBooks("C", 4)
			p2, _ := e.PredictScore("u1", "E")
			So(h2, ShouldResemble, h1)
			So(f2, ShouldResemble, f1)
			So(s2, ShouldResemble, s1)
			So(p2, ShouldEqual, p1)
		})
	})

	Convey("Given a trained engine whose retraining fails", t, func() {
		e := newTestEngine(failingSource{})
		So(e.TrainSnapshot(ctx, richSnapshot()), ShouldBeNil)
		before := e.Status().GenerationID

		So(e.Train(ctx), ShouldNotBeNil)
		bad := richSnapshot()
		bad.Catalog = append(bad.Catalog, bad.Catalog[0])
		So(core.IsInvalidInput(e.TrainSnapshot(ctx, bad)), ShouldBeTrue)

		Convey("The previous generation stays live", func() {
			So(e.Status().GenerationID, ShouldEqual, before)
			_, err := e.SimilarBooks("A", 2)
			So(err, ShouldBeNil)
		})
	})
}

func TestEnginePostProcessAndCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine that drops already rated books", t, func() {
		cfg := testConfig()
		cfg.PostProcess = []pipeline.NodeConfig{{Type: "filter.rated"}}
		e, err := New(cfg, nil, WithRegisterer(prometheus.NewRegistry()))
		So(err, ShouldBeNil)
		So(e.TrainSnapshot(ctx, richSnapshot()), ShouldBeNil)

		got, err := e.HybridRecommend(ctx, "u1", 10)
		So(err, ShouldBeNil)
		So(len(got), ShouldEqual, 3)
		for _, r := range got {
			So(r.BookID, ShouldNotBeIn, []string{"A", "B"})
		}
	})

	Convey("An unknown post-process node is rejected at construction", t, func() {
		cfg := testConfig()
		cfg.PostProcess = []pipeline.NodeConfig{{Type: "rerank.magic"}}
		_, err := New(cfg, nil)
		So(core.IsInvalidInput(err), ShouldBeTrue)
	})

	Convey("Given an engine with a result cache", t, func() {
		cache := store.NewMemoryStore()
		defer cache.Close()
		e := newTestEngine(nil, WithCache(cache))
		So(e.TrainSnapshot(ctx, richSnapshot()), ShouldBeNil)
		gen := e.Status().GenerationID

		first, err := e.HybridRecommend(ctx, "u2", 3)
		So(err, ShouldBeNil)

		_, err = cache.Get(ctx, cacheKey(gen, "u2", 3))
		So(err, ShouldBeNil)

		second, err := e.HybridRecommend(ctx, "u2", 3)
		So(err, ShouldBeNil)
		So(second, ShouldResemble, first)

		Convey("Retraining moves to a fresh key space", func() {
			So(e.TrainSnapshot(ctx, richSnapshot()), ShouldBeNil)
			So(cacheKey(e.Status().GenerationID, "u2", 3), ShouldNotEqual, cacheKey(gen, "u2", 3))
		})
	})
}
