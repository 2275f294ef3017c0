package engine

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/recall"
)

// generation 是一次训练产出的全部只读制品。发布后不再修改，查询只读。
type generation struct {
	id        string
	trainedAt time.Time
	duration  time.Duration

	books   *recall.BookIndex
	content *recall.ContentModel
	collab  *recall.ItemKNN
	als     *recall.ALSModel

	// history 是全量快照中每个用户的评分，按出现顺序
	history map[string][]core.RatingRecord
	rated   map[string]map[string]struct{}

	userStats *ratingStats
	bookStats *ratingStats

	numRatings int
	hybrid     *pipeline.Pipeline
}

// RatingsOf 实现 rank.RatingHistory
func (g *generation) RatingsOf(userID string) []core.RatingRecord { return g.history[userID] }

// HasRated 实现 filter.RatedLookup
func (g *generation) HasRated(userID, bookID string) bool {
	_, ok := g.rated[userID][bookID]
	return ok
}

// buildGeneration 在同一份不可变快照上并发构建三个模型，任一失败则整体失败。
func buildGeneration(cfg *Config, snap *core.Snapshot) (*generation, error) {
	start := time.Now()
	g := &generation{
		id:         uuid.NewString(),
		books:      recall.NewBookIndex(snap.Catalog),
		history:    make(map[string][]core.RatingRecord),
		rated:      make(map[string]map[string]struct{}),
		numRatings: len(snap.Ratings),
	}

	var eg errgroup.Group
	eg.Go(func() error {
		g.content = recall.NewContentModel(g.books)
		return nil
	})
	eg.Go(func() error {
		g.collab = recall.NewItemKNN(snap.Ratings, recall.ItemKNNConfig{
			K:            cfg.KNNNeighbors,
			MinK:         cfg.KNNMinNeighbors,
			HoldoutRatio: cfg.HoldoutRatio,
			Seed:         cfg.SplitSeed,
		})
		return nil
	})
	eg.Go(func() error {
		m, err := recall.TrainALS(snap.Ratings, recall.ALSConfig{
			Factors:        cfg.ALS.Factors,
			Iterations:     cfg.ALS.Iterations,
			Regularization: cfg.ALS.Regularization,
			Seed:           cfg.ALS.Seed,
			Workers:        cfg.ALS.Workers,
		})
		if err != nil {
			return err
		}
		g.als = m
		return nil
	})
	eg.Go(func() error {
		g.userStats = newRatingStats(snap.Ratings, func(r core.RatingRecord) string { return r.UserID })
		g.bookStats = newRatingStats(snap.Ratings, func(r core.RatingRecord) string { return r.BookID })
		return nil
	})

	for _, r := range snap.Ratings {
		g.history[r.UserID] = append(g.history[r.UserID], r)
		if g.rated[r.UserID] == nil {
			g.rated[r.UserID] = make(map[string]struct{})
		}
		g.rated[r.UserID][r.BookID] = struct{}{}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	p, err := buildHybridPipeline(cfg, g)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, err, "engine: build hybrid pipeline")
	}
	g.hybrid = p
	g.trainedAt = time.Now()
	g.duration = g.trainedAt.Sub(start)
	return g, nil
}
