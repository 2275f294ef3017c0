// Package server 把 engine.Engine 暴露为 HTTP/JSON 接口（chi 路由）。
//
//	GET  /api/v1/recommendations/recommend/{user_id}?limit=
//	GET  /api/v1/recommendations/similar/{book_id}?limit=
//	GET  /api/v1/recommendations/als/{user_id}?limit=
//	GET  /api/v1/recommendations/predict/{user_id}/{book_id}
//	GET  /api/v1/statistics/avg-user-rating/{user_id}
//	GET  /api/v1/statistics/avg-users-rating
//	GET  /api/v1/statistics/avg-book-rating/{book_id}
//	GET  /api/v1/statistics/avg-books-rating
//	POST /api/v1/admin/train
//	GET  /healthz
//	GET  /metrics
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/engine"
)

// Recommender 是 HTTP 层依赖的引擎能力，*engine.Engine 即为实现。
type Recommender interface {
	Train(ctx context.Context) error
	Status() engine.Status

	SimilarBooks(bookID string, topN int) ([]engine.BookResult, error)
	HybridRecommend(ctx context.Context, userID string, topN int) ([]engine.BookResult, error)
	FactorizedRecommend(userID string, n int) ([]string, error)
	PredictScore(userID, bookID string) (float64, error)

	UserAverageRating(userID string) (engine.RatingStat, error)
	BookAverageRating(bookID string) (engine.RatingStat, error)
	UserAverageRatings() ([]engine.RatingStat, error)
	BookAverageRatings() ([]engine.RatingStat, error)
}

// Options 是 Server 的可选配置。
type Options struct {
	// DefaultLimit 是 limit 缺省时的条数
	DefaultLimit int
	// MaxLimit 限制单次请求的最大条数，<= 0 表示不限制
	MaxLimit int
	// Gatherer 提供 /metrics 数据，nil 时使用 prometheus.DefaultGatherer
	Gatherer prometheus.Gatherer
	// RequestTimeout 是单个请求的超时，<= 0 表示不设置
	RequestTimeout time.Duration
}

// Server 持有路由与依赖。
type Server struct {
	rec    Recommender
	opts   Options
	logger zerolog.Logger
}

// New 创建 Server。
//
//nolint:gocritic // zerolog.Logger 按值传递
func New(rec Recommender, logger zerolog.Logger, opts Options) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 5
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		rec:    rec,
		opts:   opts,
		logger: logger.With().Str("component", "http").Logger(),
	}
}

// Handler 返回配置好的路由。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	if s.opts.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(s.opts.RequestTimeout))
	}

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Get("/recommend/{user_id}", s.recommend)
		r.Get("/similar/{book_id}", s.similar)
		r.Get("/als/{user_id}", s.factorized)
		r.Get("/predict/{user_id}/{book_id}", s.predict)
	})

	r.Route("/api/v1/statistics", func(r chi.Router) {
		r.Get("/avg-user-rating/{user_id}", s.userAverage)
		r.Get("/avg-users-rating", s.userAverages)
		r.Get("/avg-book-rating/{book_id}", s.bookAverage)
		r.Get("/avg-books-rating", s.bookAverages)
	})

	r.Post("/api/v1/admin/train", s.train)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	return r
}

// requestLogger 记录每个请求的状态码与耗时。
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		ev := s.logger.Debug()
		if status >= http.StatusInternalServerError {
			ev = s.logger.Error()
		}
		ev.Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("request")
	})
}
