package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/engine"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type recommendResponse struct {
	UserID string              `json:"user_id,omitempty"`
	BookID string              `json:"book_id,omitempty"`
	Items  []engine.BookResult `json:"items"`
}

type factorizedResponse struct {
	UserID  string   `json:"user_id"`
	BookIDs []string `json:"book_ids"`
}

type predictResponse struct {
	UserID string  `json:"user_id"`
	BookID string  `json:"book_id"`
	Score  float64 `json:"score"`
}

type statsResponse struct {
	Items []engine.RatingStat `json:"items"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		writeError(w, http.StatusInternalServerError, core.ErrorCodeInternalError, "encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // 响应写失败无法补救
	w.Write(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	data, _ := json.Marshal(errorBody{Error: errorDetail{Code: code, Message: message}})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // 响应写失败无法补救
	w.Write(data)
}

// statusOf 把领域错误映射为 HTTP 状态码。
func statusOf(err error) (int, string) {
	de := core.GetDomainError(err)
	if de == nil {
		return http.StatusInternalServerError, core.ErrorCodeInternalError
	}
	switch de.Code {
	case core.ErrorCodeNotFound:
		return http.StatusNotFound, de.Code
	case core.ErrorCodeUntrained, core.ErrorCodeUnavailable:
		return http.StatusServiceUnavailable, de.Code
	case core.ErrorCodeInvalidInput:
		return http.StatusBadRequest, de.Code
	case core.ErrorCodeNotSupported:
		return http.StatusNotImplemented, de.Code
	default:
		return http.StatusInternalServerError, de.Code
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, code, err.Error())
}

// limit 解析 ?limit=，缺省取 DefaultLimit；非整数或负数为 INVALID_INPUT。
func (s *Server) limit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.opts.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, core.InvalidInputError(core.ModuleHTTP, "limit must be a non-negative integer, got %q", raw)
	}
	if s.opts.MaxLimit > 0 && n > s.opts.MaxLimit {
		n = s.opts.MaxLimit
	}
	return n, nil
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	n, err := s.limit(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.rec.HybridRecommend(r.Context(), userID, n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{UserID: userID, Items: items})
}

func (s *Server) similar(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "book_id")
	n, err := s.limit(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items, err := s.rec.SimilarBooks(bookID, n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recommendResponse{BookID: bookID, Items: items})
}

func (s *Server) factorized(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "user_id")
	n, err := s.limit(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ids, err := s.rec.FactorizedRecommend(userID, n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, factorizedResponse{UserID: userID, BookIDs: ids})
}

func (s *Server) predict(w http.ResponseWriter, r *http.Request) {
	userID, bookID := chi.URLParam(r, "user_id"), chi.URLParam(r, "book_id")
	score, err := s.rec.PredictScore(userID, bookID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, predictResponse{UserID: userID, BookID: bookID, Score: score})
}

func (s *Server) userAverage(w http.ResponseWriter, r *http.Request) {
	st, err := s.rec.UserAverageRating(chi.URLParam(r, "user_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) bookAverage(w http.ResponseWriter, r *http.Request) {
	st, err := s.rec.BookAverageRating(chi.URLParam(r, "book_id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) userAverages(w http.ResponseWriter, r *http.Request) {
	all, err := s.rec.UserAverageRatings()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Items: all})
}

func (s *Server) bookAverages(w http.ResponseWriter, r *http.Request) {
	all, err := s.rec.BookAverageRatings()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Items: all})
}

func (s *Server) train(w http.ResponseWriter, r *http.Request) {
	if err := s.rec.Train(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.rec.Status())
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.rec.Status())
}
