package engine

import "github.com/rushteam/bookrec/core"

// RatingStat 是某个用户或某本书的评分统计。
type RatingStat struct {
	ID      string  `json:"id"`
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

// ratingStats 按 key 聚合评分条数与均值，保持 key 的首次出现顺序。
type ratingStats struct {
	order []string
	byKey map[string]*RatingStat
}

func newRatingStats(ratings []core.RatingRecord, key func(core.RatingRecord) string) *ratingStats {
	s := &ratingStats{byKey: make(map[string]*RatingStat)}
	sums := make(map[string]float64)
	for _, r := range ratings {
		k := key(r)
		st, ok := s.byKey[k]
		if !ok {
			st = &RatingStat{ID: k}
			s.byKey[k] = st
			s.order = append(s.order, k)
		}
		st.Count++
		sums[k] += r.Rating
	}
	for k, st := range s.byKey {
		st.Average = sums[k] / float64(st.Count)
	}
	return s
}

func (s *ratingStats) get(id string) (RatingStat, bool) {
	st, ok := s.byKey[id]
	if !ok {
		return RatingStat{}, false
	}
	return *st, true
}

func (s *ratingStats) all() []RatingStat {
	out := make([]RatingStat, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, *s.byKey[k])
	}
	return out
}
