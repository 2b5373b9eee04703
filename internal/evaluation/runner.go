package evaluation

import (
	"context"
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

// Suggester is the part of the query engine the runner exercises
type Suggester interface {
	Suggest(ctx context.Context, query string, category *entities.Category, limit int) ([]*entities.Suggestion, error)
}

// Runner scores a suggester against a set of golden queries.
type Runner struct {
	suggester Suggester
	k         int
	now       func() time.Time
}

func NewRunner(suggester Suggester, k int) *Runner {
	if k <= 0 {
		k = 10
	}
	return &Runner{suggester: suggester, k: k, now: time.Now}
}

// Run evaluates every query. A failing query counts as a miss with zero
// scores and does not abort the run.
func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, []EvalResult) {
	summary := &EvalSummary{
		K:            r.k,
		ByDifficulty: make(map[string]*DifficultySummary),
	}
	results := make([]EvalResult, 0, len(queries))

	for _, gq := range queries {
		if ctx.Err() != nil {
			break
		}
		res := r.evaluate(ctx, gq)
		results = append(results, res)
		r.accumulate(summary, res)
	}

	summary.TotalQueries = len(results)
	finalize(summary)
	return summary, results
}

func (r *Runner) evaluate(ctx context.Context, gq GoldenQuery) EvalResult {
	start := r.now()
	suggestions, err := r.suggester.Suggest(ctx, gq.Query, gq.Category, r.k)
	res := EvalResult{
		QueryID:    gq.ID,
		Query:      gq.Query,
		Difficulty: gq.Difficulty,
		Latency:    r.now().Sub(start),
		Err:        err,
	}
	if err != nil {
		return res
	}

	res.ResultCount = len(suggestions)
	res.Retrieved = make([]string, len(suggestions))
	for i, s := range suggestions {
		res.Retrieved[i] = s.Term
	}
	res.RecallAtK = RecallAtK(gq.Expected, res.Retrieved, r.k)
	res.MRRAtK = MRRAtK(gq.Expected, res.Retrieved, r.k)
	return res
}

func (r *Runner) accumulate(s *EvalSummary, res EvalResult) {
	if res.Err != nil {
		s.Failed++
	}
	s.AvgRecall += res.RecallAtK
	s.AvgMRR += res.MRRAtK
	s.AvgLatency += res.Latency
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}
	if res.MRRAtK == 0 {
		s.Misses = append(s.Misses, res.QueryID)
	}

	ds, ok := s.ByDifficulty[res.Difficulty]
	if !ok {
		ds = &DifficultySummary{}
		s.ByDifficulty[res.Difficulty] = ds
	}
	ds.Count++
	ds.AvgRecall += res.RecallAtK
	ds.AvgMRR += res.MRRAtK
}

func finalize(s *EvalSummary) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.AvgRecall /= n
		s.AvgMRR /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}
	for _, ds := range s.ByDifficulty {
		if ds.Count > 0 {
			ds.AvgRecall /= float64(ds.Count)
			ds.AvgMRR /= float64(ds.Count)
		}
	}
}
