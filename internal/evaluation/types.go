package evaluation

import (
	"time"

	"github.com/codeaugment0-rgb/whispher-of-intemesy/internal/domain/entities"
)

// GoldenQuery is a labeled autocomplete prefix with the terms a user would
// expect to see for it.
type GoldenQuery struct {
	ID         string             `yaml:"id"`
	Query      string             `yaml:"query"`
	Category   *entities.Category `yaml:"category,omitempty"`
	Expected   []string           `yaml:"expected"`
	Difficulty string             `yaml:"difficulty"` // easy, medium, hard
}

// EvalResult holds the outcome for a single golden query.
type EvalResult struct {
	QueryID     string
	Query       string
	Difficulty  string
	RecallAtK   float64
	MRRAtK      float64
	ResultCount int
	Retrieved   []string
	Latency     time.Duration
	Err         error
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	K               int                           `json:"k"`
	TotalQueries    int                           `json:"total_queries"`
	Failed          int                           `json:"failed"`
	AvgRecall       float64                       `json:"avg_recall"`
	AvgMRR          float64                       `json:"avg_mrr"`
	AvgLatency      time.Duration                 `json:"avg_latency_ns"`
	QueriesWithHits int                           `json:"queries_with_hits"`
	ByDifficulty    map[string]*DifficultySummary `json:"by_difficulty"`
	Misses          []string                      `json:"misses,omitempty"`
}

// HitRate is the share of queries that returned at least one suggestion
func (s *EvalSummary) HitRate() float64 {
	if s.TotalQueries == 0 {
		return 0
	}
	return float64(s.QueriesWithHits) / float64(s.TotalQueries)
}

// DifficultySummary holds metrics grouped by difficulty label.
type DifficultySummary struct {
	Count     int     `json:"count"`
	AvgRecall float64 `json:"avg_recall"`
	AvgMRR    float64 `json:"avg_mrr"`
}
