package evaluation

import "fmt"

// Thresholds are the minimum aggregate scores a run must reach
type Thresholds struct {
	MinRecall  float64
	MinMRR     float64
	MinHitRate float64
}

// Check returns one message per threshold the summary falls below
func (t Thresholds) Check(s *EvalSummary) []string {
	var violations []string
	if s.AvgRecall < t.MinRecall {
		violations = append(violations, fmt.Sprintf("recall@%d %.3f below %.3f", s.K, s.AvgRecall, t.MinRecall))
	}
	if s.AvgMRR < t.MinMRR {
		violations = append(violations, fmt.Sprintf("mrr@%d %.3f below %.3f", s.K, s.AvgMRR, t.MinMRR))
	}
	if hr := s.HitRate(); hr < t.MinHitRate {
		violations = append(violations, fmt.Sprintf("hit rate %.3f below %.3f", hr, t.MinHitRate))
	}
	return violations
}
