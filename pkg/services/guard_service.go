package services

import (
	"time"

	"github.com/ygn-labs/ygn-brain/pkg/guard"
)

// GuardService wraps the guard pipeline with outcome tracking so the
// API can serve aggregate stats.
type GuardService struct {
	pipeline *guard.Pipeline
	stats    *guard.Stats
}

func NewGuardService(pipeline *guard.Pipeline) *GuardService {
	if pipeline == nil {
		pipeline = guard.NewPipeline()
	}
	return &GuardService{
		pipeline: pipeline,
		stats:    guard.NewStats(),
	}
}

// Check evaluates text and records the outcome.
func (s *GuardService) Check(text string) (guard.Result, error) {
	if text == "" {
		return guard.Result{}, NewValidationError("text", "must not be empty")
	}
	start := time.Now()
	result := s.pipeline.Evaluate(text)
	s.stats.Record(result, float64(time.Since(start))/float64(time.Millisecond))
	return result, nil
}

// Stats returns aggregate outcomes since startup.
func (s *GuardService) Stats() map[string]any {
	return s.stats.Summary()
}
