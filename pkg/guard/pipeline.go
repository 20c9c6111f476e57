package guard

// Pipeline composes guard backends in order and returns the first blocking
// result, or an allowed result carrying the highest score seen.
type Pipeline struct {
	backends []Backend
}

// NewPipeline creates a pipeline. With no backends it defaults to the
// regex guard alone.
func NewPipeline(backends ...Backend) *Pipeline {
	if len(backends) == 0 {
		backends = []Backend{NewRegexGuard()}
	}
	return &Pipeline{backends: backends}
}

// Add appends a backend to the pipeline.
func (p *Pipeline) Add(b Backend) {
	p.backends = append(p.backends, b)
}

// Backends returns the configured backends in evaluation order.
func (p *Pipeline) Backends() []Backend {
	out := make([]Backend, len(p.backends))
	copy(out, p.backends)
	return out
}

// Evaluate runs all backends in order.
func (p *Pipeline) Evaluate(text string) Result {
	maxScore := 0.0
	for _, b := range p.backends {
		result := b.Check(text)
		if result.Score > maxScore {
			maxScore = result.Score
		}
		if !result.Allowed {
			return result
		}
	}
	return Result{
		Allowed: true,
		Level:   ThreatNone,
		Reason:  "All guards passed",
		Score:   maxScore,
		Backend: "Pipeline",
	}
}
