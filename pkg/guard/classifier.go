package guard

import (
	"fmt"
	"log/slog"
)

// classifierBlockThreshold grades blocked classifications: scores at or
// above it are CRITICAL, below it HIGH.
const classifierBlockThreshold = 75.0

// Classifier scores text on a 0-100 threat scale. Implementations wrap
// model-backed scanners; errors surface when the scanner is unreachable.
type Classifier interface {
	Classify(text string) (safe bool, score float64, err error)
}

// ClassifierFunc adapts a plain function to the Classifier interface.
type ClassifierFunc func(text string) (bool, float64, error)

func (f ClassifierFunc) Classify(text string) (bool, float64, error) { return f(text) }

// ClassifierGuard adapts a Classifier into a guard backend. When FailClosed
// is set, classifier errors block at CRITICAL; otherwise they pass with a
// warning so a dead scanner cannot take the pipeline down.
type ClassifierGuard struct {
	BackendName string
	Classifier  Classifier
	FailClosed  bool
}

// NewStubClassifierGuard returns an always-passing classifier backend, used
// where a model-backed scanner is not configured.
func NewStubClassifierGuard() *ClassifierGuard {
	return &ClassifierGuard{
		BackendName: "StubClassifierGuard",
		Classifier: ClassifierFunc(func(string) (bool, float64, error) {
			return true, 0.0, nil
		}),
	}
}

func (g *ClassifierGuard) Name() string {
	if g.BackendName != "" {
		return g.BackendName
	}
	return "ClassifierGuard"
}

func (g *ClassifierGuard) Check(text string) Result {
	safe, score, err := g.Classifier.Classify(text)
	if err != nil {
		if g.FailClosed {
			return Result{
				Allowed: false,
				Level:   ThreatCritical,
				Reason:  fmt.Sprintf("%s: classifier error (fail-closed): %v", g.Name(), err),
				Score:   ThreatCritical.Score(),
				Backend: g.Name(),
			}
		}
		slog.Warn("Classifier guard failed open", "backend", g.Name(), "error", err)
		return Result{
			Allowed: true,
			Level:   ThreatNone,
			Reason:  fmt.Sprintf("%s: classifier unavailable, passed open", g.Name()),
			Backend: g.Name(),
		}
	}
	if safe {
		return Result{
			Allowed: true,
			Level:   ThreatNone,
			Reason:  fmt.Sprintf("%s: safe (score=%.1f)", g.Name(), score),
			Score:   score,
			Backend: g.Name(),
		}
	}
	level := ThreatHigh
	if score >= classifierBlockThreshold {
		level = ThreatCritical
	}
	return Result{
		Allowed: false,
		Level:   level,
		Reason:  fmt.Sprintf("%s: unsafe (score=%.1f)", g.Name(), score),
		Score:   score,
		Backend: g.Name(),
	}
}
