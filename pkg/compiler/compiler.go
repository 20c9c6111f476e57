// Package compiler turns a session's event log into a budget-aware
// working context for provider calls. A compiler is a pipeline of named
// processors: history selection, compaction, memory preload, and artifact
// externalization.
package compiler

import (
	"fmt"

	"github.com/ygn-labs/ygn-brain/pkg/artifact"
	"github.com/ygn-labs/ygn-brain/pkg/memory"
	"github.com/ygn-labs/ygn-brain/pkg/session"
)

// Compiler runs processors in order to produce a WorkingContext.
type Compiler struct {
	processors []Processor
}

func New(processors ...Processor) *Compiler {
	return &Compiler{processors: processors}
}

// NewDefault builds the standard pipeline: history selection, compaction,
// memory preload, artifact externalization.
func NewDefault(mem memory.Service, store artifact.Store) *Compiler {
	return NewDefaultWithEstimator(mem, store, HeuristicEstimator{})
}

// NewDefaultWithEstimator builds the standard pipeline with every stage
// counting tokens through the given estimator. Nil falls back to the
// heuristic.
func NewDefaultWithEstimator(mem memory.Service, store artifact.Store, est Estimator) *Compiler {
	if est == nil {
		est = HeuristicEstimator{}
	}
	history := NewHistorySelector()
	history.Estimator = est
	compactor := NewCompactor()
	compactor.Estimator = est
	preloader := NewMemoryPreloader(mem)
	preloader.Estimator = est
	attacher := NewArtifactAttacher(store)
	attacher.Estimator = est
	return New(history, compactor, preloader, attacher)
}

// AddProcessor appends a stage to the pipeline.
func (c *Compiler) AddProcessor(p Processor) {
	c.processors = append(c.processors, p)
}

// Processors returns the pipeline stage names in order.
func (c *Compiler) Processors() []string {
	names := make([]string, len(c.processors))
	for i, p := range c.processors {
		names[i] = p.Name()
	}
	return names
}

// Compile runs the pipeline over the session.
func (c *Compiler) Compile(sess *session.Session, budget int, systemPrompt string) (WorkingContext, error) {
	ctx := WorkingContext{
		SystemPrompt: systemPrompt,
		TokenCount:   EstimateTokens(systemPrompt),
		Budget:       budget,
	}
	for _, p := range c.processors {
		next, err := p.Process(sess, ctx, budget)
		if err != nil {
			return ctx, fmt.Errorf("processor %s: %w", p.Name(), err)
		}
		ctx = next
	}
	return ctx, nil
}
