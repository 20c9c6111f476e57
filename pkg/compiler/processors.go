package compiler

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/ygn-labs/ygn-brain/pkg/artifact"
	"github.com/ygn-labs/ygn-brain/pkg/memory"
	"github.com/ygn-labs/ygn-brain/pkg/provider"
	"github.com/ygn-labs/ygn-brain/pkg/session"
)

// Processor is a named pipeline stage that transforms the working
// context. Processors must not mutate the input context.
type Processor interface {
	Name() string
	Process(sess *session.Session, ctx WorkingContext, budget int) (WorkingContext, error)
}

// HistorySelector builds the conversation history from user input and
// phase result events, keeping the first and last turns and dropping the
// middle when the conversation is long.
type HistorySelector struct {
	KeepFirst int
	KeepLast  int
	Estimator Estimator
}

func NewHistorySelector() *HistorySelector {
	return &HistorySelector{KeepFirst: 2, KeepLast: 5, Estimator: HeuristicEstimator{}}
}

func (p *HistorySelector) Name() string { return "history_selector" }

func (p *HistorySelector) Process(sess *session.Session, ctx WorkingContext, budget int) (WorkingContext, error) {
	events := sess.Log.Events(session.KindUserInput, session.KindPhaseResult)
	if len(events) == 0 {
		return ctx, nil
	}

	history := make([]provider.Message, 0, len(events))
	for _, evt := range events {
		role := provider.RoleUser
		if r, ok := evt.Data["role"].(string); ok && r != "" {
			role = provider.Role(r)
		}
		content, ok := evt.Data["content"].(string)
		if !ok {
			content, _ = evt.Data["text"].(string)
		}
		history = append(history, provider.Message{Role: role, Content: content})
	}

	selected := history
	if len(history) > p.KeepFirst+p.KeepLast {
		selected = append(history[:p.KeepFirst:p.KeepFirst], history[len(history)-p.KeepLast:]...)
	}

	tokens := p.Estimator.Estimate(ctx.SystemPrompt)
	for _, msg := range selected {
		tokens += p.Estimator.Estimate(msg.Content)
	}

	ctx.History = selected
	ctx.TokenCount = tokens
	ctx.Budget = budget
	return ctx, nil
}

// Compactor merges consecutive same-role messages and trims whitespace.
type Compactor struct {
	Estimator Estimator
}

func NewCompactor() *Compactor {
	return &Compactor{Estimator: HeuristicEstimator{}}
}

func (p *Compactor) Name() string { return "compactor" }

func (p *Compactor) Process(_ *session.Session, ctx WorkingContext, budget int) (WorkingContext, error) {
	if len(ctx.History) == 0 {
		return ctx, nil
	}

	var merged []provider.Message
	for _, msg := range ctx.History {
		content := strings.TrimSpace(msg.Content)
		if n := len(merged); n > 0 && merged[n-1].Role == msg.Role {
			merged[n-1].Content += "\n" + content
		} else {
			merged = append(merged, provider.Message{Role: msg.Role, Content: content})
		}
	}

	tokens := p.Estimator.Estimate(ctx.SystemPrompt)
	for _, msg := range merged {
		tokens += p.Estimator.Estimate(msg.Content)
	}

	ctx.History = merged
	ctx.TokenCount = tokens
	ctx.Budget = budget
	return ctx, nil
}

// MemoryPreloader recalls the top-K memories matching the latest user
// input and attaches them to the context.
type MemoryPreloader struct {
	Memory    memory.Service
	TopK      int
	Estimator Estimator
}

func NewMemoryPreloader(svc memory.Service) *MemoryPreloader {
	return &MemoryPreloader{Memory: svc, TopK: 5, Estimator: HeuristicEstimator{}}
}

func (p *MemoryPreloader) Name() string { return "memory_preloader" }

func (p *MemoryPreloader) Process(sess *session.Session, ctx WorkingContext, budget int) (WorkingContext, error) {
	inputs := sess.Log.Events(session.KindUserInput)
	if len(inputs) == 0 {
		return ctx, nil
	}
	last := inputs[len(inputs)-1]
	query, ok := last.Data["text"].(string)
	if !ok || query == "" {
		query, _ = last.Data["content"].(string)
	}
	if query == "" {
		return ctx, nil
	}

	entries := p.Memory.Recall(query, p.TopK, "")
	hits := make([]MemoryHit, 0, len(entries))
	extra := 0
	for _, e := range entries {
		hits = append(hits, MemoryHit{Key: e.Key, Content: e.Content, Category: string(e.Category)})
		extra += p.Estimator.Estimate(e.Content)
	}

	ctx.MemoryHits = hits
	ctx.TokenCount += extra
	ctx.Budget = budget
	return ctx, nil
}

// ArtifactAttacher externalizes tool results at or above the size
// threshold into the artifact store, replacing them with handle
// references in the context.
type ArtifactAttacher struct {
	Store          artifact.Store
	ThresholdBytes int
	Estimator      Estimator
}

func NewArtifactAttacher(store artifact.Store) *ArtifactAttacher {
	return &ArtifactAttacher{Store: store, ThresholdBytes: 1024, Estimator: HeuristicEstimator{}}
}

func (p *ArtifactAttacher) Name() string { return "artifact_attacher" }

func (p *ArtifactAttacher) Process(sess *session.Session, ctx WorkingContext, budget int) (WorkingContext, error) {
	var remaining []ToolResult
	refs := append([]ArtifactRef(nil), ctx.ArtifactRefs...)
	saved := 0

	for _, tr := range ctx.ToolResults {
		payload := []byte(tr.Result)
		if len(payload) < p.ThresholdBytes {
			remaining = append(remaining, tr)
			continue
		}

		tool := tr.Tool
		if tool == "" {
			tool = "unknown"
		}
		handle, err := p.Store.Store(payload, "tool:"+tool, "text/plain")
		if err != nil {
			return ctx, fmt.Errorf("externalize %s result: %w", tool, err)
		}
		refs = append(refs, ArtifactRef{
			Handle:    handle.ArtifactID,
			Summary:   handle.Summary,
			SizeBytes: handle.SizeBytes,
			Source:    handle.Source,
		})
		saved += p.Estimator.Estimate(tr.Result)

		if _, err := sess.Record(session.KindArtifactStored, "", map[string]any{
			"handle":     handle.ArtifactID,
			"source":     handle.Source,
			"size_bytes": handle.SizeBytes,
		}, 10); err != nil {
			slog.Warn("Failed to record artifact event", "handle", handle.ArtifactID, "error", err)
		}
	}

	refTokens := 0
	for _, ref := range refs {
		refTokens += p.Estimator.Estimate(ref.Summary)
	}

	ctx.ToolResults = remaining
	ctx.ArtifactRefs = refs
	ctx.TokenCount = ctx.TokenCount - saved + refTokens
	ctx.Budget = budget
	return ctx, nil
}
