package harness

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ygn-labs/ygn-brain/pkg/provider"
)

// Generator produces candidates for a task.
type Generator interface {
	Generate(ctx context.Context, task, recallContext string, config Config) ([]Candidate, error)
}

// StubGenerator returns a fixed output for every configured slot.
type StubGenerator struct {
	Output string
}

func (g StubGenerator) Generate(_ context.Context, task, _ string, config Config) ([]Candidate, error) {
	output := g.Output
	if output == "" {
		output = "stub output"
	}
	var candidates []Candidate
	for _, providerName := range config.Providers {
		for i := 0; i < config.CandidatesPerProvider; i++ {
			candidates = append(candidates, Candidate{
				ID:         newCandidateID(),
				Provider:   providerName,
				Model:      "stub",
				Prompt:     task,
				Output:     output,
				TokenCount: len(strings.Fields(output)),
			})
		}
	}
	return candidates, nil
}

// ProviderSettings overrides one provider's model and call timeout.
// Zero values fall back to the provider's own defaults.
type ProviderSettings struct {
	Model   string
	Timeout time.Duration
}

// MultiProviderGenerator fans candidate requests out across real
// providers concurrently. Providers that cannot be constructed or whose
// calls fail are skipped with a warning rather than failing the round.
type MultiProviderGenerator struct {
	// Resolve maps a provider name to a provider. Defaults to the
	// package factory.
	Resolve func(name string) (provider.Provider, error)

	// Settings holds per-provider overrides, keyed by provider name.
	Settings map[string]ProviderSettings
}

func NewMultiProviderGenerator() *MultiProviderGenerator {
	return &MultiProviderGenerator{Resolve: provider.New}
}

func (g *MultiProviderGenerator) Generate(ctx context.Context, task, recallContext string, config Config) ([]Candidate, error) {
	prompt := task
	if recallContext != "" {
		prompt = recallContext + "\n\n" + task
	}

	var mu sync.Mutex
	var candidates []Candidate
	eg, egctx := errgroup.WithContext(ctx)

	for _, providerName := range config.Providers {
		p, err := g.Resolve(providerName)
		if err != nil {
			slog.Warn("Skipping unavailable provider", "provider", providerName, "error", err)
			continue
		}
		settings := g.Settings[providerName]

		for i := 0; i < config.CandidatesPerProvider; i++ {
			eg.Go(func() error {
				callCtx := egctx
				if settings.Timeout > 0 {
					var cancel context.CancelFunc
					callCtx, cancel = context.WithTimeout(egctx, settings.Timeout)
					defer cancel()
				}
				start := time.Now()
				resp, err := p.Chat(callCtx, provider.Request{
					Model:    settings.Model,
					Messages: []provider.Message{{Role: provider.RoleUser, Content: prompt}},
				})
				if err != nil {
					slog.Warn("Provider chat failed", "provider", providerName, "error", err)
					return nil
				}
				candidate := Candidate{
					ID:         newCandidateID(),
					Provider:   providerName,
					Model:      resolveModel(p),
					Prompt:     prompt,
					Output:     resp.Content,
					LatencyMS:  float64(time.Since(start)) / float64(time.Millisecond),
					TokenCount: resp.Usage.PromptTokens + resp.Usage.CompletionTokens,
				}
				mu.Lock()
				candidates = append(candidates, candidate)
				mu.Unlock()
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return candidates, nil
}

func resolveModel(p provider.Provider) string {
	return p.Name()
}

func newCandidateID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
