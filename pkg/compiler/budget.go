package compiler

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Estimator estimates the token count of a text.
type Estimator interface {
	Estimate(text string) int
}

// EstimateTokens is the default word-count heuristic: ceil(words * 1.3),
// zero for empty text.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	return int(math.Ceil(float64(words) * 1.3))
}

// HeuristicEstimator wraps EstimateTokens.
type HeuristicEstimator struct{}

func (HeuristicEstimator) Estimate(text string) int { return EstimateTokens(text) }

// TiktokenEstimator counts tokens with a real BPE encoding. It costs more
// per call than the heuristic but matches what OpenAI-family models bill.
type TiktokenEstimator struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenEstimator loads a named encoding, e.g. "cl100k_base".
func NewTiktokenEstimator(encoding string) (*TiktokenEstimator, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return &TiktokenEstimator{enc: enc}, nil
}

func (e *TiktokenEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return len(e.enc.Encode(text, nil, nil))
}

// DefaultTiktokenEncoding is used when no encoding is configured.
const DefaultTiktokenEncoding = "cl100k_base"

// SelectEstimator maps a configured estimator name to an implementation.
// Empty selects the heuristic.
func SelectEstimator(name, encoding string) (Estimator, error) {
	switch name {
	case "", "heuristic":
		return HeuristicEstimator{}, nil
	case "tiktoken":
		if encoding == "" {
			encoding = DefaultTiktokenEncoding
		}
		return NewTiktokenEstimator(encoding)
	default:
		return nil, fmt.Errorf("unknown estimator %q", name)
	}
}

// TokenBudget tracks token consumption against a configured maximum.
// There is no default maximum: callers must choose one.
type TokenBudget struct {
	max      int
	consumed int
}

// NewTokenBudget creates a budget; maxTokens must be positive.
func NewTokenBudget(maxTokens int) (*TokenBudget, error) {
	if maxTokens <= 0 {
		return nil, errors.New("max tokens must be positive")
	}
	return &TokenBudget{max: maxTokens}, nil
}

func (b *TokenBudget) Consume(tokens int)   { b.consumed += tokens }
func (b *TokenBudget) Remaining() int       { return b.max - b.consumed }
func (b *TokenBudget) IsWithinBudget() bool { return b.consumed <= b.max }
func (b *TokenBudget) MaxTokens() int       { return b.max }
func (b *TokenBudget) Consumed() int        { return b.consumed }

func (b *TokenBudget) Overflow() int {
	if b.consumed > b.max {
		return b.consumed - b.max
	}
	return 0
}
