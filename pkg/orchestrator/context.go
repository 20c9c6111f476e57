package orchestrator

import (
	"strings"

	"github.com/google/uuid"

	"github.com/ygn-labs/ygn-brain/pkg/evidence"
	"github.com/ygn-labs/ygn-brain/pkg/guard"
	"github.com/ygn-labs/ygn-brain/pkg/memory"
)

// ExecutionContext is the assembled state for one run: the input, a
// session id, recalled memories, the ingress guard verdict, and a fresh
// evidence pack seeded with the context entries.
type ExecutionContext struct {
	UserInput string
	SessionID string
	Memories  []memory.Entry
	Guard     guard.Result
	Evidence  *evidence.Pack
}

// ContextBuilder assembles an ExecutionContext from the input and the
// configured services.
type ContextBuilder struct {
	Memory memory.Service
	Guard  *guard.Pipeline
}

// Build generates a session id when none is given, recalls up to five
// memories, evaluates the input through the guard, and seeds the
// evidence pack.
func (b *ContextBuilder) Build(userInput, sessionID string) (ExecutionContext, error) {
	sid := sessionID
	if sid == "" {
		sid = newSessionID()
	}

	var memories []memory.Entry
	if b.Memory != nil {
		memories = b.Memory.Recall(userInput, 5, "")
	}

	pipeline := b.Guard
	if pipeline == nil {
		pipeline = guard.NewPipeline()
	}
	guardResult := pipeline.Evaluate(userInput)

	pack := evidence.NewPack(sid)
	if err := pack.Add("context", evidence.KindInput, map[string]any{
		"user_input": userInput,
	}); err != nil {
		return ExecutionContext{}, err
	}
	if len(memories) > 0 {
		if err := pack.Add("context", evidence.KindDecision, map[string]any{
			"memories_retrieved": len(memories),
		}); err != nil {
			return ExecutionContext{}, err
		}
	}
	if err := pack.Add("context", evidence.KindDecision, map[string]any{
		"guard_allowed": guardResult.Allowed,
		"threat_level":  string(guardResult.Level),
	}); err != nil {
		return ExecutionContext{}, err
	}

	return ExecutionContext{
		UserInput: userInput,
		SessionID: sid,
		Memories:  memories,
		Guard:     guardResult,
		Evidence:  pack,
	}, nil
}

func newSessionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
