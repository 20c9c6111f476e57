package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygn-labs/ygn-brain/pkg/artifact"
	"github.com/ygn-labs/ygn-brain/pkg/memory"
	"github.com/ygn-labs/ygn-brain/pkg/provider"
	"github.com/ygn-labs/ygn-brain/pkg/session"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 2, EstimateTokens("one"))          // ceil(1 * 1.3)
	assert.Equal(t, 3, EstimateTokens("two words"))    // ceil(2.6)
	assert.Equal(t, 4, EstimateTokens("one two three")) // ceil(3.9)
}

func TestTokenBudget(t *testing.T) {
	_, err := NewTokenBudget(0)
	assert.Error(t, err)
	_, err = NewTokenBudget(-5)
	assert.Error(t, err)

	b, err := NewTokenBudget(100)
	require.NoError(t, err)
	assert.Equal(t, 100, b.Remaining())
	assert.True(t, b.IsWithinBudget())
	assert.Zero(t, b.Overflow())

	b.Consume(60)
	assert.Equal(t, 40, b.Remaining())
	assert.Equal(t, 60, b.Consumed())

	b.Consume(60)
	assert.False(t, b.IsWithinBudget())
	assert.Equal(t, -20, b.Remaining())
	assert.Equal(t, 20, b.Overflow())
}

func TestWorkingContextToMessages(t *testing.T) {
	ctx := WorkingContext{
		SystemPrompt: "you are the brain",
		History: []provider.Message{
			{Role: provider.RoleUser, Content: "question"},
			{Role: provider.RoleAssistant, Content: "answer"},
		},
		MemoryHits:   []MemoryHit{{Key: "fact", Content: "the sky is blue"}},
		ArtifactRefs: []ArtifactRef{{Handle: "abc123", Summary: "big log", SizeBytes: 2048}},
		ToolResults:  []ToolResult{{Tool: "search", Result: "3 hits"}},
	}

	messages := ctx.ToMessages()
	require.Len(t, messages, 3)
	assert.Equal(t, provider.RoleSystem, messages[0].Role)

	system := messages[0].Content
	assert.True(t, strings.HasPrefix(system, "you are the brain"))
	assert.Contains(t, system, "## Relevant memories")
	assert.Contains(t, system, "- [fact]: the sky is blue")
	assert.Contains(t, system, "## Available artifacts (use handle to retrieve)")
	assert.Contains(t, system, "- [abc123] (2048 bytes): big log")
	assert.Contains(t, system, "## Recent tool results")
	assert.Contains(t, system, "- search: 3 hits")

	assert.Equal(t, "question", messages[1].Content)
	assert.Equal(t, "answer", messages[2].Content)
}

func TestWorkingContextBudget(t *testing.T) {
	ctx := WorkingContext{TokenCount: 80, Budget: 100}
	assert.True(t, ctx.IsWithinBudget())
	assert.Zero(t, ctx.Overflow())

	ctx.TokenCount = 130
	assert.False(t, ctx.IsWithinBudget())
	assert.Equal(t, 30, ctx.Overflow())
}

func TestHistorySelectorKeepsFirstAndLast(t *testing.T) {
	sess := session.New("")
	for i := 0; i < 10; i++ {
		_, err := sess.Record(session.KindUserInput, "diagnosis",
			map[string]any{"text": "message " + string(rune('a'+i))}, 0)
		require.NoError(t, err)
	}

	selector := NewHistorySelector()
	ctx, err := selector.Process(sess, WorkingContext{SystemPrompt: "sys"}, 1000)
	require.NoError(t, err)

	require.Len(t, ctx.History, 7) // 2 first + 5 last
	assert.Equal(t, "message a", ctx.History[0].Content)
	assert.Equal(t, "message b", ctx.History[1].Content)
	assert.Equal(t, "message j", ctx.History[6].Content)
	assert.Equal(t, provider.RoleUser, ctx.History[0].Role)
	assert.Positive(t, ctx.TokenCount)
}

func TestHistorySelectorRolesAndShortHistory(t *testing.T) {
	sess := session.New("")
	_, err := sess.Record(session.KindUserInput, "diagnosis", map[string]any{"text": "hi"}, 0)
	require.NoError(t, err)
	_, err = sess.Record(session.KindPhaseResult, "synthesis",
		map[string]any{"role": "assistant", "content": "hello back"}, 0)
	require.NoError(t, err)

	ctx, err := NewHistorySelector().Process(sess, WorkingContext{}, 1000)
	require.NoError(t, err)

	require.Len(t, ctx.History, 2)
	assert.Equal(t, provider.RoleUser, ctx.History[0].Role)
	assert.Equal(t, provider.RoleAssistant, ctx.History[1].Role)
	assert.Equal(t, "hello back", ctx.History[1].Content)
}

func TestCompactorMergesSameRole(t *testing.T) {
	ctx := WorkingContext{
		SystemPrompt: "sys",
		History: []provider.Message{
			{Role: provider.RoleUser, Content: "  part one  "},
			{Role: provider.RoleUser, Content: "part two"},
			{Role: provider.RoleAssistant, Content: " reply "},
		},
	}

	out, err := NewCompactor().Process(nil, ctx, 1000)
	require.NoError(t, err)
	require.Len(t, out.History, 2)
	assert.Equal(t, "part one\npart two", out.History[0].Content)
	assert.Equal(t, "reply", out.History[1].Content)
}

func TestMemoryPreloader(t *testing.T) {
	mem := memory.NewInMemoryBackend()
	mem.Store("deploy", "deploys run through the blue-green pipeline", memory.CategoryCore, "")
	mem.Store("recipe", "the sauce needs basil", memory.CategoryDaily, "")

	sess := session.New("")
	_, err := sess.Record(session.KindUserInput, "diagnosis",
		map[string]any{"text": "how do deploys work?"}, 0)
	require.NoError(t, err)

	ctx, err := NewMemoryPreloader(mem).Process(sess, WorkingContext{TokenCount: 10}, 1000)
	require.NoError(t, err)

	require.Len(t, ctx.MemoryHits, 1)
	assert.Equal(t, "deploy", ctx.MemoryHits[0].Key)
	assert.Equal(t, "core", ctx.MemoryHits[0].Category)
	assert.Greater(t, ctx.TokenCount, 10)
}

func TestMemoryPreloaderNoInput(t *testing.T) {
	sess := session.New("")
	ctx, err := NewMemoryPreloader(memory.NewInMemoryBackend()).Process(sess, WorkingContext{}, 1000)
	require.NoError(t, err)
	assert.Empty(t, ctx.MemoryHits)
}

func TestArtifactAttacherExternalizesLargeResults(t *testing.T) {
	store := artifact.NewMemoryStore()
	sess := session.New("")

	big := strings.Repeat("log line with details\n", 100) // > 1 KiB
	ctx := WorkingContext{
		TokenCount: 500,
		ToolResults: []ToolResult{
			{Tool: "kubectl", Result: big},
			{Tool: "ping", Result: "pong"},
		},
	}

	out, err := NewArtifactAttacher(store).Process(sess, ctx, 1000)
	require.NoError(t, err)

	require.Len(t, out.ArtifactRefs, 1)
	ref := out.ArtifactRefs[0]
	assert.Equal(t, artifact.ContentHash([]byte(big)), ref.Handle)
	assert.Equal(t, "tool:kubectl", ref.Source)
	assert.Equal(t, len(big), ref.SizeBytes)
	assert.Less(t, out.TokenCount, ctx.TokenCount)

	// small result stays inline
	require.Len(t, out.ToolResults, 1)
	assert.Equal(t, "ping", out.ToolResults[0].Tool)

	// the payload is retrievable and the event is on the log
	content, err := store.Retrieve(ref.Handle)
	require.NoError(t, err)
	assert.Equal(t, big, string(content))
	assert.Len(t, sess.Log.Events(session.KindArtifactStored), 1)
}

func TestSelectEstimator(t *testing.T) {
	est, err := SelectEstimator("", "")
	require.NoError(t, err)
	assert.IsType(t, HeuristicEstimator{}, est)

	est, err = SelectEstimator("heuristic", "")
	require.NoError(t, err)
	assert.IsType(t, HeuristicEstimator{}, est)

	_, err = SelectEstimator("oracle", "")
	assert.ErrorContains(t, err, `unknown estimator "oracle"`)
}

// fixedEstimator charges a flat rate per text, making token accounting
// deterministic in tests.
type fixedEstimator struct{ perText int }

func (f fixedEstimator) Estimate(text string) int {
	if text == "" {
		return 0
	}
	return f.perText
}

func TestNewDefaultWithEstimatorThreadsEstimator(t *testing.T) {
	sess := session.New("")
	_, err := sess.Record(session.KindUserInput, "diagnosis",
		map[string]any{"text": "explain context compilation"}, 0)
	require.NoError(t, err)

	c := NewDefaultWithEstimator(memory.NewInMemoryBackend(), artifact.NewMemoryStore(), fixedEstimator{perText: 7})
	ctx, err := c.Compile(sess, 500, "you are the brain")
	require.NoError(t, err)

	// System prompt plus one history message, both at the flat rate.
	assert.Equal(t, 14, ctx.TokenCount)
}

func TestCompileRunsFullPipeline(t *testing.T) {
	mem := memory.NewInMemoryBackend()
	mem.Store("ctx", "context compilation is budget aware", memory.CategoryCore, "")
	store := artifact.NewMemoryStore()

	sess := session.New("")
	_, err := sess.Record(session.KindUserInput, "diagnosis",
		map[string]any{"text": "explain context compilation"}, 0)
	require.NoError(t, err)

	c := NewDefault(mem, store)
	assert.Equal(t, []string{"history_selector", "compactor", "memory_preloader", "artifact_attacher"},
		c.Processors())

	ctx, err := c.Compile(sess, 500, "you are the brain")
	require.NoError(t, err)

	assert.Equal(t, 500, ctx.Budget)
	assert.True(t, ctx.IsWithinBudget())
	require.Len(t, ctx.History, 1)
	assert.Len(t, ctx.MemoryHits, 1)

	messages := ctx.ToMessages()
	require.Len(t, messages, 2)
	assert.Contains(t, messages[0].Content, "## Relevant memories")
}
