package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"
	"time"
)

// Verifier scores a candidate output against the task.
type Verifier interface {
	Verify(candidate Candidate, task string) Feedback
}

var refusalPatterns = []string{
	"i cannot",
	"i can't",
	"i'm unable",
	"i am unable",
	"i apologize",
	"as an ai",
	"i don't have access",
}

// TextVerifier is a heuristic text quality check. The score is the sum
// of four sub-scores: length (up to 0.3), non-refusal (0.3), word overlap
// with the task (up to 0.2), and structural markers (0.2). A candidate
// passes at 0.5 or better with no refusal.
type TextVerifier struct{}

func (TextVerifier) Verify(candidate Candidate, task string) Feedback {
	text := strings.TrimSpace(candidate.Output)
	if text == "" {
		return Feedback{Passed: false, Score: 0.0, Diagnostics: "Empty output"}
	}

	score := 0.0
	var diagnostics []string

	score += math.Min(float64(len(text))/200.0, 0.3)

	lower := strings.ToLower(text)
	refused := false
	for _, p := range refusalPatterns {
		if strings.Contains(lower, p) {
			refused = true
			break
		}
	}
	if refused {
		diagnostics = append(diagnostics, "Detected refusal pattern")
	} else {
		score += 0.3
	}

	taskWords := wordSet(strings.ToLower(task))
	outputWords := wordSet(lower)
	overlap := 0
	for w := range taskWords {
		if outputWords[w] {
			overlap++
		}
	}
	denom := len(taskWords)
	if denom == 0 {
		denom = 1
	}
	score += math.Min(float64(overlap)/float64(denom), 0.2)

	for _, marker := range []string{"\n", "- ", "1.", "```", "##"} {
		if strings.Contains(text, marker) {
			score += 0.2
			break
		}
	}

	diag := "ok"
	if len(diagnostics) > 0 {
		diag = strings.Join(diagnostics, "; ")
	}
	score = math.Round(score*1000) / 1000
	return Feedback{
		Passed:      score >= 0.5 && !refused,
		Score:       score,
		Diagnostics: diag,
	}
}

func wordSet(text string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.Fields(text) {
		words[w] = true
	}
	return words
}

// CommandVerifier runs a shell command: exit 0 scores 1.0, anything else
// scores 0.0. Stdout and stderr tails are attached as artifacts.
type CommandVerifier struct {
	Command string
	Timeout time.Duration
}

func NewCommandVerifier(command string) *CommandVerifier {
	return &CommandVerifier{Command: command, Timeout: 60 * time.Second}
}

func (v *CommandVerifier) Verify(_ Candidate, _ string) Feedback {
	ctx, cancel := context.WithTimeout(context.Background(), v.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", v.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return Feedback{
			Passed:      false,
			Score:       0.0,
			Diagnostics: fmt.Sprintf("Timed out after %s", v.Timeout),
		}
	}

	exitCode := 0
	if err != nil {
		exitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
	}
	passed := exitCode == 0
	score := 0.0
	if passed {
		score = 1.0
	}
	return Feedback{
		Passed:      passed,
		Score:       score,
		Diagnostics: fmt.Sprintf("exit code %d", exitCode),
		Artifacts: map[string]any{
			"stdout": truncate(stdout.String(), 2000),
			"stderr": truncate(stderr.String(), 2000),
		},
	}
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
