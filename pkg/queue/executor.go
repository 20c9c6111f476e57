package queue

import (
	"context"

	"github.com/ygn-labs/ygn-brain/pkg/orchestrator"
)

// defaultCompileBudget is the working-context token budget for queued
// compiled-mode tasks.
const defaultCompileBudget = 4096

// OrchestratorExecutor runs queued tasks through the cognitive pipeline.
type OrchestratorExecutor struct {
	orch *orchestrator.Orchestrator
}

// NewOrchestratorExecutor wraps an orchestrator as a TaskExecutor.
func NewOrchestratorExecutor(orch *orchestrator.Orchestrator) *OrchestratorExecutor {
	return &OrchestratorExecutor{orch: orch}
}

// Execute dispatches on task mode and maps the pipeline outcome to a
// terminal queue status.
func (e *OrchestratorExecutor) Execute(ctx context.Context, task Task) *ExecutionResult {
	var (
		res orchestrator.Result
		err error
	)
	switch task.Mode {
	case "refined":
		var refined orchestrator.RefinedResult
		refined, err = e.orch.RunRefined(ctx, task.Input)
		res = refined.Result
	case "compiled":
		var compiled orchestrator.CompiledResult
		compiled, err = e.orch.RunCompiled(ctx, task.Input, defaultCompileBudget, nil)
		res = compiled.Result
	default:
		res, err = e.orch.Run(ctx, task.Input)
	}

	if err != nil {
		return &ExecutionResult{Status: StatusFailed, Error: err}
	}
	if res.Blocked {
		return &ExecutionResult{Status: StatusBlocked, Output: res.Output, SessionID: res.SessionID}
	}
	return &ExecutionResult{Status: StatusCompleted, Output: res.Output, SessionID: res.SessionID}
}
