package models_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Itera/unger-agentic-insight/internal/models"
)

func TestNewAgentState(t *testing.T) {
	scope := &models.ScopeHint{NodeType: "AssetArea", NodeName: "40-10", ScopeDepth: 2}
	state := models.NewAgentState("What sensors are in area 40-10?", scope)

	if state.Question != "What sensors are in area 40-10?" {
		t.Errorf("Expected question to be set, got %q", state.Question)
	}

	if state.Scope != scope {
		t.Error("Expected scope to be carried on the state")
	}

	if state.RequestID == "" {
		t.Error("Expected a generated request ID")
	}

	if len(state.Trace) != 0 || len(state.Errors) != 0 {
		t.Error("Expected empty trace and error list on a fresh state")
	}
}

func TestAppendResultClampsSummary(t *testing.T) {
	state := models.NewAgentState("q", nil)

	state.AppendResult(models.AgentResult{
		AgentName: models.AgentNameGraph,
		Status:    models.AgentStatusSuccess,
		Summary:   strings.Repeat("x", 500),
	})

	if got := len(state.Trace[0].Summary); got != models.MaxSummaryLength {
		t.Errorf("Expected summary clamped to %d chars, got %d", models.MaxSummaryLength, got)
	}
}

func TestHasResult(t *testing.T) {
	state := models.NewAgentState("q", nil)

	if state.HasResult(models.AgentNameIntent) {
		t.Error("Expected no result before append")
	}

	state.AppendResult(models.AgentResult{AgentName: models.AgentNameIntent, Status: models.AgentStatusSuccess})

	if !state.HasResult(models.AgentNameIntent) {
		t.Error("Expected result after append")
	}
}

func TestGraphSucceeded(t *testing.T) {
	state := models.NewAgentState("q", nil)

	if state.GraphSucceeded() {
		t.Error("Expected false with no graph result")
	}

	state.GraphResult = &models.GraphResult{Error: "write clause rejected"}
	if state.GraphSucceeded() {
		t.Error("Expected false when graph result carries an error")
	}

	state.GraphResult = &models.GraphResult{RowCount: 3}
	if !state.GraphSucceeded() {
		t.Error("Expected true for a clean graph result")
	}
}

func TestBuildExecutionTrace(t *testing.T) {
	state := models.NewAgentState("q", nil)
	state.StartTime = time.Now().Add(-100 * time.Millisecond)
	state.AppendResult(models.AgentResult{AgentName: models.AgentNameIntent, Status: models.AgentStatusSuccess})
	state.AppendResult(models.AgentResult{AgentName: models.AgentNameSynthesizer, Status: models.AgentStatusSuccess})

	trace := state.BuildExecutionTrace()

	if trace.WorkflowVersion != models.WorkflowVersion {
		t.Errorf("Expected workflow version %q, got %q", models.WorkflowVersion, trace.WorkflowVersion)
	}

	if len(trace.AgentsInvoked) != 2 {
		t.Errorf("Expected 2 agents in trace, got %d", len(trace.AgentsInvoked))
	}

	if trace.TotalDurationMS < 100 {
		t.Errorf("Expected total duration >= 100ms, got %d", trace.TotalDurationMS)
	}
}

func TestGenerateRequestIDUnique(t *testing.T) {
	first := models.GenerateRequestID()
	second := models.GenerateRequestID()

	if first == second {
		t.Error("Generated IDs should be unique")
	}

	if len(first) == 0 {
		t.Error("Generated ID should not be empty")
	}
}
