package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkflowVersion is reported on every execution trace.
const WorkflowVersion = "1.0"

// MaxSummaryLength bounds the per-agent summary carried in the trace.
const MaxSummaryLength = 200

type AgentStatus string

const (
	AgentStatusSuccess AgentStatus = "success"
	AgentStatusError   AgentStatus = "error"
	AgentStatusSkipped AgentStatus = "skipped"
)

// Agent node names as they appear in the execution trace.
const (
	AgentNameIntent      = "intent"
	AgentNameGraph       = "graph_agent"
	AgentNameMaintenance = "maintenance_agent"
	AgentNameTimeSeries  = "time_series_agent"
	AgentNameSynthesizer = "synthesizer"
)

// Intent carries the three routing flags decided by the classifier.
type Intent struct {
	NeedsGraph       bool   `json:"needs_graph"`
	NeedsMaintenance bool   `json:"needs_maintenance"`
	NeedsTimeSeries  bool   `json:"needs_time_series"`
	Reasoning        string `json:"reasoning,omitempty"`
}

// GraphResult holds the generated Cypher and its (truncated) result rows.
// RowCount is the pre-truncation count, bounded by the scan ceiling.
type GraphResult struct {
	Cypher   string           `json:"cypher"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
	Error    string           `json:"error,omitempty"`
}

type MaintenanceResult struct {
	WorkOrders     []WorkOrder `json:"work_orders"`
	SensorsQueried []string    `json:"sensors_queried"`
	Error          string      `json:"error,omitempty"`
}

type Measurement struct {
	SensorName string    `json:"sensor_name"`
	Timestamp  time.Time `json:"timestamp"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	Quality    string    `json:"quality,omitempty"`
}

type Anomaly struct {
	SensorName  string    `json:"sensor_name"`
	Timestamp   time.Time `json:"timestamp"`
	Value       float64   `json:"value"`
	AnomalyType string    `json:"anomaly_type"`
	Severity    string    `json:"severity"`
}

type TimeSeriesResult struct {
	Measurements []Measurement `json:"measurements"`
	Anomalies    []Anomaly     `json:"anomalies"`
	IsMock       bool          `json:"is_mock"`
	Error        string        `json:"error,omitempty"`
}

type Synthesis struct {
	Text        string   `json:"text"`
	CitedAgents []string `json:"cited_agents"`
}

// AgentResult records one node execution for the trace.
type AgentResult struct {
	AgentName  string      `json:"agent_name"`
	Status     AgentStatus `json:"status"`
	StartedAt  time.Time   `json:"started_at"`
	DurationMS int64       `json:"duration_ms"`
	Summary    string      `json:"summary"`
	Output     any         `json:"output,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// ExecutionTrace is the per-call observability record returned to callers.
type ExecutionTrace struct {
	TotalDurationMS int64         `json:"total_duration_ms"`
	AgentsInvoked   []AgentResult `json:"agents_invoked"`
	WorkflowVersion string        `json:"workflow_version"`
}

// AgentState is the shared workflow state. It is created per request,
// written only by the coordinator, and discarded after the response is
// serialized. Agents receive it read-only and return immutable results.
type AgentState struct {
	RequestID string
	Question  string
	Scope     *ScopeHint

	Intent            *Intent
	GraphResult       *GraphResult
	MaintenanceResult *MaintenanceResult
	TimeSeriesResult  *TimeSeriesResult
	Synthesis         *Synthesis

	Trace     []AgentResult
	Errors    []string
	StartTime time.Time
}

func NewAgentState(question string, scope *ScopeHint) *AgentState {
	return &AgentState{
		RequestID: uuid.New().String(),
		Question:  question,
		Scope:     scope,
		Trace:     []AgentResult{},
		Errors:    []string{},
		StartTime: time.Now(),
	}
}

// AppendResult adds an AgentResult to the trace, clamping its summary.
// Trace order is completion order; the coordinator is the only caller.
func (state *AgentState) AppendResult(result AgentResult) {
	if len(result.Summary) > MaxSummaryLength {
		result.Summary = result.Summary[:MaxSummaryLength]
	}
	state.Trace = append(state.Trace, result)
}

func (state *AgentState) AddError(message string) {
	state.Errors = append(state.Errors, message)
}

// HasResult reports whether the trace already holds an entry for agent.
func (state *AgentState) HasResult(agentName string) bool {
	for _, result := range state.Trace {
		if result.AgentName == agentName {
			return true
		}
	}
	return false
}

// GraphSucceeded reports whether the graph agent completed without error.
func (state *AgentState) GraphSucceeded() bool {
	return state.GraphResult != nil && state.GraphResult.Error == ""
}

func (state *AgentState) BuildExecutionTrace() ExecutionTrace {
	return ExecutionTrace{
		TotalDurationMS: time.Since(state.StartTime).Milliseconds(),
		AgentsInvoked:   state.Trace,
		WorkflowVersion: WorkflowVersion,
	}
}
