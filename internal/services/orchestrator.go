package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Itera/unger-agentic-insight/internal/config"
	"github.com/Itera/unger-agentic-insight/internal/models"
	"github.com/Itera/unger-agentic-insight/internal/pkg/logger"
	"github.com/Itera/unger-agentic-insight/internal/workflow"
)

// Node names in the workflow graph. Agent nodes reuse the trace names.
const (
	nodeIntent      = models.AgentNameIntent
	nodeGraph       = models.AgentNameGraph
	nodeMaintenance = models.AgentNameMaintenance
	nodeTimeSeries  = models.AgentNameTimeSeries
	nodeFanout      = "fanout"
	nodeSynthesizer = models.AgentNameSynthesizer
)

const maxContextBytesPerAgent = 2048

// errWorkflowCancelled aborts graph execution when the caller cancels.
var errWorkflowCancelled = errors.New("workflow cancelled")

// LLMProvider is the slice of the LLM service the coordinator needs.
type LLMProvider interface {
	ClassifyIntent(ctx context.Context, question string, scope *models.ScopeHint) (*models.Intent, error)
	GenerateCypher(ctx context.Context, question string, scope *models.ScopeHint) (string, error)
	Synthesize(ctx context.Context, question, contextBlock string, workflowErrors []string) (string, error)
}

type GraphQuerier interface {
	ExecuteReadQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, int, error)
}

type MaintenanceFetcher interface {
	FetchWorkOrders(ctx context.Context, graphRows []map[string]any) *models.MaintenanceResult
}

type TimeSeriesFetcher interface {
	FetchSensorData(ctx context.Context, graphRows []map[string]any) *models.TimeSeriesResult
}

// Coordinator owns the workflow graph and dispatch. It is the single
// writer of the shared state: agents return immutable results and the
// coordinator assigns them to state fields.
type Coordinator struct {
	llm         LLMProvider
	graphStore  GraphQuerier
	maintenance MaintenanceFetcher
	timeSeries  TimeSeriesFetcher
	timeouts    config.WorkflowConfig
	logger      *logger.Logger

	graph *workflow.Graph[*models.AgentState]
}

func NewCoordinator(
	llm LLMProvider,
	graphStore GraphQuerier,
	maintenance MaintenanceFetcher,
	timeSeries TimeSeriesFetcher,
	timeouts config.WorkflowConfig,
	log *logger.Logger) *Coordinator {

	coordinator := &Coordinator{
		llm:         llm,
		graphStore:  graphStore,
		maintenance: maintenance,
		timeSeries:  timeSeries,
		timeouts:    timeouts,
		logger:      log,
	}
	coordinator.graph = coordinator.buildWorkflow()

	log.Info("Coordinator initialized",
		"nodes", []string{nodeIntent, nodeGraph, nodeMaintenance, nodeTimeSeries, nodeSynthesizer},
		"workflow_timeout", timeouts.WorkflowTimeout.String())

	return coordinator
}

func (coordinator *Coordinator) buildWorkflow() *workflow.Graph[*models.AgentState] {
	graph := workflow.NewGraph[*models.AgentState]()

	graph.AddNode(nodeIntent, coordinator.intentNode)
	graph.AddNode(nodeGraph, coordinator.graphNode)
	graph.AddNode(nodeMaintenance, coordinator.maintenanceNode)
	graph.AddNode(nodeTimeSeries, coordinator.timeSeriesNode)
	graph.AddNode(nodeFanout, coordinator.fanoutNode)
	graph.AddNode(nodeSynthesizer, coordinator.synthesizerNode)

	graph.SetEntryPoint(nodeIntent)

	graph.AddConditionalEdges(nodeIntent, coordinator.routeAfterIntent, map[string]string{
		nodeGraph:       nodeGraph,
		nodeSynthesizer: nodeSynthesizer,
	})

	graph.AddConditionalEdges(nodeGraph, coordinator.routeAfterGraph, map[string]string{
		nodeMaintenance: nodeMaintenance,
		nodeTimeSeries:  nodeTimeSeries,
		nodeFanout:      nodeFanout,
		nodeSynthesizer: nodeSynthesizer,
	})

	graph.AddEdge(nodeMaintenance, nodeSynthesizer)
	graph.AddEdge(nodeTimeSeries, nodeSynthesizer)
	graph.AddEdge(nodeFanout, nodeSynthesizer)
	graph.AddEdge(nodeSynthesizer, workflow.End)

	return graph
}

// Run executes the workflow for one question. Agent-level failures are
// absorbed into the trace and error list; only an internal bug returns
// a non-nil error.
func (coordinator *Coordinator) Run(ctx context.Context, question string, scope *models.ScopeHint) (*models.RunResult, error) {
	startTime := time.Now()
	state := models.NewAgentState(question, scope)

	coordinator.logger.LogWorkflow(state.RequestID, "workflow_started", 0, nil)

	workflowCtx, cancel := context.WithTimeout(ctx, coordinator.timeouts.WorkflowTimeout)
	defer cancel()

	finalState, err := coordinator.graph.Execute(workflowCtx, state, 10)
	duration := time.Since(startTime)

	if err != nil {
		if errors.Is(err, errWorkflowCancelled) {
			coordinator.logger.LogWorkflow(state.RequestID, "workflow_cancelled", duration, nil)
			return &models.RunResult{
				Answer: "",
				Trace:  state.BuildExecutionTrace(),
				Errors: []string{models.ErrCancelled.Message},
			}, nil
		}
		// a failure of the coordinator machinery itself is fatal
		coordinator.logger.LogWorkflow(state.RequestID, "workflow_failed", duration, err)
		return nil, err
	}

	answer := ""
	if finalState.Synthesis != nil {
		answer = finalState.Synthesis.Text
	}

	coordinator.logger.LogWorkflow(state.RequestID, "workflow_completed", duration, nil)

	return &models.RunResult{
		Answer: answer,
		Trace:  finalState.BuildExecutionTrace(),
		Errors: finalState.Errors,
	}, nil
}

// ----- routing -----

func (coordinator *Coordinator) routeAfterIntent(state *models.AgentState) string {
	if state.Intent == nil || !state.Intent.NeedsGraph {
		return nodeSynthesizer
	}
	return nodeGraph
}

// routeAfterGraph picks the downstream branch. When the graph agent
// failed, the selected downstream agents are recorded as skipped and
// control goes straight to the synthesizer.
func (coordinator *Coordinator) routeAfterGraph(state *models.AgentState) string {
	needsMaintenance := state.Intent != nil && state.Intent.NeedsMaintenance
	needsTimeSeries := state.Intent != nil && state.Intent.NeedsTimeSeries

	if !state.GraphSucceeded() {
		if needsMaintenance {
			coordinator.appendSkipped(state, nodeMaintenance, "skipped: graph agent failed")
		}
		if needsTimeSeries {
			coordinator.appendSkipped(state, nodeTimeSeries, "skipped: graph agent failed")
		}
		return nodeSynthesizer
	}

	switch {
	case needsMaintenance && needsTimeSeries:
		return nodeFanout
	case needsMaintenance:
		return nodeMaintenance
	case needsTimeSeries:
		return nodeTimeSeries
	default:
		return nodeSynthesizer
	}
}

func (coordinator *Coordinator) appendSkipped(state *models.AgentState, agentName, reason string) {
	state.AppendResult(models.AgentResult{
		AgentName: agentName,
		Status:    models.AgentStatusSkipped,
		StartedAt: time.Now(),
		Summary:   reason,
	})
}

// ----- node wrapper -----

// executeFunc runs one agent against the state and returns its summary,
// trace output, and a merge that assigns the result to the state.
type executeFunc func(ctx context.Context, state *models.AgentState) (summary string, output any, merge func(*models.AgentState), err error)

// runAgent wraps an agent execution with cancellation checks, the
// node's deadline, timing, and trace recording. Agent errors never
// propagate; they are absorbed into the trace and the error list.
func (coordinator *Coordinator) runAgent(ctx context.Context, state *models.AgentState, agentName string, timeout time.Duration, execute executeFunc) error {
	if err := coordinator.checkInterrupted(ctx, state, agentName); err != nil {
		return err
	}
	if state.HasResult(agentName) {
		// one AgentResult per agent per run
		return nil
	}

	result, merge := coordinator.executeWithDeadline(ctx, state, agentName, timeout, execute)

	if merge != nil {
		merge(state)
	}
	state.AppendResult(result)
	if result.Status == models.AgentStatusError {
		state.AddError(fmt.Sprintf("%s: %s", agentName, result.Error))
	}

	return nil
}

// executeWithDeadline performs the timed execution without touching the
// state; the caller merges, so fanout branches can run concurrently
// against the same snapshot.
func (coordinator *Coordinator) executeWithDeadline(ctx context.Context, state *models.AgentState, agentName string, timeout time.Duration, execute executeFunc) (models.AgentResult, func(*models.AgentState)) {
	startTime := time.Now()

	nodeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	summary, output, merge, err := func() (summary string, output any, merge func(*models.AgentState), err error) {
		defer func() {
			if recovered := recover(); recovered != nil {
				err = fmt.Errorf("panic: %v", recovered)
			}
		}()
		return execute(nodeCtx, state)
	}()
	durationMS := time.Since(startTime).Milliseconds()

	result := models.AgentResult{
		AgentName:  agentName,
		StartedAt:  startTime,
		DurationMS: durationMS,
		Summary:    summary,
		Output:     output,
	}

	if err != nil {
		reason := err.Error()
		deadlineHit := errors.Is(err, context.DeadlineExceeded) || nodeCtx.Err() == context.DeadlineExceeded
		if deadlineHit && ctx.Err() == nil {
			reason = "timeout"
		}
		result.Status = models.AgentStatusError
		result.Error = reason
		result.Summary = "Failed: " + reason

		coordinator.logger.LogAgent(state.RequestID, agentName, "execute", time.Since(startTime), nil, err)
		return result, merge
	}

	result.Status = models.AgentStatusSuccess
	coordinator.logger.LogAgent(state.RequestID, agentName, "execute", time.Since(startTime), map[string]any{
		"summary": summary,
	}, nil)
	return result, merge
}

// checkInterrupted handles caller cancellation and the whole-workflow
// deadline. Cancellation aborts without synthesis; the workflow
// deadline short-circuits non-synthesizer nodes to skipped entries.
func (coordinator *Coordinator) checkInterrupted(ctx context.Context, state *models.AgentState, agentName string) error {
	switch ctx.Err() {
	case nil:
		return nil
	case context.Canceled:
		return errWorkflowCancelled
	default: // deadline exceeded
		if agentName != nodeSynthesizer && !state.HasResult(agentName) {
			coordinator.appendSkipped(state, agentName, "skipped: workflow deadline exceeded")
			state.AddError(fmt.Sprintf("%s: workflow timeout", agentName))
		}
		return nil
	}
}

// ----- nodes -----

func (coordinator *Coordinator) intentNode(ctx context.Context, state *models.AgentState) (*models.AgentState, error) {
	err := coordinator.runAgent(ctx, state, nodeIntent, coordinator.timeouts.GraphTimeout, func(nodeCtx context.Context, state *models.AgentState) (string, any, func(*models.AgentState), error) {
		intent, err := coordinator.llm.ClassifyIntent(nodeCtx, state.Question, state.Scope)
		if err != nil {
			// classification is never fatal: fall back to the safest
			// overlap and record the step as successful
			coordinator.logger.WithError(err).Warn("intent classification failed, using fallback")
			intent = &models.Intent{NeedsGraph: true, NeedsMaintenance: true, NeedsTimeSeries: false}
		}

		summary := fmt.Sprintf("Selected agents: graph=%t, maintenance=%t, time_series=%t",
			intent.NeedsGraph, intent.NeedsMaintenance, intent.NeedsTimeSeries)
		merge := func(s *models.AgentState) { s.Intent = intent }
		return summary, intent, merge, nil
	})
	return state, err
}

func (coordinator *Coordinator) graphNode(ctx context.Context, state *models.AgentState) (*models.AgentState, error) {
	err := coordinator.runAgent(ctx, state, nodeGraph, coordinator.timeouts.GraphTimeout, func(nodeCtx context.Context, state *models.AgentState) (string, any, func(*models.AgentState), error) {
		graphResult := coordinator.executeGraphQuery(nodeCtx, state)
		merge := func(s *models.AgentState) { s.GraphResult = graphResult }

		if graphResult.Error != "" {
			return "", graphResult, merge, errors.New(graphResult.Error)
		}
		return graphSummary(graphResult), graphResult, merge, nil
	})
	return state, err
}

func (coordinator *Coordinator) executeGraphQuery(ctx context.Context, state *models.AgentState) *models.GraphResult {
	result := &models.GraphResult{Rows: []map[string]any{}}

	cypher, err := coordinator.llm.GenerateCypher(ctx, state.Question, state.Scope)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Cypher = cypher

	if err := ValidateReadOnlyCypher(cypher); err != nil {
		result.Error = "write clause rejected"
		return result
	}

	rows, rowCount, err := coordinator.graphStore.ExecuteReadQuery(ctx, cypher, nil)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Rows = rows
	result.RowCount = rowCount
	return result
}

func (coordinator *Coordinator) maintenanceNode(ctx context.Context, state *models.AgentState) (*models.AgentState, error) {
	err := coordinator.runAgent(ctx, state, nodeMaintenance, coordinator.timeouts.MaintenanceTimeout, coordinator.maintenanceExecute)
	return state, err
}

func (coordinator *Coordinator) maintenanceExecute(nodeCtx context.Context, state *models.AgentState) (string, any, func(*models.AgentState), error) {
	maintenanceResult := coordinator.maintenance.FetchWorkOrders(nodeCtx, state.GraphResult.Rows)
	merge := func(s *models.AgentState) { s.MaintenanceResult = maintenanceResult }

	if maintenanceResult.Error != "" && len(maintenanceResult.WorkOrders) == 0 && len(maintenanceResult.SensorsQueried) == 0 {
		return "", maintenanceResult, merge, errors.New(maintenanceResult.Error)
	}
	return maintenanceSummary(maintenanceResult), maintenanceResult, merge, nil
}

func (coordinator *Coordinator) timeSeriesNode(ctx context.Context, state *models.AgentState) (*models.AgentState, error) {
	err := coordinator.runAgent(ctx, state, nodeTimeSeries, coordinator.timeouts.TimeSeriesTimeout, coordinator.timeSeriesExecute)
	return state, err
}

func (coordinator *Coordinator) timeSeriesExecute(nodeCtx context.Context, state *models.AgentState) (string, any, func(*models.AgentState), error) {
	timeSeriesResult := coordinator.timeSeries.FetchSensorData(nodeCtx, state.GraphResult.Rows)
	merge := func(s *models.AgentState) { s.TimeSeriesResult = timeSeriesResult }

	if timeSeriesResult.Error != "" {
		return "", timeSeriesResult, merge, errors.New(timeSeriesResult.Error)
	}
	return timeSeriesSummary(timeSeriesResult), timeSeriesResult, merge, nil
}

// fanoutNode runs maintenance and time-series concurrently against the
// same immutable graph snapshot. Each branch computes its result off
// the state; merges and trace appends happen here, on the coordinator's
// goroutine, in completion order.
func (coordinator *Coordinator) fanoutNode(ctx context.Context, state *models.AgentState) (*models.AgentState, error) {
	if err := coordinator.checkInterrupted(ctx, state, nodeMaintenance); err != nil {
		return state, err
	}
	if err := coordinator.checkInterrupted(ctx, state, nodeTimeSeries); err != nil {
		return state, err
	}

	type branchOutcome struct {
		result models.AgentResult
		merge  func(*models.AgentState)
	}

	outcomes := make(chan branchOutcome, 2)

	branches := []struct {
		agentName string
		timeout   time.Duration
		execute   executeFunc
	}{
		{nodeMaintenance, coordinator.timeouts.MaintenanceTimeout, coordinator.maintenanceExecute},
		{nodeTimeSeries, coordinator.timeouts.TimeSeriesTimeout, coordinator.timeSeriesExecute},
	}

	launched := 0
	for _, branch := range branches {
		if state.HasResult(branch.agentName) {
			continue
		}
		launched++
		go func(agentName string, timeout time.Duration, execute executeFunc) {
			result, merge := coordinator.executeWithDeadline(ctx, state, agentName, timeout, execute)
			outcomes <- branchOutcome{result: result, merge: merge}
		}(branch.agentName, branch.timeout, branch.execute)
	}

	for i := 0; i < launched; i++ {
		outcome := <-outcomes
		if outcome.merge != nil {
			outcome.merge(state)
		}
		state.AppendResult(outcome.result)
		if outcome.result.Status == models.AgentStatusError {
			state.AddError(fmt.Sprintf("%s: %s", outcome.result.AgentName, outcome.result.Error))
		}
	}

	return state, nil
}

func (coordinator *Coordinator) synthesizerNode(ctx context.Context, state *models.AgentState) (*models.AgentState, error) {
	err := coordinator.runAgent(ctx, state, nodeSynthesizer, coordinator.timeouts.SynthesizerTimeout, func(nodeCtx context.Context, state *models.AgentState) (string, any, func(*models.AgentState), error) {
		synthesis := coordinator.synthesize(nodeCtx, state)
		merge := func(s *models.AgentState) { s.Synthesis = synthesis }
		summary := fmt.Sprintf("Synthesized response from %d agent(s)", len(synthesis.CitedAgents))
		return summary, nil, merge, nil
	})
	return state, err
}

// synthesize always produces some text: off-domain questions get a
// deterministic clarification, LLM failures fall back to concatenated
// agent summaries.
func (coordinator *Coordinator) synthesize(ctx context.Context, state *models.AgentState) *models.Synthesis {
	citedAgents := successfulAgents(state)

	if state.Intent == nil || (!state.Intent.NeedsGraph && !state.Intent.NeedsMaintenance && !state.Intent.NeedsTimeSeries) {
		return &models.Synthesis{
			Text: "I can help with questions about the plant's assets, sensors, work orders and recent measurements. " +
				"Your question doesn't seem to touch plant data - could you rephrase it in terms of a plant, area, equipment or sensor?",
			CitedAgents: []string{},
		}
	}

	contextBlock := buildContextBlock(state)

	text, err := coordinator.llm.Synthesize(ctx, state.Question, contextBlock, state.Errors)
	if err != nil {
		coordinator.logger.WithError(err).Warn("synthesis failed, using deterministic fallback")
		text = fallbackSynthesis(state)
	}

	return &models.Synthesis{Text: text, CitedAgents: citedAgents}
}

func successfulAgents(state *models.AgentState) []string {
	agents := []string{}
	for _, result := range state.Trace {
		if result.Status == models.AgentStatusSuccess && result.AgentName != nodeSynthesizer && result.AgentName != nodeIntent {
			agents = append(agents, result.AgentName)
		}
	}
	return agents
}

// ----- context building -----

// buildContextBlock renders a compact per-agent context for the
// synthesis prompt, bounded to about 2KB per agent.
func buildContextBlock(state *models.AgentState) string {
	sections := []string{}

	if graphResult := state.GraphResult; graphResult != nil {
		var builder strings.Builder
		if graphResult.Error != "" {
			fmt.Fprintf(&builder, "GRAPH DATA: query failed (%s)", graphResult.Error)
		} else if graphResult.RowCount == 0 {
			builder.WriteString("GRAPH DATA: no results found")
		} else {
			fmt.Fprintf(&builder, "GRAPH DATA (%d results):\n", graphResult.RowCount)
			shown := graphResult.Rows
			if len(shown) > 5 {
				shown = shown[:5]
			}
			for i, row := range shown {
				encoded, _ := json.Marshal(row)
				fmt.Fprintf(&builder, "  %d. %s\n", i+1, encoded)
			}
			if graphResult.RowCount > len(shown) {
				fmt.Fprintf(&builder, "  ... and %d more results", graphResult.RowCount-len(shown))
			}
		}
		sections = append(sections, clampSection(builder.String()))
	}

	if maintenanceResult := state.MaintenanceResult; maintenanceResult != nil {
		var builder strings.Builder
		switch {
		case maintenanceResult.Error != "" && len(maintenanceResult.WorkOrders) == 0:
			fmt.Fprintf(&builder, "MAINTENANCE DATA: unavailable (%s)", maintenanceResult.Error)
		case len(maintenanceResult.WorkOrders) == 0:
			fmt.Fprintf(&builder, "MAINTENANCE DATA: no work orders found for %d sensors", len(maintenanceResult.SensorsQueried))
		default:
			fmt.Fprintf(&builder, "MAINTENANCE DATA (%d work orders):\n", len(maintenanceResult.WorkOrders))
			shown := maintenanceResult.WorkOrders
			if len(shown) > 3 {
				shown = shown[:3]
			}
			for i, workOrder := range shown {
				fmt.Fprintf(&builder, "  %d. WO#%d [%s]: %s\n", i+1, workOrder.Nr, workOrder.SensorName, workOrder.ShortDescription)
			}
			if len(maintenanceResult.WorkOrders) > len(shown) {
				fmt.Fprintf(&builder, "  ... and %d more work orders", len(maintenanceResult.WorkOrders)-len(shown))
			}
		}
		sections = append(sections, clampSection(builder.String()))
	}

	if timeSeriesResult := state.TimeSeriesResult; timeSeriesResult != nil {
		var builder strings.Builder
		if timeSeriesResult.Error != "" {
			fmt.Fprintf(&builder, "SENSOR DATA: unavailable (%s)", timeSeriesResult.Error)
		} else {
			mockNote := ""
			if timeSeriesResult.IsMock {
				mockNote = " [MOCK DATA]"
			}
			fmt.Fprintf(&builder, "SENSOR DATA%s (%d measurements):\n", mockNote, len(timeSeriesResult.Measurements))
			if len(timeSeriesResult.Anomalies) > 0 {
				fmt.Fprintf(&builder, "  %d anomalies detected:\n", len(timeSeriesResult.Anomalies))
				shown := timeSeriesResult.Anomalies
				if len(shown) > 3 {
					shown = shown[:3]
				}
				for _, anomaly := range shown {
					fmt.Fprintf(&builder, "    - %s: %s (severity: %s)\n", anomaly.SensorName, anomaly.AnomalyType, anomaly.Severity)
				}
			} else {
				builder.WriteString("  all sensors operating normally")
			}
		}
		sections = append(sections, clampSection(builder.String()))
	}

	if len(sections) == 0 {
		return "No agent data available."
	}
	return strings.Join(sections, "\n\n")
}

func clampSection(section string) string {
	if len(section) > maxContextBytesPerAgent {
		return section[:maxContextBytesPerAgent] + "\n  [truncated]"
	}
	return section
}

// fallbackSynthesis concatenates per-agent summaries when the LLM is
// unavailable.
func fallbackSynthesis(state *models.AgentState) string {
	var builder strings.Builder
	builder.WriteString("Here is what the plant data systems reported:\n")
	for _, result := range state.Trace {
		if result.AgentName == nodeSynthesizer {
			continue
		}
		fmt.Fprintf(&builder, "- %s: %s\n", result.AgentName, result.Summary)
	}
	if len(state.Errors) > 0 {
		builder.WriteString("Some data sources were unavailable: " + strings.Join(state.Errors, "; "))
	}
	return builder.String()
}

// ----- summaries -----

func graphSummary(result *models.GraphResult) string {
	switch {
	case result.RowCount == 0:
		return "No results found in graph database"
	case result.RowCount == 1:
		return "Found 1 result in graph database"
	case result.RowCount > MaxGraphRows:
		return fmt.Sprintf("Found %d results in graph database (limited to %d)", result.RowCount, MaxGraphRows)
	default:
		return fmt.Sprintf("Found %d results in graph database", result.RowCount)
	}
}

func maintenanceSummary(result *models.MaintenanceResult) string {
	sensorCount := len(result.SensorsQueried)
	if sensorCount == 0 {
		return "No sensors found to check for work orders"
	}

	workOrderCount := len(result.WorkOrders)
	switch workOrderCount {
	case 0:
		return fmt.Sprintf("No work orders found for %d sensors", sensorCount)
	case 1:
		return fmt.Sprintf("Found 1 work order across %d sensors", sensorCount)
	default:
		return fmt.Sprintf("Found %d work orders across %d sensors", workOrderCount, sensorCount)
	}
}

func timeSeriesSummary(result *models.TimeSeriesResult) string {
	mockNote := ""
	if result.IsMock {
		mockNote = " (mock data)"
	}

	if len(result.Anomalies) > 0 {
		return fmt.Sprintf("Retrieved %d measurements, found %d anomalies%s",
			len(result.Measurements), len(result.Anomalies), mockNote)
	}
	return fmt.Sprintf("Retrieved %d measurements, no anomalies detected%s",
		len(result.Measurements), mockNote)
}
