package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sony/gobreaker"

	"github.com/Itera/unger-agentic-insight/internal/config"
	"github.com/Itera/unger-agentic-insight/internal/models"
	"github.com/Itera/unger-agentic-insight/internal/pkg/logger"
)

const (
	// MaxMaintenanceSensors caps tool calls per workflow.
	MaxMaintenanceSensors = 10

	maintenanceUnavailable = "maintenance server unavailable"
	workOrderToolName      = "get_work_orders_by_sensor"
)

// MCPToolCaller is the slice of the MCP client the agents need. The
// session behind it is an explicit resource: acquired on first use,
// renewed once on session loss, released on shutdown.
type MCPToolCaller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
	Close() error
}

// MCPClientFactory opens a new initialized session against a tool server.
type MCPClientFactory func(ctx context.Context) (MCPToolCaller, error)

// NewStreamableMCPClientFactory builds sessions speaking JSON-RPC 2.0
// over streamable HTTP with SSE against <baseURL>/mcp. The transport
// captures the session identifier returned by initialize and echoes it
// on every subsequent request.
func NewStreamableMCPClientFactory(baseURL, clientName string) MCPClientFactory {
	endpoint := strings.TrimSuffix(baseURL, "/") + "/mcp"

	return func(ctx context.Context) (MCPToolCaller, error) {
		mcpClient, err := client.NewStreamableHttpClient(endpoint)
		if err != nil {
			return nil, models.NewAppError(models.ErrCodeToolProtocol, "failed to create tool client").WithCause(err)
		}

		if err := mcpClient.Start(ctx); err != nil {
			return nil, models.NewAppError(models.ErrCodeToolProtocol, "failed to start tool transport").WithCause(err)
		}

		initRequest := mcp.InitializeRequest{}
		initRequest.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
		initRequest.Params.ClientInfo = mcp.Implementation{
			Name:    clientName,
			Version: models.WorkflowVersion,
		}

		if _, err := mcpClient.Initialize(ctx, initRequest); err != nil {
			_ = mcpClient.Close()
			return nil, models.NewAppError(models.ErrCodeToolProtocol, "initialize failed").WithCause(err)
		}

		return mcpClient, nil
	}
}

// MaintenanceService looks up work orders for sensors via the
// maintenance tool server.
type MaintenanceService struct {
	config        config.MaintenanceConfig
	canonicalizer *SensorNameCanonicalizer
	logger        *logger.Logger
	breaker       *gobreaker.CircuitBreaker
	factory       MCPClientFactory

	mu      sync.Mutex
	session MCPToolCaller
}

func NewMaintenanceService(cfg config.MaintenanceConfig, canonicalizer *SensorNameCanonicalizer, log *logger.Logger) *MaintenanceService {
	service := &MaintenanceService{
		config:        cfg,
		canonicalizer: canonicalizer,
		logger:        log,
	}

	if cfg.MCPURL != "" {
		service.factory = NewStreamableMCPClientFactory(cfg.MCPURL, "unger-agentic-insight")
	}

	service.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "maintenance-mcp",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	return service
}

// WithClientFactory overrides session creation; used by tests and by a
// differently-transported deployment.
func (service *MaintenanceService) WithClientFactory(factory MCPClientFactory) *MaintenanceService {
	service.factory = factory
	return service
}

// FetchWorkOrders consumes up to the first 10 distinct sensor tags from
// the graph rows and looks up work orders for each. Agent-level
// failures are reported on the result, never as an error return.
func (service *MaintenanceService) FetchWorkOrders(ctx context.Context, graphRows []map[string]any) *models.MaintenanceResult {
	result := &models.MaintenanceResult{
		WorkOrders:     []models.WorkOrder{},
		SensorsQueried: []string{},
	}

	if service.factory == nil {
		result.Error = maintenanceUnavailable
		return result
	}

	tags := ExtractSensorTags(graphRows, MaxMaintenanceSensors)
	if len(tags) == 0 {
		return result
	}

	if err := service.ensureSession(ctx); err != nil {
		service.logger.WithError(err).Warn("maintenance session initialization failed")
		result.Error = maintenanceUnavailable
		return result
	}

	var sensorErrors []string

	for _, tag := range tags {
		canonical, matched := service.canonicalizer.Canonicalize(tag)
		if !matched && !service.canonicalizer.KeepUnmatched() {
			continue
		}

		result.SensorsQueried = append(result.SensorsQueried, canonical)

		workOrders, err := service.fetchForSensor(ctx, canonical)
		if err != nil {
			service.logger.WithError(err).Warn("work order lookup failed", "sensor", canonical)
			sensorErrors = append(sensorErrors, fmt.Sprintf("%s: %v", canonical, err))
			continue
		}

		for i := range workOrders {
			workOrders[i].SensorName = canonical
			workOrders[i].OriginalSensorName = tag
		}
		result.WorkOrders = append(result.WorkOrders, workOrders...)
	}

	if len(sensorErrors) > 0 {
		result.Error = strings.Join(sensorErrors, "; ")
	}

	return result
}

// fetchForSensor calls the work-order tool once, renewing the session
// a single time when the server reports it lost (HTTP 404/401).
func (service *MaintenanceService) fetchForSensor(ctx context.Context, sensorName string) ([]models.WorkOrder, error) {
	workOrders, err := service.callWorkOrderTool(ctx, sensorName)
	if err == nil {
		return workOrders, nil
	}

	if !isSessionLost(err) {
		return nil, err
	}

	service.logger.Warn("maintenance session lost, re-initializing", "sensor", sensorName)
	service.dropSession()

	if err := service.ensureSession(ctx); err != nil {
		return nil, err
	}
	return service.callWorkOrderTool(ctx, sensorName)
}

func (service *MaintenanceService) callWorkOrderTool(ctx context.Context, sensorName string) ([]models.WorkOrder, error) {
	session := service.currentSession()
	if session == nil {
		return nil, models.NewAppError(models.ErrCodeToolProtocol, "no active session")
	}

	raw, err := service.breaker.Execute(func() (any, error) {
		request := mcp.CallToolRequest{}
		request.Params.Name = workOrderToolName
		request.Params.Arguments = map[string]any{"sensor_name": sensorName}
		return session.CallTool(ctx, request)
	})
	if err != nil {
		return nil, models.WrapExternalError("maintenance", err)
	}

	toolResult := raw.(*mcp.CallToolResult)
	if toolResult.IsError {
		return nil, models.NewAppError(models.ErrCodeToolLogic, toolResultText(toolResult))
	}

	return parseWorkOrders(toolResultText(toolResult))
}

func (service *MaintenanceService) ensureSession(ctx context.Context) error {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.session != nil {
		return nil
	}

	raw, err := service.breaker.Execute(func() (any, error) {
		return service.factory(ctx)
	})
	if err != nil {
		return err
	}

	service.session = raw.(MCPToolCaller)
	return nil
}

func (service *MaintenanceService) currentSession() MCPToolCaller {
	service.mu.Lock()
	defer service.mu.Unlock()
	return service.session
}

func (service *MaintenanceService) dropSession() {
	service.mu.Lock()
	defer service.mu.Unlock()
	if service.session != nil {
		_ = service.session.Close()
		service.session = nil
	}
}

func (service *MaintenanceService) Close() {
	service.dropSession()
}

func isSessionLost(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "404") ||
		strings.Contains(message, "401") ||
		strings.Contains(strings.ToLower(message), "session")
}

func toolResultText(result *mcp.CallToolResult) string {
	var builder strings.Builder
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			builder.WriteString(text.Text)
		}
	}
	return builder.String()
}

// parseWorkOrders accepts either a bare JSON array of work orders or a
// {"work_orders": [...]} wrapper, which is what the tool server emits.
func parseWorkOrders(payload string) ([]models.WorkOrder, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return []models.WorkOrder{}, nil
	}

	var wrapper struct {
		WorkOrders []models.WorkOrder `json:"work_orders"`
	}
	if err := json.Unmarshal([]byte(payload), &wrapper); err == nil && wrapper.WorkOrders != nil {
		return wrapper.WorkOrders, nil
	}

	var direct []models.WorkOrder
	if err := json.Unmarshal([]byte(payload), &direct); err == nil {
		return direct, nil
	}

	return nil, models.NewAppError(models.ErrCodeToolLogic, "unparseable work order payload")
}
