package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Itera/unger-agentic-insight/internal/config"
	"github.com/Itera/unger-agentic-insight/internal/pkg/logger"
	"github.com/Itera/unger-agentic-insight/internal/services"
)

// fakeToolSession scripts per-sensor tool responses.
type fakeToolSession struct {
	responses map[string]string // canonical sensor name -> payload
	failWith  error             // when set, every call fails
	failOnce  map[string]error  // one-shot failures per sensor
	calls     []string
	closed    bool
}

func (session *fakeToolSession) CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	arguments := request.GetArguments()
	sensorName, _ := arguments["sensor_name"].(string)
	session.calls = append(session.calls, sensorName)

	if session.failWith != nil {
		return nil, session.failWith
	}
	if err, ok := session.failOnce[sensorName]; ok {
		delete(session.failOnce, sensorName)
		return nil, err
	}

	payload, ok := session.responses[sensorName]
	if !ok {
		payload = `{"work_orders": []}`
	}
	return mcp.NewToolResultText(payload), nil
}

func (session *fakeToolSession) Close() error {
	session.closed = true
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(config.LogConfig{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("failed to create test logger: %v", err)
	}
	return log
}

func newTestMaintenanceService(t *testing.T, factory services.MCPClientFactory) *services.MaintenanceService {
	t.Helper()
	canonicalizer := services.NewSensorNameCanonicalizer(services.DefaultSensorNameConfig())
	service := services.NewMaintenanceService(config.MaintenanceConfig{MCPURL: "http://maintenance:8001"}, canonicalizer, testLogger(t))
	return service.WithClientFactory(factory)
}

func sensorRows(tags ...string) []map[string]any {
	rows := make([]map[string]any, len(tags))
	for i, tag := range tags {
		rows[i] = map[string]any{"s.tag": tag}
	}
	return rows
}

func TestFetchWorkOrders(t *testing.T) {
	session := &fakeToolSession{
		responses: map[string]string{
			"40-10-FI-001": `{"work_orders": [{"nr": 1001, "short_description": "Replace flow meter", "status": 1, "priority": 2}]}`,
			"40-10-TI-371": `{"work_orders": [{"nr": 1002, "short_description": "Calibrate transmitter", "status": 7, "priority": 1}]}`,
		},
	}
	service := newTestMaintenanceService(t, func(ctx context.Context) (services.MCPToolCaller, error) {
		return session, nil
	})
	defer service.Close()

	result := service.FetchWorkOrders(context.Background(), sensorRows("4010FI001.DACA.PV", "4010TI371.DACA.PV"))

	if result.Error != "" {
		t.Fatalf("Unexpected error: %s", result.Error)
	}

	if len(result.WorkOrders) != 2 {
		t.Fatalf("Expected 2 work orders, got %d", len(result.WorkOrders))
	}

	first := result.WorkOrders[0]
	if first.Nr != 1001 {
		t.Errorf("Expected WO 1001 first, got %d", first.Nr)
	}
	if first.SensorName != "40-10-FI-001" {
		t.Errorf("Expected canonical sensor name, got %q", first.SensorName)
	}
	if first.OriginalSensorName != "4010FI001.DACA.PV" {
		t.Errorf("Expected original tag preserved, got %q", first.OriginalSensorName)
	}

	if len(result.SensorsQueried) != 2 {
		t.Errorf("Expected 2 sensors queried, got %v", result.SensorsQueried)
	}
}

func TestFetchWorkOrdersSensorNamesAreQueried(t *testing.T) {
	session := &fakeToolSession{}
	service := newTestMaintenanceService(t, func(ctx context.Context) (services.MCPToolCaller, error) {
		return session, nil
	})
	defer service.Close()

	result := service.FetchWorkOrders(context.Background(), sensorRows("4010FI001.DACA.PV", "40-10-XX-999-custom"))

	// every returned sensor name must have been queried
	queried := map[string]bool{}
	for _, name := range result.SensorsQueried {
		queried[name] = true
	}
	for _, workOrder := range result.WorkOrders {
		if !queried[workOrder.SensorName] {
			t.Errorf("Work order sensor %q was never queried", workOrder.SensorName)
		}
	}

	// pass-through policy keeps the unmatched tag as-is
	if !queried["40-10-XX-999-custom"] {
		t.Errorf("Expected unmatched tag passed through, queried %v", result.SensorsQueried)
	}
}

func TestFetchWorkOrdersNoSensors(t *testing.T) {
	factoryCalled := false
	service := newTestMaintenanceService(t, func(ctx context.Context) (services.MCPToolCaller, error) {
		factoryCalled = true
		return &fakeToolSession{}, nil
	})
	defer service.Close()

	result := service.FetchWorkOrders(context.Background(), []map[string]any{{"equipment_count": 5}})

	if result.Error != "" {
		t.Errorf("Expected empty success, got error %q", result.Error)
	}
	if len(result.WorkOrders) != 0 || len(result.SensorsQueried) != 0 {
		t.Errorf("Expected empty result, got %+v", result)
	}
	if factoryCalled {
		t.Error("Expected no session when there are no sensors")
	}
}

func TestFetchWorkOrdersServerUnavailable(t *testing.T) {
	service := newTestMaintenanceService(t, func(ctx context.Context) (services.MCPToolCaller, error) {
		return nil, errors.New("connection refused")
	})
	defer service.Close()

	result := service.FetchWorkOrders(context.Background(), sensorRows("4010FI001.DACA.PV"))

	if result.Error != "maintenance server unavailable" {
		t.Errorf("Expected unavailable error, got %q", result.Error)
	}
	if len(result.WorkOrders) != 0 {
		t.Errorf("Expected no work orders, got %d", len(result.WorkOrders))
	}
}

func TestFetchWorkOrdersDisabledWithoutURL(t *testing.T) {
	canonicalizer := services.NewSensorNameCanonicalizer(services.DefaultSensorNameConfig())
	service := services.NewMaintenanceService(config.MaintenanceConfig{}, canonicalizer, testLogger(t))
	defer service.Close()

	result := service.FetchWorkOrders(context.Background(), sensorRows("4010FI001.DACA.PV"))

	if result.Error != "maintenance server unavailable" {
		t.Errorf("Expected unavailable error when no URL configured, got %q", result.Error)
	}
}

func TestFetchWorkOrdersSessionRenewal(t *testing.T) {
	renewed := &fakeToolSession{
		responses: map[string]string{
			"40-10-FI-001": `{"work_orders": [{"nr": 2001, "short_description": "Inspect valve", "status": 1, "priority": 3}]}`,
		},
	}
	lost := &fakeToolSession{failWith: errors.New("request failed: 404 Not Found")}

	sessions := []*fakeToolSession{lost, renewed}
	service := newTestMaintenanceService(t, func(ctx context.Context) (services.MCPToolCaller, error) {
		session := sessions[0]
		sessions = sessions[1:]
		return session, nil
	})
	defer service.Close()

	result := service.FetchWorkOrders(context.Background(), sensorRows("4010FI001.DACA.PV"))

	if result.Error != "" {
		t.Fatalf("Expected renewal to recover, got error %q", result.Error)
	}
	if len(result.WorkOrders) != 1 || result.WorkOrders[0].Nr != 2001 {
		t.Fatalf("Expected the renewed session's work order, got %+v", result.WorkOrders)
	}
	if !lost.closed {
		t.Error("Expected the lost session to be closed")
	}
}

func TestFetchWorkOrdersPerSensorErrorContinues(t *testing.T) {
	session := &fakeToolSession{
		responses: map[string]string{
			"40-10-TI-371": `{"work_orders": [{"nr": 3001, "short_description": "Check sensor", "status": 8, "priority": 2}]}`,
		},
		failOnce: map[string]error{
			"40-10-FI-001": errors.New("tool exploded"),
		},
	}
	service := newTestMaintenanceService(t, func(ctx context.Context) (services.MCPToolCaller, error) {
		return session, nil
	})
	defer service.Close()

	result := service.FetchWorkOrders(context.Background(), sensorRows("4010FI001.DACA.PV", "4010TI371.DACA.PV"))

	if len(result.WorkOrders) != 1 || result.WorkOrders[0].Nr != 3001 {
		t.Fatalf("Expected the second sensor's work order, got %+v", result.WorkOrders)
	}
	if result.Error == "" {
		t.Error("Expected the per-sensor failure to be recorded")
	}
}

func TestFetchWorkOrdersCapsSensorCount(t *testing.T) {
	session := &fakeToolSession{}
	service := newTestMaintenanceService(t, func(ctx context.Context) (services.MCPToolCaller, error) {
		return session, nil
	})
	defer service.Close()

	tags := make([]string, 15)
	for i := range tags {
		tags[i] = fmt.Sprintf("40%02dFI%03d.DACA.PV", i, i)
	}

	result := service.FetchWorkOrders(context.Background(), sensorRows(tags...))

	if len(session.calls) != services.MaxMaintenanceSensors {
		t.Errorf("Expected %d tool calls, got %d", services.MaxMaintenanceSensors, len(session.calls))
	}
	if len(result.SensorsQueried) != services.MaxMaintenanceSensors {
		t.Errorf("Expected %d sensors queried, got %d", services.MaxMaintenanceSensors, len(result.SensorsQueried))
	}
}
