package services

import (
	"context"
	"encoding/json"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Itera/unger-agentic-insight/internal/config"
	"github.com/Itera/unger-agentic-insight/internal/models"
	"github.com/Itera/unger-agentic-insight/internal/pkg/logger"
)

const (
	// MaxTimeSeriesSensors caps how many sensors the agent samples.
	MaxTimeSeriesSensors = 20
	// MeasurementsPerSensor is the synthetic sample count per sensor.
	MeasurementsPerSensor = 5

	anomalyProbability = 0.2

	sensorDataToolName = "get_sensor_data"
)

var typeCodePattern = regexp.MustCompile(`[A-Z]{2}`)

// TimeSeriesService retrieves recent measurements and anomaly flags for
// sensors named in the graph result. The mock generator is the default;
// the real mode speaks the same tool protocol as the maintenance agent
// and returns the identical shape with IsMock unset.
type TimeSeriesService struct {
	config  config.TimeSeriesConfig
	logger  *logger.Logger
	factory MCPClientFactory
	rng     *rand.Rand
	now     func() time.Time
}

func NewTimeSeriesService(cfg config.TimeSeriesConfig, log *logger.Logger) *TimeSeriesService {
	service := &TimeSeriesService{
		config: cfg,
		logger: log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}

	if cfg.UseReal && cfg.MCPURL != "" {
		service.factory = NewStreamableMCPClientFactory(cfg.MCPURL, "unger-agentic-insight")
	}

	return service
}

// WithRand fixes the random source; used by tests.
func (service *TimeSeriesService) WithRand(rng *rand.Rand) *TimeSeriesService {
	service.rng = rng
	return service
}

// WithClock fixes the timestamp source; used by tests.
func (service *TimeSeriesService) WithClock(now func() time.Time) *TimeSeriesService {
	service.now = now
	return service
}

// WithClientFactory overrides real-mode session creation.
func (service *TimeSeriesService) WithClientFactory(factory MCPClientFactory) *TimeSeriesService {
	service.factory = factory
	return service
}

func (service *TimeSeriesService) FetchSensorData(ctx context.Context, graphRows []map[string]any) *models.TimeSeriesResult {
	tags := ExtractSensorTags(graphRows, MaxTimeSeriesSensors)

	if service.config.UseReal && service.factory != nil {
		return service.fetchReal(ctx, tags)
	}
	return service.generateMock(tags)
}

// ----- mock mode -----

func (service *TimeSeriesService) generateMock(tags []string) *models.TimeSeriesResult {
	result := &models.TimeSeriesResult{
		Measurements: []models.Measurement{},
		Anomalies:    []models.Anomaly{},
		IsMock:       true,
	}

	now := service.now()

	for _, tag := range tags {
		unit := unitForTag(tag)

		var latest models.Measurement
		for i := 0; i < MeasurementsPerSensor; i++ {
			measurement := models.Measurement{
				SensorName: tag,
				Timestamp:  now.Add(-time.Duration(i) * time.Hour),
				Value:      service.valueForUnit(unit),
				Unit:       unit,
				Quality:    "Good",
			}
			if service.rng.Float64() < 0.1 {
				measurement.Quality = "Uncertain"
			}
			if i == 0 {
				latest = measurement
			}
			result.Measurements = append(result.Measurements, measurement)
		}

		if service.rng.Float64() < anomalyProbability {
			anomalyTypes := []string{"spike", "drop", "out_of_range"}
			severities := []string{"low", "medium", "high"}
			result.Anomalies = append(result.Anomalies, models.Anomaly{
				SensorName:  tag,
				Timestamp:   latest.Timestamp,
				Value:       latest.Value,
				AnomalyType: anomalyTypes[service.rng.Intn(len(anomalyTypes))],
				Severity:    severities[service.rng.Intn(len(severities))],
			})
		}
	}

	return result
}

func (service *TimeSeriesService) valueForUnit(unit string) float64 {
	switch unit {
	case "°C":
		return roundTwo(20 + service.rng.Float64()*60)
	case "bar":
		return roundTwo(1 + service.rng.Float64()*9)
	case "%":
		return roundTwo(service.rng.Float64() * 100)
	case "L/min":
		return roundTwo(service.rng.Float64() * 500)
	default:
		return roundTwo(service.rng.Float64() * 100)
	}
}

func roundTwo(value float64) float64 {
	return float64(int(value*100)) / 100
}

// unitForTag infers the measurement unit from the sensor's type code:
// the first letter of the two-letter code embedded in the tag.
func unitForTag(tag string) string {
	code := typeCodePattern.FindString(BaseTag(tag))
	if code == "" {
		return "raw"
	}

	switch code[0] {
	case 'T':
		return "°C"
	case 'P':
		return "bar"
	case 'L':
		return "%"
	case 'F':
		return "L/min"
	default:
		return "raw"
	}
}

// ----- real mode -----

func (service *TimeSeriesService) fetchReal(ctx context.Context, tags []string) *models.TimeSeriesResult {
	result := &models.TimeSeriesResult{
		Measurements: []models.Measurement{},
		Anomalies:    []models.Anomaly{},
		IsMock:       false,
	}

	if len(tags) == 0 {
		return result
	}

	session, err := service.factory(ctx)
	if err != nil {
		service.logger.WithError(err).Warn("time-series session initialization failed")
		result.Error = "time-series server unavailable"
		return result
	}
	defer session.Close()

	request := mcp.CallToolRequest{}
	request.Params.Name = sensorDataToolName
	request.Params.Arguments = map[string]any{
		"sensor_names": tags,
		"time_range":   "24h",
	}

	toolResult, err := session.CallTool(ctx, request)
	if err != nil {
		service.logger.WithError(err).Warn("sensor data lookup failed")
		result.Error = err.Error()
		return result
	}
	if toolResult.IsError {
		result.Error = toolResultText(toolResult)
		return result
	}

	var payload struct {
		Measurements []models.Measurement `json:"measurements"`
		Anomalies    []models.Anomaly     `json:"anomalies"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(toolResultText(toolResult))), &payload); err != nil {
		result.Error = "unparseable sensor data payload"
		return result
	}

	if payload.Measurements != nil {
		result.Measurements = payload.Measurements
	}
	if payload.Anomalies != nil {
		result.Anomalies = payload.Anomalies
	}
	return result
}
