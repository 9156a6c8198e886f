package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Itera/unger-agentic-insight/internal/config"
	"github.com/Itera/unger-agentic-insight/internal/models"
	"github.com/Itera/unger-agentic-insight/internal/pkg/logger"
)

// LLMService wraps the chat-completion API and owns the three prompts
// the workflow uses: intent classification, Cypher generation, and
// response synthesis.
type LLMService struct {
	client *genai.Client
	config config.LLMConfig
	logger *logger.Logger
}

type GenerationRequest struct {
	Prompt      string
	SystemRole  string
	MaxTokens   int32
	Temperature *float32
	JSONOutput  bool
}

type GenerationResponse struct {
	Content        string
	FinishReason   string
	ProcessingTime time.Duration
}

func NewLLMService(cfg config.LLMConfig, log *logger.Logger) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("LLM API key required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	service := &LLMService{
		client: client,
		config: cfg,
		logger: log,
	}

	log.Info("LLM service initialized",
		"model", cfg.Model,
		"max_tokens", cfg.MaxTokens,
		"temperature", cfg.Temperature)

	return service, nil
}

func (service *LLMService) GenerateContent(ctx context.Context, request *GenerationRequest) (*GenerationResponse, error) {
	startTime := time.Now()

	var response *GenerationResponse
	var err error

	for attempt := 1; attempt <= service.config.MaxRetries; attempt++ {
		response, err = service.makeGenerationRequest(ctx, request)
		if err == nil {
			break
		}

		if attempt < service.config.MaxRetries {
			service.logger.WithFields(logger.Fields{
				"attempt":     attempt,
				"max_retries": service.config.MaxRetries,
				"error":       err,
			}).Warn("generation attempt failed")

			select {
			case <-time.After(service.config.RetryDelay * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, models.NewTimeoutError(models.ErrCodeTimeout, "content generation timed out").WithCause(ctx.Err())
			}
		}
	}

	if err != nil {
		service.logger.LogService("llm", "generate_content", time.Since(startTime), map[string]any{
			"prompt_length": len(request.Prompt),
			"attempts":      service.config.MaxRetries,
		}, err)
		return nil, models.WrapExternalError("llm", err)
	}

	response.ProcessingTime = time.Since(startTime)

	service.logger.LogService("llm", "generate_content", response.ProcessingTime, map[string]any{
		"prompt_length":   len(request.Prompt),
		"response_length": len(response.Content),
		"finish_reason":   response.FinishReason,
	}, nil)

	return response, nil
}

func (service *LLMService) makeGenerationRequest(ctx context.Context, req *GenerationRequest) (*GenerationResponse, error) {
	genCtx, cancel := context.WithTimeout(ctx, service.config.Timeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{}

	if req.SystemRole != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemRole, genai.RoleUser)
	}

	if req.Temperature != nil {
		genConfig.Temperature = req.Temperature
	} else {
		temp := float32(service.config.Temperature)
		genConfig.Temperature = &temp
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = int32(service.config.MaxTokens)
	}
	genConfig.MaxOutputTokens = maxTokens

	if req.JSONOutput {
		genConfig.ResponseMIMEType = "application/json"
	}

	result, err := service.client.Models.GenerateContent(genCtx, service.config.Model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}

	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("no response candidates generated")
	}

	candidate := result.Candidates[0]

	text := ""
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			text += part.Text
		}
	}

	return &GenerationResponse{
		Content:      text,
		FinishReason: string(candidate.FinishReason),
	}, nil
}

// ----- Intent classification -----

// ClassifyIntent decides which downstream agents a question needs. A
// malformed reply never fails the node: the fallback selects graph and
// maintenance, the safest overlap.
func (service *LLMService) ClassifyIntent(ctx context.Context, question string, scope *models.ScopeHint) (*models.Intent, error) {
	prompt := buildIntentPrompt(question, scope)

	temperature := float32(0.1)
	req := &GenerationRequest{
		Prompt:      prompt,
		SystemRole:  "You are an intent classification expert for an industrial plant assistant. Respond only with valid JSON.",
		MaxTokens:   200,
		Temperature: &temperature,
		JSONOutput:  true,
	}

	resp, err := service.GenerateContent(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("intent classification failed: %w", err)
	}

	intent := ParseIntentResponse(resp.Content)

	service.logger.LogAgent("", models.AgentNameIntent, "classify", resp.ProcessingTime, map[string]any{
		"question":          question,
		"needs_graph":       intent.NeedsGraph,
		"needs_maintenance": intent.NeedsMaintenance,
		"needs_time_series": intent.NeedsTimeSeries,
	}, nil)

	return intent, nil
}

func buildIntentPrompt(question string, scope *models.ScopeHint) string {
	scopeNote := ""
	if scope != nil && scope.NodeName != "" {
		scopeNote = fmt.Sprintf("\nThe user is currently navigated to %s %q.\n", scope.NodeType, scope.NodeName)
	}

	return fmt.Sprintf(`Analyze this industrial plant question and determine which data sources are needed.
%s
Question: %q

Available data sources:
- GRAPH: graph database with plants, asset areas, equipment, and sensors
- MAINTENANCE: work orders and maintenance status for assets
- TIME_SERIES: recent sensor measurements and anomaly flags

Respond with a JSON object:
{"needs_graph": true/false, "needs_maintenance": true/false, "needs_time_series": true/false, "reasoning": "brief explanation"}

Rules:
- needs_graph must be true whenever maintenance or time-series data is needed, because those agents resolve sensors through the graph.
- Set every flag to false only when the question is entirely off-domain (greetings, chit-chat).

Examples:
- "What sensors are in area 40-10?" -> {"needs_graph": true, "needs_maintenance": false, "needs_time_series": false}
- "Are there work orders in area 40-10?" -> {"needs_graph": true, "needs_maintenance": true, "needs_time_series": false}
- "Show abnormal temperatures in 40-10" -> {"needs_graph": true, "needs_maintenance": false, "needs_time_series": true}
- "Complete status of 40-10" -> {"needs_graph": true, "needs_maintenance": true, "needs_time_series": true}
- "Hello" -> {"needs_graph": false, "needs_maintenance": false, "needs_time_series": false}

Your analysis (JSON only):`, scopeNote, question)
}

// ParseIntentResponse parses the classifier reply. On any parse
// failure it falls back to graph+maintenance. needs_graph is forced on
// whenever a downstream flag is set.
func ParseIntentResponse(response string) *models.Intent {
	fallback := &models.Intent{NeedsGraph: true, NeedsMaintenance: true, NeedsTimeSeries: false}

	cleaned := StripCodeFences(response)
	if cleaned == "" {
		return fallback
	}

	var intent models.Intent
	if err := json.Unmarshal([]byte(cleaned), &intent); err != nil {
		return fallback
	}

	if intent.NeedsMaintenance || intent.NeedsTimeSeries {
		intent.NeedsGraph = true
	}

	return &intent
}

// ----- Cypher generation -----

const graphSchemaContext = `You have access to a graph database with the following schema:

NODES:
- Plant: top-level plants (properties: name)
- AssetArea: areas within plants (properties: name, area_code - e.g. "40-10", "75-12")
- Equipment: industrial equipment (properties: equipment_name, equipment_type, sensor_count)
- Sensor: measurement devices (properties: tag - e.g. "4010TI371.DACA.PV", description, sensor_type_code - e.g. "TI", "PI", unit - e.g. "°C", "bar", area_code, classification)

RELATIONSHIPS:
- (Plant)-[:HAS_AREA]->(AssetArea)
- (AssetArea)-[:HAS_EQUIPMENT]->(Equipment)
- (AssetArea)-[:HAS_SENSOR]->(Sensor)
- (Equipment)-[:HAS_SENSOR]->(Sensor)

RULES:
1. Sensor properties are direct: use s.tag, s.description, s.unit
2. Always add LIMIT 50 to prevent oversized results
3. Use RETURN DISTINCT where duplicates are possible
4. For counting use COUNT(DISTINCT n)`

// GenerateCypher turns a natural-language question into a single
// read-only Cypher statement. Validation of the statement happens at
// the graph service before execution.
func (service *LLMService) GenerateCypher(ctx context.Context, question string, scope *models.ScopeHint) (string, error) {
	prompt := buildCypherPrompt(question, scope)

	temperature := float32(0.1)
	req := &GenerationRequest{
		Prompt:      prompt,
		SystemRole:  "You are a Cypher query expert for an industrial asset graph.",
		MaxTokens:   500,
		Temperature: &temperature,
	}

	resp, err := service.GenerateContent(ctx, req)
	if err != nil {
		return "", fmt.Errorf("cypher generation failed: %w", err)
	}

	cypher := StripCodeFences(resp.Content)
	if cypher == "" {
		return "", models.NewAppError(models.ErrCodeCypherRejected, "empty cypher reply")
	}

	return cypher, nil
}

func buildCypherPrompt(question string, scope *models.ScopeHint) string {
	var builder strings.Builder

	builder.WriteString(graphSchemaContext)
	builder.WriteString("\n\n")

	if scope != nil && scope.NodeName != "" {
		builder.WriteString(ScopeConstraint(scope))
		builder.WriteString("\n\n")
	}

	fmt.Fprintf(&builder, `User question: %s

Generate a single Cypher query that answers this question. Return ONLY the Cypher query, no explanation and no markdown code fences.

IMPORTANT: for work order or maintenance questions about an area, return the SENSORS in that area; the maintenance system resolves work orders from sensor tags.

Example queries:
- "What sensors are in area 40-10?" -> MATCH (a:AssetArea {name: "40-10"})-[:HAS_SENSOR]->(s:Sensor) RETURN s.tag, s.description, s.unit LIMIT 50
- "Are there work orders in area 40-10?" -> MATCH (a:AssetArea {name: "40-10"})-[:HAS_SENSOR]->(s:Sensor) RETURN s.tag, s.area_code LIMIT 50
- "How many equipment items are there?" -> MATCH (e:Equipment) RETURN COUNT(DISTINCT e) as equipment_count
- "Show me temperature sensors" -> MATCH (s:Sensor) WHERE s.sensor_type_code = 'TI' RETURN s.tag, s.description, s.unit LIMIT 50

Your query:`, question)

	return builder.String()
}

// ScopeConstraint renders the hard scope restriction prepended to the
// Cypher prompt. The hop depth is passed through as a constraint
// sentence; out-of-range depths are flagged rather than defaulted.
func ScopeConstraint(scope *models.ScopeHint) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "HARD CONSTRAINT: restrict all results to the %s named %q.", scope.NodeType, scope.NodeName)

	if scope.NodeType == "AssetArea" {
		switch {
		case scope.ScopeDepth >= 1 && scope.ScopeDepth <= 3:
			fmt.Fprintf(&builder, " Include its equipment and sensors transitively up to %d hop(s).", scope.ScopeDepth)
		default:
			builder.WriteString(" Traversal depth unspecified; restrict to direct relationships and state that assumption.")
		}
	}

	if scope.Breadcrumb != "" {
		fmt.Fprintf(&builder, " Navigation path: %s.", scope.Breadcrumb)
	}

	return builder.String()
}

// ----- Synthesis -----

// Synthesize composes the final answer from the agent context block.
// It never fails hard: on LLM failure the caller falls back to the
// deterministic template.
func (service *LLMService) Synthesize(ctx context.Context, question, contextBlock string, workflowErrors []string) (string, error) {
	prompt := buildSynthesisPrompt(question, contextBlock, workflowErrors)

	temperature := float32(0.3)
	req := &GenerationRequest{
		Prompt:      prompt,
		SystemRole:  "You are an expert industrial data analyst providing insights for plant operations.",
		MaxTokens:   1000,
		Temperature: &temperature,
	}

	resp, err := service.GenerateContent(ctx, req)
	if err != nil {
		return "", fmt.Errorf("synthesis failed: %w", err)
	}

	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", fmt.Errorf("synthesis returned empty reply")
	}

	return text, nil
}

func buildSynthesisPrompt(question, contextBlock string, workflowErrors []string) string {
	errorNote := ""
	if len(workflowErrors) > 0 {
		errorNote = "\n\nNote: some agents encountered errors:\n- " + strings.Join(workflowErrors, "\n- ")
	}

	return fmt.Sprintf(`Synthesize a clear, actionable response to the user's question based on the data provided by our specialized systems.

User question: %q

Available data:
%s%s

Instructions:
1. Answer the user's question directly in a professional industrial tone.
2. Cite which systems contributed (graph, maintenance, time-series).
3. Never mention sensor names or work order numbers that are not present in the data above.
4. If a requested data source was unavailable, acknowledge that explicitly and answer from what IS available.
5. Keep the response concise (2-4 paragraphs).

Your response:`, question, contextBlock, errorNote)
}

// StripCodeFences removes markdown code fences the model sometimes
// wraps replies in, and trims whitespace.
func StripCodeFences(response string) string {
	cleaned := strings.TrimSpace(response)

	for _, prefix := range []string{"```cypher", "```json", "```"} {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimPrefix(cleaned, prefix)
			break
		}
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")

	return strings.TrimSpace(cleaned)
}
