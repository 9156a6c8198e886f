package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"

	"github.com/Itera/unger-agentic-insight/internal/config"
	"github.com/Itera/unger-agentic-insight/internal/models"
	"github.com/Itera/unger-agentic-insight/internal/pkg/logger"
)

const (
	// MaxGraphRows is the hard cap on rows placed on the workflow state.
	MaxGraphRows = 50
	// GraphScanCeiling bounds how many rows are consumed when counting;
	// row_count is exact only up to this ceiling.
	GraphScanCeiling = 1000
)

var writeClausePattern = regexp.MustCompile(`(?i)\b(CREATE|MERGE|DELETE|DETACH|SET|DROP|REMOVE|FOREACH)\b`)

var writeProcedurePattern = regexp.MustCompile(`(?i)\bCALL\s+(db\.create|dbms\.|apoc\.create|apoc\.merge|apoc\.refactor|apoc\.periodic)`)

// ValidateReadOnlyCypher rejects statements containing write clauses or
// write procedures. This is the safety net behind the LLM-generated
// Cypher; the session itself is additionally opened read-only.
func ValidateReadOnlyCypher(cypher string) error {
	if writeClausePattern.MatchString(cypher) {
		return models.NewAppError(models.ErrCodeCypherRejected, "write clause rejected")
	}
	if writeProcedurePattern.MatchString(cypher) {
		return models.NewAppError(models.ErrCodeCypherRejected, "write procedure rejected")
	}
	return nil
}

// GraphService owns the graph-store driver and executes read-only
// Cypher with row capping and record serialization.
type GraphService struct {
	driver neo4j.DriverWithContext
	config config.GraphConfig
	logger *logger.Logger
}

func NewGraphService(cfg config.GraphConfig, log *logger.Logger) (*GraphService, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("invalid graph store URI: %w", err)
	}

	service := &GraphService{
		driver: driver,
		config: cfg,
		logger: log,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("connection to graph store failed: %w", err)
	}

	log.Info("Graph service initialized",
		"uri", cfg.URI,
		"database", cfg.Database)

	return service, nil
}

// ExecuteReadQuery validates and runs a Cypher statement, returning the
// serialized rows truncated to MaxGraphRows and the pre-truncation
// count (exact up to GraphScanCeiling).
func (service *GraphService) ExecuteReadQuery(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, int, error) {
	if err := ValidateReadOnlyCypher(cypher); err != nil {
		return nil, 0, err
	}

	startTime := time.Now()

	session := service.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: service.config.Database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	collected, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		rows := make([]map[string]any, 0, MaxGraphRows)
		count := 0
		for result.Next(ctx) {
			count++
			if count <= MaxGraphRows {
				rows = append(rows, serializeRecord(result.Record()))
			}
			if count >= GraphScanCeiling {
				break
			}
		}
		if err := result.Err(); err != nil {
			return nil, err
		}

		return scanResult{rows: rows, count: count}, nil
	})
	if err != nil {
		service.logger.LogService("graph", "execute_read_query", time.Since(startTime), map[string]any{
			"cypher": cypher,
		}, err)
		return nil, 0, models.NewAppError(models.ErrCodeCypherExecution, "cypher execution failed").WithCause(err)
	}

	scan := collected.(scanResult)

	service.logger.LogService("graph", "execute_read_query", time.Since(startTime), map[string]any{
		"row_count": scan.count,
		"returned":  len(scan.rows),
	}, nil)

	return scan.rows, scan.count, nil
}

type scanResult struct {
	rows  []map[string]any
	count int
}

func (service *GraphService) HealthCheck(ctx context.Context) error {
	return service.driver.VerifyConnectivity(ctx)
}

func (service *GraphService) Close(ctx context.Context) error {
	return service.driver.Close(ctx)
}

// serializeRecord flattens one result record into plain scalar
// mappings. Graph-native node/relationship values become their
// property maps (plus labels/type), dates become "2006-01-02" strings
// and local date-times and date-times become RFC 3339 strings. Other
// temporal types are returned unchanged.
func serializeRecord(record *neo4j.Record) map[string]any {
	row := make(map[string]any, len(record.Keys))
	for i, key := range record.Keys {
		row[key] = serializeValue(record.Values[i])
	}
	return row
}

func serializeValue(value any) any {
	switch typed := value.(type) {
	case dbtype.Node:
		props := make(map[string]any, len(typed.Props)+1)
		for k, v := range typed.Props {
			props[k] = serializeValue(v)
		}
		props["labels"] = typed.Labels
		return props
	case dbtype.Relationship:
		props := make(map[string]any, len(typed.Props)+1)
		for k, v := range typed.Props {
			props[k] = serializeValue(v)
		}
		props["type"] = typed.Type
		return props
	case dbtype.Date:
		return typed.Time().Format("2006-01-02")
	case dbtype.LocalDateTime:
		return typed.Time().Format(time.RFC3339)
	case time.Time:
		return typed.Format(time.RFC3339)
	case []any:
		serialized := make([]any, len(typed))
		for i, item := range typed {
			serialized[i] = serializeValue(item)
		}
		return serialized
	case map[string]any:
		serialized := make(map[string]any, len(typed))
		for k, v := range typed {
			serialized[k] = serializeValue(v)
		}
		return serialized
	default:
		return value
	}
}

// ExtractSensorTags pulls sensor tags out of serialized graph rows,
// handling the alias keys Cypher results typically carry. Order is
// preserved and duplicates removed.
func ExtractSensorTags(rows []map[string]any, limit int) []string {
	seen := make(map[string]bool)
	tags := []string{}

	appendTag := func(candidate any) {
		name, ok := candidate.(string)
		if !ok || name == "" || seen[name] {
			return
		}
		seen[name] = true
		tags = append(tags, name)
	}

	for _, row := range rows {
		if len(tags) >= limit {
			break
		}

		switch {
		case row["s.tag"] != nil:
			appendTag(row["s.tag"])
		case row["tag"] != nil:
			appendTag(row["tag"])
		case row["s.name"] != nil:
			appendTag(row["s.name"])
		case row["name"] != nil:
			if name, ok := row["name"].(string); ok && containsDigit(name) {
				appendTag(name)
			}
		}

		if nested, ok := row["properties"].(map[string]any); ok {
			appendTag(nested["tag"])
		}
	}

	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
