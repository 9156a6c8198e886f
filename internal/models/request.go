package models

import (
	"time"

	"github.com/google/uuid"
)

type QueryMode string

const (
	QueryModeGlobal     QueryMode = "global"
	QueryModeContextual QueryMode = "contextual"
)

// ScopeHint names a node in the plant hierarchy that constrains graph
// retrieval. It is a retrieval hint, never a security boundary.
type ScopeHint struct {
	NodeType   string `json:"node_type"`
	NodeName   string `json:"node_name"`
	Plant      string `json:"plant,omitempty"`
	Area       string `json:"area,omitempty"`
	Equipment  string `json:"equipment,omitempty"`
	ScopeDepth int    `json:"scope_depth,omitempty"` // 1..3 hops
	Breadcrumb string `json:"breadcrumb,omitempty"`
}

type QueryRequest struct {
	Question string     `json:"query" binding:"required"`
	Context  *ScopeHint `json:"context,omitempty"`
	Mode     QueryMode  `json:"mode,omitempty"`
}

// RunResult is the coordinator's HTTP-free return value.
type RunResult struct {
	Answer string         `json:"answer"`
	Trace  ExecutionTrace `json:"trace"`
	Errors []string       `json:"errors"`
}

// QueryResponse is the JSON envelope the HTTP adapter serializes.
type QueryResponse struct {
	Query          string           `json:"query"`
	Response       string           `json:"response"`
	Data           []map[string]any `json:"data"`
	Source         string           `json:"source"`
	Timestamp      time.Time        `json:"timestamp"`
	ContextUsed    *ScopeHint       `json:"context_used,omitempty"`
	ExecutionTrace ExecutionTrace   `json:"execution_trace"`
	Errors         []string         `json:"errors"`
}

const ResponseSourceMultiAgent = "multi-agent"

func NewQueryResponse(question string, result *RunResult, scope *ScopeHint) *QueryResponse {
	return &QueryResponse{
		Query:          question,
		Response:       result.Answer,
		Data:           nil,
		Source:         ResponseSourceMultiAgent,
		Timestamp:      time.Now(),
		ContextUsed:    scope,
		ExecutionTrace: result.Trace,
		Errors:         result.Errors,
	}
}

func GenerateRequestID() string {
	return uuid.New().String()
}
