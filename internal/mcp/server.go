/*
Package mcp implements the MCP server that exposes the search and
learning meta-tools.

The server uses stdio transport and exposes 6 meta-tools:
  - search_code: Hybrid code search with adaptive reranking
  - submit_feedback: Report result relevance to drive weight adaptation
  - learning_stats: Inspect adaptive weights and accuracy statistics
  - model_save: Checkpoint the current weights as a new model version
  - model_rollback: Restore the weights of an earlier model version
  - model_history: List all saved model versions
*/
package mcp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kkkqkx123/codebase-index-mcp/internal/config"
	"github.com/kkkqkx123/codebase-index-mcp/internal/learning"
	"github.com/kkkqkx123/codebase-index-mcp/internal/logging"
	"github.com/kkkqkx123/codebase-index-mcp/internal/search"
	"github.com/kkkqkx123/codebase-index-mcp/internal/storage"
	"github.com/kkkqkx123/codebase-index-mcp/internal/version"
)

// Server represents the codebase-index-mcp MCP server.
type Server struct {
	config     *config.Config
	indexer    *search.Indexer
	embeddings *search.EmbeddingModel
	reranker   *search.Reranker
	learning   *learning.Service
	store      storage.Storage
	log        *logrus.Entry
}

// NewServer creates a new MCP server wired to the given components.
// embeddings and store may be nil; the corresponding features degrade.
func NewServer(cfg *config.Config, indexer *search.Indexer, embeddings *search.EmbeddingModel, reranker *search.Reranker, svc *learning.Service, store storage.Storage) *Server {
	return &Server{
		config:     cfg,
		indexer:    indexer,
		embeddings: embeddings,
		reranker:   reranker,
		learning:   svc,
		store:      store,
		log:        logging.Component("mcp"),
	}
}

// Run starts the MCP server using stdio transport.
// This blocks until stdin is closed.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		response, err := s.handleRequest(line)
		if err != nil {
			s.sendError(err)
			continue
		}

		if response != nil {
			s.sendResponse(response)
		}
	}

	return scanner.Err()
}

// MCPRequest represents an incoming MCP JSON-RPC request.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing MCP JSON-RPC response.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents an MCP error.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleRequest processes an incoming MCP request.
func (s *Server) handleRequest(data []byte) (*MCPResponse, error) {
	var req MCPRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC request: %w", err)
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(&req)
	case "tools/list":
		return s.handleToolsList(&req)
	case "tools/call":
		return s.handleToolsCall(&req)
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32601, Message: "Method not found"},
		}, nil
	}
}

// handleInitialize handles the MCP initialize request.
func (s *Server) handleInitialize(req *MCPRequest) (*MCPResponse, error) {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "codebase-index-mcp",
				"version": version.Version,
			},
		},
	}, nil
}

// handleToolsList returns the list of available meta-tools.
func (s *Server) handleToolsList(req *MCPRequest) (*MCPResponse, error) {
	tools := []map[string]interface{}{
		{
			"name": "search_code",
			"description": `Search the indexed codebase using hybrid keyword + semantic search.

Results are reranked by feature weights learned from past feedback.
Each result lists its per-channel feature scores; pass a result's id
to submit_feedback to improve future rankings.`,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Natural language or keyword search query",
					},
					"limit": map[string]interface{}{
						"type":        "number",
						"description": "Maximum number of results (default from config)",
					},
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Restrict results to a single language (e.g. go, python)",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			"name": "submit_feedback",
			"description": `Report how relevant a search result was for a query.

Relevance is a score in [0, 1]: 1.0 means the result answered the query,
0.0 means it was useless. Feedback is buffered and committed in batches;
each committed batch adapts the ranking weights.`,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "The query the result was served for",
					},
					"resultId": map[string]interface{}{
						"type":        "string",
						"description": "The id of the result being rated",
					},
					"relevance": map[string]interface{}{
						"type":        "number",
						"description": "Relevance score in [0, 1]",
					},
				},
				"required": []string{"query", "resultId", "relevance"},
			},
		},
		{
			"name": "learning_stats",
			"description": `Show the current adaptive weights, model version, feedback counters
and accuracy trend.`,
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			"name": "model_save",
			"description": `Checkpoint the current adaptive weights as a new model version.
Returns the new version id.`,
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			"name": "model_rollback",
			"description": `Restore the adaptive weights of an earlier model version.
The version history is preserved; only the current pointer moves.`,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"version": map[string]interface{}{
						"type":        "string",
						"description": "Version id to roll back to (see model_history)",
					},
				},
				"required": []string{"version"},
			},
		},
		{
			"name": "model_history",
			"description": `List all saved model versions with their weights and timestamps.`,
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": tools,
		},
	}, nil
}

// handleToolsCall handles tool execution requests.
func (s *Server) handleToolsCall(req *MCPRequest) (*MCPResponse, error) {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	var result interface{}
	var err error

	switch params.Name {
	case "search_code":
		query, _ := params.Arguments["query"].(string)
		limit := intArg(params.Arguments, "limit", s.config.Search.ResultLimit)
		language, _ := params.Arguments["language"].(string)
		result, err = s.execSearchCode(query, limit, language)
	case "submit_feedback":
		query, _ := params.Arguments["query"].(string)
		resultID, _ := params.Arguments["resultId"].(string)
		relevance, _ := params.Arguments["relevance"].(float64)
		result, err = s.execSubmitFeedback(query, resultID, relevance)
	case "learning_stats":
		result, err = s.execLearningStats()
	case "model_save":
		result, err = s.execModelSave()
	case "model_rollback":
		versionID, _ := params.Arguments["version"].(string)
		result, err = s.execModelRollback(versionID)
	case "model_history":
		result, err = s.execModelHistory()
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32602, Message: fmt.Sprintf("Unknown tool: %s", params.Name)},
		}, nil
	}

	if err != nil {
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32000, Message: err.Error()},
		}, nil
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}, nil
}

// intArg extracts an integer argument, falling back to def.
func intArg(args map[string]interface{}, key string, def int) int {
	if raw, ok := args[key].(float64); ok && raw > 0 {
		return int(raw)
	}
	return def
}

// execSearchCode runs a hybrid search and reranks by adaptive weights.
func (s *Server) execSearchCode(query string, limit int, language string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query must not be empty")
	}

	fusion := search.FusionConfig{
		SemanticWeight: s.config.Search.SemanticWeight,
		KeywordWeight:  s.config.Search.KeywordWeight,
	}

	var results []search.SearchResult
	var err error
	if language != "" {
		results, err = s.indexer.SearchByLanguage(query, language, limit)
	} else {
		results, err = s.indexer.SearchHybrid(query, limit, fusion, s.embeddings)
	}
	if err != nil {
		return "", fmt.Errorf("search failed: %w", err)
	}

	if s.reranker != nil {
		results = s.reranker.Rerank(query, results)
	}

	s.recordSearch(query, len(results))

	if len(results) == 0 {
		return fmt.Sprintf("No results for '%s'.", query), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Results for '%s' (%d):\n", query, len(results)))
	for i, r := range results {
		sb.WriteString(fmt.Sprintf("%d. %s", i+1, r.Path))
		if r.Symbol != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", r.Symbol))
		}
		sb.WriteString(fmt.Sprintf(" [score %.3f, id %s]\n", r.Score, r.ID))
		if r.Snippet != "" {
			sb.WriteString("   " + strings.ReplaceAll(r.Snippet, "\n", " ") + "\n")
		}
	}
	sb.WriteString("\nUse submit_feedback with a result id to improve future rankings.")
	return sb.String(), nil
}

// recordSearch persists a search analytics record; failures degrade.
func (s *Server) recordSearch(query string, resultsCount int) {
	if s.store == nil {
		return
	}
	record := storage.SearchRecord{
		SearchID:     uuid.NewString(),
		QueryHash:    storage.HashQuery(query),
		Timestamp:    time.Now(),
		ResultsCount: resultsCount,
	}
	if err := s.store.RecordSearch(record); err != nil {
		s.log.Warnf("failed to record search: %v", err)
	}
}

// execSubmitFeedback queues a relevance rating for the learning loop.
func (s *Server) execSubmitFeedback(query, resultID string, relevance float64) (string, error) {
	event, err := learning.NewFeedbackEvent(query, resultID, relevance)
	if err != nil {
		return "", err
	}

	if err := s.learning.CollectFeedback(event); err != nil {
		return "", fmt.Errorf("failed to collect feedback: %w", err)
	}

	pending := s.learning.PendingFeedback()
	return fmt.Sprintf("Feedback recorded for %s (relevance %.2f). %d event(s) pending in current batch.",
		resultID, relevance, pending), nil
}

// execLearningStats reports the live weights and accuracy counters.
func (s *Server) execLearningStats() (string, error) {
	weights := s.learning.GetAdaptiveWeights()
	snapshot := s.learning.PerformanceMonitoring()

	var sb strings.Builder
	sb.WriteString("Learning status:\n")
	if s.learning.IsEnabled() {
		sb.WriteString("  enabled: true\n")
	} else {
		sb.WriteString("  enabled: false\n")
	}

	if current, ok := s.learning.CurrentVersion(); ok {
		sb.WriteString(fmt.Sprintf("  model version: %s\n", current.VersionID))
	} else {
		sb.WriteString("  model version: (none saved)\n")
	}

	sb.WriteString("  weights:\n")
	for _, feature := range s.learning.Features() {
		sb.WriteString(fmt.Sprintf("    %s: %.4f\n", feature, weights[feature]))
	}

	sb.WriteString(fmt.Sprintf("  feedback: %d total (%d positive, %d negative)\n",
		snapshot.TotalFeedback, snapshot.PositiveFeedback, snapshot.NegativeFeedback))
	sb.WriteString(fmt.Sprintf("  model accuracy: %.4f\n", snapshot.ModelAccuracy))
	sb.WriteString(fmt.Sprintf("  pending feedback: %d\n", s.learning.PendingFeedback()))
	return sb.String(), nil
}

// execModelSave checkpoints the current weights.
func (s *Server) execModelSave() (string, error) {
	saved, err := s.learning.SaveModel()
	if err != nil {
		return "", fmt.Errorf("failed to save model: %w", err)
	}
	return fmt.Sprintf("Saved model version %s.", saved.VersionID), nil
}

// execModelRollback restores an earlier version's weights.
func (s *Server) execModelRollback(versionID string) (string, error) {
	if versionID == "" {
		return "", fmt.Errorf("version must not be empty")
	}
	if !s.learning.RollbackToVersion(versionID) {
		return "", fmt.Errorf("version '%s' not found", versionID)
	}
	return fmt.Sprintf("Rolled back to model version %s.", versionID), nil
}

// execModelHistory lists all saved versions.
func (s *Server) execModelHistory() (string, error) {
	history := s.learning.ModelHistory()
	if len(history) == 0 {
		return "No model versions saved yet. Use model_save to create one.", nil
	}

	current, hasCurrent := s.learning.CurrentVersion()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Model versions (%d):\n", len(history)))
	for _, v := range history {
		marker := "  "
		if hasCurrent && v.VersionID == current.VersionID {
			marker = "* "
		}
		sb.WriteString(fmt.Sprintf("%s%s (%s)\n", marker, v.VersionID,
			v.CreatedAt.Format("2006-01-02 15:04:05")))
	}
	return sb.String(), nil
}

// sendResponse writes a JSON-RPC response to stdout.
func (s *Server) sendResponse(resp *MCPResponse) {
	data, _ := json.Marshal(resp)
	fmt.Println(string(data))
}

// sendError writes an error response to stdout.
func (s *Server) sendError(err error) {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      nil,
		Error:   &MCPError{Code: -32700, Message: err.Error()},
	}
	s.sendResponse(resp)
}
