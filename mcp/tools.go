package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/poiesic/fingerprint/core"
)

const (
	maxTopK   = 100
	maxTopics = 1000
)

func (s *Server) registerTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "recommend_researchers",
		Description: "Find the researchers whose expertise best matches a research topic. The topic is matched exactly, then as a substring, then approximately; if nothing matches, close topic names are suggested.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"topic": {"type": "string", "description": "Research topic to match"},
				"topk": {"type": "integer", "description": "Number of researchers to return, 1 to 100 (default 10)"},
				"model": {"type": "string", "enum": ["bert", "xlnet", "albert", "distilbert", "mpnet"], "description": "Embedding model (default mpnet)"},
				"metric": {"type": "string", "description": "Similarity metric: cosine, hamming, kl, minkowski or jaccard (default cosine, unknown names use cosine)"}
			},
			"required": ["topic"]
		}`),
	}, s.handleRecommend)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "suggest_topics",
		Description: "Suggest known research topics resembling the given text.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"text": {"type": "string", "description": "Partial or misspelled topic name"},
				"k": {"type": "integer", "description": "Maximum number of suggestions (default 5)"},
				"model": {"type": "string", "description": "Embedding model whose profile to use (default mpnet)"}
			},
			"required": ["text"]
		}`),
	}, s.handleSuggest)

	s.mcp.AddTool(&gomcp.Tool{
		Name:        "list_topics",
		Description: "List the known research topics in alphabetical order.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"limit": {"type": "integer", "description": "Maximum number of topics (default 1000)"},
				"model": {"type": "string", "description": "Embedding model whose profile to use (default mpnet)"}
			}
		}`),
	}, s.handleListTopics)
}

func (s *Server) handleRecommend(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Topic  string `json:"topic"`
		TopK   int    `json:"topk"`
		Model  string `json:"model"`
		Metric string `json:"metric"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if strings.TrimSpace(args.Topic) == "" {
		return toolError("topic is required"), nil
	}
	if args.TopK == 0 {
		args.TopK = 10
	}
	if args.TopK < 1 || args.TopK > maxTopK {
		return toolError("topk must be between 1 and %d", maxTopK), nil
	}

	resp, err := s.engine.Recommend(ctx, s.model(args.Model), core.Query{
		Topic:  args.Topic,
		TopK:   args.TopK,
		Metric: args.Metric,
	})
	if err != nil {
		return s.engineError(err), nil
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: formatResponse(resp)}},
	}, nil
}

func (s *Server) handleSuggest(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Text  string `json:"text"`
		K     int    `json:"k"`
		Model string `json:"model"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}
	if args.K <= 0 {
		args.K = 5
	}

	suggestions, err := s.engine.Suggest(ctx, s.model(args.Model), args.Text, args.K)
	if err != nil {
		return s.engineError(err), nil
	}
	if len(suggestions) == 0 {
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: "No similar topics found."}},
		}, nil
	}
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: strings.Join(suggestions, "\n")}},
	}, nil
}

func (s *Server) handleListTopics(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Limit int    `json:"limit"`
		Model string `json:"model"`
	}
	if len(req.Params.Arguments) > 0 {
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return toolError("invalid arguments: %v", err), nil
		}
	}
	if args.Limit <= 0 || args.Limit > maxTopics {
		args.Limit = maxTopics
	}

	topics, err := s.engine.Topics(ctx, s.model(args.Model), args.Limit)
	if err != nil {
		return s.engineError(err), nil
	}
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{
			Text: fmt.Sprintf("%d topics:\n%s", len(topics), strings.Join(topics, "\n")),
		}},
	}, nil
}

func (s *Server) model(name string) string {
	if strings.TrimSpace(name) == "" {
		return s.defaultModel
	}
	return name
}

func (s *Server) engineError(err error) *gomcp.CallToolResult {
	var noMatch *core.NoMatchError
	if errors.As(err, &noMatch) {
		if len(noMatch.Suggestions) == 0 {
			return toolError("no topic matches %q", noMatch.Query)
		}
		return toolError("no topic matches %q. Did you mean: %s?",
			noMatch.Query, strings.Join(noMatch.Suggestions, ", "))
	}
	s.logger.Error("tool call failed", "err", err)
	return toolError("%v", err)
}

func formatResponse(resp *core.Response) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic %q matched %q (%s match). Scored %d researchers with %s using model %s.\n\n",
		resp.QueryTopic, resp.MatchedTopic, resp.MatchStage, resp.TotalCandidates, resp.Metric, resp.Model)

	for i, r := range resp.Results {
		fmt.Fprintf(&sb, "%d. %s", i+1, r.Researcher)
		if r.Field != nil {
			fmt.Fprintf(&sb, " [%s]", *r.Field)
		}
		fmt.Fprintf(&sb, " score=%.4f", r.Score)
		if len(r.TopTopics) > 0 {
			fmt.Fprintf(&sb, "\n   %s", strings.Join(r.TopTopics, "; "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func toolError(format string, args ...any) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
