// Package mcpserver exposes the lineup queries as Model Context Protocol
// tools so assistants can ask for scores and lineups directly.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/scrimhub/scrim-lineup/internal/application/query"
	"github.com/scrimhub/scrim-lineup/internal/interface/http/handlers"
	"github.com/scrimhub/scrim-lineup/pkg/logger"
)

// DefaultPath is where the streamable MCP endpoint is mounted.
const DefaultPath = "/mcp"

// Dependencies holds the query handlers backing the tools.
type Dependencies struct {
	PlayerScores    *query.PlayerScoresHandler
	RecommendLineup *query.RecommendLineupHandler
	Compositions    *query.CompositionHandler
	SavedLineups    *query.SavedLineupsHandler
	Logger          *logger.Logger
}

// ToolInfo describes a registered tool for the /tools listing.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Server is an MCP server with the lineup tools registered.
type Server struct {
	server *mcp.Server
	deps   Dependencies
	tools  []ToolInfo
	log    *logger.Logger
}

// ═══════════════════════════════════════════════════════════════════════════════
// TOOL ARGUMENTS
// ═══════════════════════════════════════════════════════════════════════════════

type PlayerScoresArgs struct {
	PlayerID         string `json:"player_id" jsonschema:"Player UUID (required)"`
	Side             string `json:"side,omitempty" jsonschema:"BLUE, RED or ALL (default ALL)"`
	LaneAllocation   string `json:"lane_allocation,omitempty" jsonschema:"STRONG_SIDE, WEAK_SIDE, BALANCED or ALL (default ALL)"`
	CompositionStyle string `json:"composition_style,omitempty" jsonschema:"ENGAGE, PICKUP, PROTECT, SIEGE, SPLITPUSH or ALL (default ALL)"`
}

type RecommendLineupArgs struct {
	PlayerIDs      []string                     `json:"player_ids" jsonschema:"Roster player UUIDs (required)"`
	Mode           string                       `json:"mode,omitempty" jsonschema:"quick or peak (default quick)"`
	CurrentFilters map[string]query.FilterInput `json:"current_filters,omitempty" jsonschema:"Per-role filters keyed by role name, quick mode only"`
}

type BuildCompositionArgs struct {
	Family    string   `json:"family" jsonschema:"Archetype family, e.g. ENGAGE (required)"`
	PlayerIDs []string `json:"player_ids" jsonschema:"Roster player UUIDs (required)"`
}

type RosterArgs struct {
	PlayerIDs []string `json:"player_ids" jsonschema:"Roster player UUIDs (required)"`
}

type SavedLineupArgs struct {
	Name string `json:"name" jsonschema:"Saved lineup name (required)"`
}

type NoArgs struct{}

// ═══════════════════════════════════════════════════════════════════════════════
// CONSTRUCTION
// ═══════════════════════════════════════════════════════════════════════════════

// New creates the MCP server and registers every tool.
func New(name, version string, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil),
		deps:   deps,
		log:    log.With(logger.Component("mcp")),
	}

	addTool(s, &mcp.Tool{
		Name:        "player_scores",
		Description: "Per-role score card of one player with the best filter per role",
	}, s.playerScores)
	addTool(s, &mcp.Tool{
		Name:        "recommend_lineup",
		Description: "Assign the roster to the five roles in quick or peak mode",
	}, s.recommendLineup)
	addTool(s, &mcp.Tool{
		Name:        "build_composition",
		Description: "Best lineup for one archetype family of the template catalog",
	}, s.buildComposition)
	addTool(s, &mcp.Tool{
		Name:        "rank_compositions",
		Description: "Build every archetype family and rank them by total score",
	}, s.rankCompositions)
	addTool(s, &mcp.Tool{
		Name:        "list_compositions",
		Description: "Archetype families and their role templates",
	}, s.listCompositions)
	addTool(s, &mcp.Tool{
		Name:        "get_saved_lineup",
		Description: "Load a saved lineup by name",
	}, s.getSavedLineup)

	return s
}

func addTool[T any](s *Server, tool *mcp.Tool, handler func(context.Context, *mcp.CallToolRequest, T) (*mcp.CallToolResult, any, error)) {
	s.tools = append(s.tools, ToolInfo{Name: tool.Name, Description: tool.Description})
	mcp.AddTool(s.server, tool, handler)
}

// Tools lists the registered tools in registration order.
func (s *Server) Tools() []ToolInfo {
	return append([]ToolInfo(nil), s.tools...)
}

// Handler serves the MCP endpoint at DefaultPath plus /health and /tools.
// A nil or disabled auth leaves the endpoints open.
func (s *Server) Handler(auth *handlers.APIKeyAuth) http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})

	protect := func(h http.Handler) http.Handler {
		if auth == nil {
			return h
		}
		return auth.Middleware(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /tools", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"tools": s.tools})
	})))
	mux.Handle(DefaultPath, protect(streamable))
	return mux
}

// ═══════════════════════════════════════════════════════════════════════════════
// TOOLS
// ═══════════════════════════════════════════════════════════════════════════════

func (s *Server) playerScores(ctx context.Context, _ *mcp.CallToolRequest, args PlayerScoresArgs) (*mcp.CallToolResult, any, error) {
	q := query.GetPlayerScoresQuery{PlayerID: args.PlayerID}
	if args.Side != "" || args.LaneAllocation != "" || args.CompositionStyle != "" {
		q.Filter = &query.FilterInput{
			Side:             args.Side,
			LaneAllocation:   args.LaneAllocation,
			CompositionStyle: args.CompositionStyle,
		}
	}
	card, err := s.deps.PlayerScores.Handle(ctx, q)
	return s.result("player_scores", card, err)
}

func (s *Server) recommendLineup(ctx context.Context, _ *mcp.CallToolRequest, args RecommendLineupArgs) (*mcp.CallToolResult, any, error) {
	a, err := s.deps.RecommendLineup.Handle(ctx, query.RecommendLineupQuery{
		PlayerIDs:      args.PlayerIDs,
		Mode:           query.RecommendMode(args.Mode),
		CurrentFilters: args.CurrentFilters,
	})
	return s.result("recommend_lineup", a, err)
}

func (s *Server) buildComposition(ctx context.Context, _ *mcp.CallToolRequest, args BuildCompositionArgs) (*mcp.CallToolResult, any, error) {
	a, err := s.deps.Compositions.Build(ctx, query.BuildCompositionQuery{
		Family:    args.Family,
		PlayerIDs: args.PlayerIDs,
	})
	return s.result("build_composition", a, err)
}

func (s *Server) rankCompositions(ctx context.Context, _ *mcp.CallToolRequest, args RosterArgs) (*mcp.CallToolResult, any, error) {
	ranked, err := s.deps.Compositions.Rank(ctx, query.RankCompositionsQuery{PlayerIDs: args.PlayerIDs})
	return s.result("rank_compositions", ranked, err)
}

func (s *Server) listCompositions(_ context.Context, _ *mcp.CallToolRequest, _ NoArgs) (*mcp.CallToolResult, any, error) {
	return s.result("list_compositions", s.deps.Compositions.List(), nil)
}

func (s *Server) getSavedLineup(ctx context.Context, _ *mcp.CallToolRequest, args SavedLineupArgs) (*mcp.CallToolResult, any, error) {
	saved, err := s.deps.SavedLineups.Get(ctx, args.Name)
	return s.result("get_saved_lineup", saved, err)
}

// result renders v as indented JSON text. Handler errors become tool errors
// so the client sees the message instead of a protocol failure.
func (s *Server) result(tool string, v any, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		s.log.Debug("tool call failed", logger.String("tool", tool), logger.Err(err))
		return toolError(err), nil, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(fmt.Errorf("encode %s result: %w", tool, err)), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)}},
	}
}
