package mcpserver

import (
	"context"
	"strings"

	"kyoku-table/internal/agentgateway"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTableTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_table",
			mcp.WithDescription("Deal a new round. Seats are listed east to north; each is ai or remote"),
			mcp.WithArray("seats", mcp.Description("Four seat modes, default [remote, ai, ai, ai]"), mcp.WithStringItems()),
			mcp.WithString("dealer", mcp.Description("east|south|west|north, default east")),
			mcp.WithNumber("wall_seed", mcp.Description("Optional seed for a reproducible wall")),
		),
		s.handleCreateTable,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_tables",
			mcp.WithDescription("List hosted tables ordered by id"),
			mcp.WithString("status", mcp.Description("Optional filter: running|finished|failed")),
		),
		s.handleListTables,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_table",
			mcp.WithDescription("Get a table summary"),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("Table id")),
		),
		s.handleGetTable,
	)
}

func (s *Server) handleCreateTable(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := agentgateway.CreateTableRequest{
		Seats:  request.GetStringSlice("seats", nil),
		Dealer: strings.TrimSpace(request.GetString("dealer", "")),
	}
	if _, ok := request.GetArguments()["wall_seed"]; ok {
		seed := int64(request.GetFloat("wall_seed", 0))
		req.WallSeed = &seed
	}
	resp, err := s.coord.CreateTable(ctx, req)
	if err != nil {
		return gatewayError(err), nil
	}
	return toolResult(resp), nil
}

func (s *Server) handleListTables(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := request.GetString("status", "")
	items := make([]agentgateway.TableSummary, 0)
	for _, sum := range s.coord.ListTables() {
		if status != "" && sum.Status != status {
			continue
		}
		items = append(items, sum)
	}
	return toolResult(map[string]any{"items": items}), nil
}

func (s *Server) handleGetTable(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableID, err := request.RequireString("table_id")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	sum, err := s.coord.Table(tableID)
	if err != nil {
		return gatewayError(err), nil
	}
	return toolResult(sum), nil
}
