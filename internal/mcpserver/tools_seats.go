package mcpserver

import (
	"context"

	"kyoku-table/internal/agentgateway"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSeatTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_seat_state",
			mcp.WithDescription("Get the private view of a remote seat and its open requests"),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("Table id")),
			mcp.WithString("seat", mcp.Required(), mcp.Description("east|south|west|north")),
		),
		s.handleGetSeatState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_action",
			mcp.WithDescription("Answer an open request for a remote seat"),
			mcp.WithString("table_id", mcp.Required(), mcp.Description("Table id")),
			mcp.WithString("seat", mcp.Required(), mcp.Description("east|south|west|north")),
			mcp.WithString("kind", mcp.Required(), mcp.Description("discard|reach|tsumo|nine_kinds|closed_kan|added_kan|ron|open_kan|pon|chi|pass")),
			mcp.WithString("request_id", mcp.Description("Optional idempotency key")),
			mcp.WithNumber("index", mcp.Description("Hand index for discard and reach")),
			mcp.WithArray("indices", mcp.Description("Two hand indices for pon and chi"), mcp.WithNumberItems()),
			mcp.WithString("tile", mcp.Description("Tile for closed_kan and added_kan, e.g. 5m or 7z")),
		),
		s.handleSubmitAction,
	)
}

func (s *Server) handleGetSeatState(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableID, seat, errRes := seatArgs(request)
	if errRes != nil {
		return errRes, nil
	}
	st, err := s.coord.SeatState(tableID, seat)
	if err != nil {
		return gatewayError(err), nil
	}
	return toolResult(st), nil
}

func (s *Server) handleSubmitAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tableID, seat, errRes := seatArgs(request)
	if errRes != nil {
		return errRes, nil
	}
	kind, err := request.RequireString("kind")
	if err != nil {
		return toolError("invalid_request", err.Error()), nil
	}
	resp, err := s.coord.SubmitAction(ctx, tableID, seat, agentgateway.ActionRequest{
		RequestID: request.GetString("request_id", ""),
		Kind:      kind,
		Index:     request.GetInt("index", 0),
		Indices:   request.GetIntSlice("indices", nil),
		Tile:      request.GetString("tile", ""),
	})
	if err != nil {
		return gatewayError(err), nil
	}
	return toolResult(resp), nil
}

func seatArgs(request mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	tableID, err := request.RequireString("table_id")
	if err != nil {
		return "", "", toolError("invalid_request", err.Error())
	}
	seat, err := request.RequireString("seat")
	if err != nil {
		return "", "", toolError("invalid_request", err.Error())
	}
	return tableID, seat, nil
}
