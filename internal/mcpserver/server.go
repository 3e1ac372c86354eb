// Package mcpserver exposes kyoku tables as MCP tools so that model-driven
// agents can sit at a table without speaking the websocket protocol.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"kyoku-table/internal/agentgateway"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "kyoku-table"
	serverVersion = "0.1.0"
)

type Server struct {
	coord *agentgateway.Coordinator

	mcpServer  *server.MCPServer
	httpServer *server.StreamableHTTPServer
}

func New(coord *agentgateway.Coordinator) *Server {
	mcpSrv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithRecovery(),
		server.WithResourceRecovery(),
	)
	s := &Server{
		coord:      coord,
		mcpServer:  mcpSrv,
		httpServer: server.NewStreamableHTTPServer(mcpSrv, server.WithStateLess(true), server.WithDisableStreaming(true)),
	}
	s.registerTableTools()
	s.registerSeatTools()
	s.registerResources()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.httpServer
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"table://{table_id}/public_state",
			"table_public_state",
			mcp.WithTemplateDescription("Public summary of a table: state, dealer, last event sequence and outcome"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.readPublicState,
	)
}

func (s *Server) readPublicState(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	raw := request.Params.URI
	tableID, ok := parseTableURI(raw)
	if !ok {
		return nil, fmt.Errorf("unsupported resource uri %q", raw)
	}
	sum, err := s.coord.Table(tableID)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(sum)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      raw,
			MIMEType: "application/json",
			Text:     string(payload),
		},
	}, nil
}

func parseTableURI(raw string) (string, bool) {
	if !strings.HasPrefix(raw, "table://") || !strings.HasSuffix(raw, "/public_state") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(raw, "table://"), "/public_state")
	return id, id != "" && !strings.Contains(id, "/")
}
