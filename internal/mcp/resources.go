package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Resource URIs.
const (
	StatusURI   = "shapeshifter://status"
	CommandsURI = "shapeshifter://commands"
	MetricsURI  = "shapeshifter://metrics"
)

func (s *Server) registerResources() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "status",
			URI:         StatusURI,
			Description: "Knowledge base size and generation settings",
			MIMEType:    "application/json",
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.readStatus(ctx)
		},
	)
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "commands",
			URI:         CommandsURI,
			Description: "Chat commands understood by the command tool",
			MIMEType:    "text/plain",
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.readCommands(ctx)
		},
	)
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "metrics",
			URI:         MetricsURI,
			Description: "Reply statistics since the server started: seeds, echoes, entropy and latency",
			MIMEType:    "application/json",
		},
		func(ctx context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return s.readMetrics(ctx)
		},
	)
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	switch uri {
	case StatusURI:
		return s.readStatus(ctx)
	case CommandsURI:
		return s.readCommands(ctx)
	case MetricsURI:
		return s.readMetrics(ctx)
	default:
		return nil, NewResourceNotFoundError(uri)
	}
}

func (s *Server) readStatus(ctx context.Context) (*mcp.ReadResourceResult, error) {
	st, err := s.handleStatus(ctx)
	if err != nil {
		return nil, MapError(err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, MapError(err)
	}
	return textResult(StatusURI, "application/json", string(data)), nil
}

func (s *Server) readCommands(_ context.Context) (*mcp.ReadResourceResult, error) {
	var sb strings.Builder
	for _, name := range s.engine.Commands() {
		fmt.Fprintf(&sb, "%s%s\n", s.engine.Prefix(), name)
	}
	return textResult(CommandsURI, "text/plain", sb.String()), nil
}

func (s *Server) readMetrics(_ context.Context) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(s.metrics.Snapshot(), "", "  ")
	if err != nil {
		return nil, MapError(err)
	}
	return textResult(MetricsURI, "application/json", string(data)), nil
}

func textResult(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: mimeType,
				Text:     text,
			},
		},
	}
}
