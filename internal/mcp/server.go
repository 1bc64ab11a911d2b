package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/shapeshifter/internal/bot"
	shaperrors "github.com/Aman-CERP/shapeshifter/internal/errors"
	"github.com/Aman-CERP/shapeshifter/internal/loader"
	"github.com/Aman-CERP/shapeshifter/internal/markov"
	"github.com/Aman-CERP/shapeshifter/internal/telemetry"
	"github.com/Aman-CERP/shapeshifter/pkg/version"
)

// ServerName is the implementation name announced to clients.
const ServerName = "Shapeshifter"

// MaxSamples bounds the samples argument of the reply tool.
const MaxSamples = 100

// Engine is the part of the bot the server drives. *bot.Bot satisfies it.
type Engine interface {
	Reply(seed *string, n int) (markov.Sampling, error)
	Learn(ctx context.Context, text string, format loader.Format) (loader.Report, error)
	Execute(ctx context.Context, line string) (string, error)
	Status() bot.Status
	Prefix() string
	Commands() []string
}

// Server is the MCP server for Shapeshifter.
type Server struct {
	mcp     *mcp.Server
	engine  Engine
	metrics *telemetry.ReplyMetrics
	logger  *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

var tools = []ToolInfo{
	{
		Name:        "reply",
		Description: "Generate a sentence from the learned corpus, optionally built around a seed word. Several candidates are generated and the one with the highest entropy is returned.",
	},
	{
		Name:        "learn",
		Description: "Teach the bot new text. Sentences (or lines, for irc_log) are added to the knowledge base.",
	},
	{
		Name:        "command",
		Description: "Run a chat command such as 'order 2', 'hh', 'se 5', 'reinit' or 'list' and return the bot's answer.",
	},
	{
		Name:        "status",
		Description: "Report the size of the knowledge base and the current generation settings.",
	},
}

// NewServer creates a new MCP server around engine.
func NewServer(engine Engine) (*Server, error) {
	if engine == nil {
		return nil, errors.New("engine is required")
	}

	s := &Server{
		engine:  engine,
		metrics: telemetry.NewReplyMetrics(telemetry.DefaultConfig()),
		logger:  slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Metrics returns a snapshot of the reply statistics.
func (s *Server) Metrics() telemetry.Snapshot {
	return s.metrics.Snapshot()
}

// Info returns the server name and version.
func (s *Server) Info() (name, ver string) {
	return ServerName, version.Version
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

// CallTool invokes a tool by name with JSON-style arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case "reply":
		var in ReplyInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.handleReply(ctx, in)
	case "learn":
		var in LearnInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.handleLearn(ctx, in)
	case "command":
		var in CommandInput
		if err := decodeArgs(args, &in); err != nil {
			return nil, err
		}
		return s.handleCommand(ctx, in)
	case "status":
		return s.handleStatus(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func decodeArgs(args map[string]any, v any) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return NewInvalidParamsError(err.Error())
	}
	return nil
}

func (s *Server) handleReply(ctx context.Context, in ReplyInput) (ReplyOutput, error) {
	start := time.Now()
	requestID := uuid.NewString()

	var seed *string
	if trimmed := strings.TrimSpace(in.Seed); trimmed != "" {
		if strings.ContainsAny(trimmed, " \t\n") {
			return ReplyOutput{}, NewInvalidParamsError("seed must be a single word")
		}
		seed = &trimmed
	}
	if in.Samples < 0 {
		return ReplyOutput{}, NewInvalidParamsError("samples must not be negative")
	}
	if in.Samples > MaxSamples {
		return ReplyOutput{}, NewInvalidParamsError(fmt.Sprintf("samples must not exceed %d", MaxSamples))
	}

	s.logger.Debug("reply_started",
		slog.String("request_id", requestID),
		slog.Bool("seeded", seed != nil),
		slog.Int("samples", in.Samples))

	sampling, err := s.engine.Reply(seed, in.Samples)
	if err != nil {
		s.logger.Error("reply_failed",
			append([]any{slog.String("request_id", requestID)}, shaperrors.LogAttrs(err)...)...)
		return ReplyOutput{}, MapError(err)
	}

	out := ReplyOutput{
		Sentence:   sampling.Best.Sentence,
		Entropy:    sampling.Best.Entropy,
		Candidates: make([]Candidate, 0, len(sampling.Candidates)),
	}
	for _, c := range sampling.Candidates {
		out.Candidates = append(out.Candidates, Candidate{Sentence: c.Sentence, Entropy: c.Entropy})
	}

	event := telemetry.ReplyEvent{
		Entropy:    out.Entropy,
		Candidates: len(out.Candidates),
		Latency:    time.Since(start),
	}
	if seed != nil {
		event.Seed = *seed
		event.Echoed = sampling.Best.Echoed
	}
	s.metrics.Record(event)

	s.logger.Info("reply_completed",
		slog.String("request_id", requestID),
		slog.Int("candidates", len(out.Candidates)),
		slog.Int("entropy", out.Entropy),
		slog.Duration("duration", time.Since(start)))
	return out, nil
}

func (s *Server) handleLearn(ctx context.Context, in LearnInput) (LearnOutput, error) {
	requestID := uuid.NewString()

	if strings.TrimSpace(in.Text) == "" {
		return LearnOutput{}, NewInvalidParamsError("text parameter is required and must be non-empty")
	}
	format, err := loader.ParseFormat(in.Format)
	if err != nil {
		return LearnOutput{}, MapError(err)
	}

	report, err := s.engine.Learn(ctx, in.Text, format)
	if err != nil {
		s.logger.Warn("learn_failed",
			append([]any{slog.String("request_id", requestID)}, shaperrors.LogAttrs(err)...)...)
		return LearnOutput{}, MapError(err)
	}

	out := LearnOutput{
		Segments: report.Segments,
		Learned:  report.Learned,
		Tuples:   s.engine.Status().Tuples,
	}
	s.logger.Info("learn_completed",
		slog.String("request_id", requestID),
		slog.String("format", format.String()),
		slog.Int("segments", out.Segments),
		slog.Int("tuples", out.Tuples))
	return out, nil
}

func (s *Server) handleCommand(ctx context.Context, in CommandInput) (CommandOutput, error) {
	requestID := uuid.NewString()

	line := strings.TrimSpace(in.Line)
	if line == "" {
		return CommandOutput{}, NewInvalidParamsError("line parameter is required")
	}
	if !strings.HasPrefix(line, s.engine.Prefix()) {
		line = s.engine.Prefix() + line
	}

	reply, err := s.engine.Execute(ctx, line)
	if err != nil {
		s.logger.Warn("command_failed",
			append([]any{slog.String("request_id", requestID), slog.String("line", line)},
				shaperrors.LogAttrs(err)...)...)
		return CommandOutput{}, MapError(err)
	}

	s.logger.Info("command_completed",
		slog.String("request_id", requestID),
		slog.String("line", line))
	return CommandOutput{Reply: reply}, nil
}

func (s *Server) handleStatus(_ context.Context) (StatusOutput, error) {
	st := s.engine.Status()
	return StatusOutput{
		Order:        st.Order,
		Tuples:       st.Tuples,
		Tokens:       st.Tokens,
		Starters:     st.Starters,
		Finishers:    st.Finishers,
		Cautious:     st.Cautious,
		Compensation: st.Compensation,
		SampleSize:   st.SampleSize,
		Source:       st.Source,
		Format:       st.Format,
	}, nil
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in ReplyInput) (*mcp.CallToolResult, ReplyOutput, error) {
			out, err := s.handleReply(ctx, in)
			return nil, out, err
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in LearnInput) (*mcp.CallToolResult, LearnOutput, error) {
			out, err := s.handleLearn(ctx, in)
			return nil, out, err
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[2].Name, Description: tools[2].Description},
		func(ctx context.Context, _ *mcp.CallToolRequest, in CommandInput) (*mcp.CallToolResult, CommandOutput, error) {
			out, err := s.handleCommand(ctx, in)
			return nil, out, err
		})
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[3].Name, Description: tools[3].Description},
		func(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (*mcp.CallToolResult, StatusOutput, error) {
			out, err := s.handleStatus(ctx)
			return nil, out, err
		})

	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

// Serve runs the server on the given transport until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting", slog.String("transport", transport))

	switch transport {
	case "", "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return shaperrors.ConfigError(fmt.Sprintf("unknown transport: %s (supported: stdio)", transport), nil)
	}
}
