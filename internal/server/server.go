package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ironsheep/labelscore-mcp/internal/imaging"
	"github.com/ironsheep/labelscore-mcp/internal/label"
	"github.com/ironsheep/labelscore-mcp/internal/labeling"
	"github.com/ironsheep/labelscore-mcp/internal/ocr"
	"github.com/ironsheep/labelscore-mcp/internal/preferences"
	"github.com/ironsheep/labelscore-mcp/internal/scoring"
)

// DefaultVersion is reported in serverInfo when Options.Version is empty.
const DefaultVersion = "0.1.0"

// DefaultConcurrency bounds score_batch when Options.Concurrency is unset.
const DefaultConcurrency = 4

// Server handles MCP protocol communication
type Server struct {
	cache       *imaging.ImageCache
	predictor   *scoring.Predictor
	store       preferences.Store
	reader      *label.Reader
	ocrInfo     func() ocr.OCRInfo
	weights     labeling.Weights
	concurrency int
	logger      *slog.Logger
	version     string
}

// Options wires the server's collaborators. Only Store is required; a nil
// Predictor disables the scoring tools and a nil Reader disables label OCR.
type Options struct {
	Predictor   *scoring.Predictor
	Store       preferences.Store
	Reader      *label.Reader
	OCRInfo     func() ocr.OCRInfo
	Weights     labeling.Weights
	Concurrency int
	Logger      *slog.Logger
	Version     string
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance
func New(opts Options) *Server {
	s := &Server{
		cache:       imaging.NewImageCache(),
		predictor:   opts.Predictor,
		store:       opts.Store,
		reader:      opts.Reader,
		ocrInfo:     opts.OCRInfo,
		weights:     opts.Weights,
		concurrency: opts.Concurrency,
		logger:      opts.Logger,
		version:     opts.Version,
	}
	if s.store == nil {
		s.store = preferences.NewMemoryStore()
	}
	if s.weights == (labeling.Weights{}) {
		s.weights = labeling.DefaultWeights
	}
	if s.concurrency < 1 {
		s.concurrency = DefaultConcurrency
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.version == "" {
		s.version = DefaultVersion
	}
	if s.ocrInfo == nil {
		s.ocrInfo = func() ocr.OCRInfo {
			return ocr.OCRInfo{Available: s.reader != nil, Backend: "none"}
		}
	}
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve processes newline-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted or ctx is cancelled. Cancellation
// returns immediately even while r is blocked; the pending read is abandoned.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines, scanErr := scanLines(ctx, r)
	encoder := json.NewEncoder(w)

	for {
		var line []byte
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-lines:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := <-scanErr; err != nil {
					return fmt.Errorf("scanner error: %w", err)
				}
				return nil
			}
			line = l
		}

		if err := ctx.Err(); err != nil {
			return err
		}
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", "error", err)
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", "error", err)
			}
		}
	}
}

// scanLines reads r line by line on its own goroutine. The lines channel is
// closed once reading stops; scanErr then holds the scanner error, if any.
func scanLines(ctx context.Context, r io.Reader) (<-chan []byte, <-chan error) {
	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(r)
		// Label photos arrive base64-encoded, so allow large request lines.
		buf := make([]byte, 0, 64*1024)
		scanner.Buffer(buf, 32*1024*1024)

		for scanner.Scan() {
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				scanErr <- nil
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	return lines, scanErr
}

// Close releases the scoring model.
func (s *Server) Close() error {
	if s.predictor == nil {
		return nil
	}
	return s.predictor.Close()
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "labelscore-mcp",
				"version": s.version,
			},
		},
	}
}
