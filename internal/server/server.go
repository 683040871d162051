package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ironsheep/ballot-interpreter/internal/election"
	"github.com/ironsheep/ballot-interpreter/internal/imaging"
	"github.com/ironsheep/ballot-interpreter/internal/interpret"
	"github.com/ironsheep/ballot-interpreter/internal/ocr"
	"github.com/ironsheep/ballot-interpreter/internal/store"
	"github.com/ironsheep/ballot-interpreter/pkg/logger"
)

// DefaultMarkThreshold is the fill score at which a stored summary counts
// an oval as marked.
const DefaultMarkThreshold = 0.5

// Server handles MCP protocol communication
type Server struct {
	cache         *imaging.Cache
	interpretOpts []interpret.Option
	store         *store.Store
	ocr           *ocr.Reader
	markThreshold float64
	version       string
	log           logger.Logger
	in            io.Reader
	out           io.Writer

	mu        sync.Mutex
	elections map[string]*election.Election
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

// Option configures a Server.
type Option func(*Server)

// WithInterpretOptions sets the options every interpretation starts from.
func WithInterpretOptions(opts ...interpret.Option) Option {
	return func(s *Server) { s.interpretOpts = append(s.interpretOpts, opts...) }
}

// WithStore keeps a summary of every interpreted card.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithOCR sets the reader used by the OCR tool.
func WithOCR(r *ocr.Reader) Option {
	return func(s *Server) {
		if r != nil {
			s.ocr = r
		}
	}
}

// WithMarkThreshold sets the fill score stored summaries count as marked.
func WithMarkThreshold(t float64) Option {
	return func(s *Server) { s.markThreshold = t }
}

// WithVersion sets the version reported on initialize.
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) { s.in, s.out = in, out }
}

// New creates a new MCP server instance
func New(opts ...Option) *Server {
	s := &Server{
		cache:         imaging.NewCache(),
		ocr:           ocr.NewReader(ocr.DefaultLanguage, 0.5),
		markThreshold: DefaultMarkThreshold,
		version:       "dev",
		log:           logger.Nop(),
		in:            os.Stdin,
		out:           os.Stdout,
		elections:     make(map[string]*election.Election),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads one request per line until the input ends or ctx is done.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// scanned pages arrive base64 encoded
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 64*1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn(ctx, "failed to parse request", logger.Error(err))
			if err := encoder.Encode(s.errorResponse(nil, -32700, "Parse error", err.Error())); err != nil {
				s.log.Error(ctx, "failed to encode response", logger.Error(err))
			}
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.Error(ctx, "failed to encode response", logger.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
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
		return s.errorResponse(req.ID, -32601, fmt.Sprintf("Method not found: %s", req.Method), "")
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
				"name":    "ballot-interpreter",
				"version": s.version,
			},
		},
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	e := &MCPError{Code: code, Message: message}
	if data != "" {
		e.Data = data
	}
	return &MCPResponse{JSONRPC: "2.0", ID: id, Error: e}
}

// loadElection reads an election definition once per path.
func (s *Server) loadElection(path string) (*election.Election, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.elections[path]; ok {
		return e, nil
	}
	e, err := election.Load(path)
	if err != nil {
		return nil, err
	}
	s.elections[path] = e
	return e, nil
}
