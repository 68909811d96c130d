// Package api serves the calculator to browser front ends over JSON-RPC 2.0,
// both as plain HTTP POSTs and over a WebSocket, plus a few REST routes.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"

	"pwmcalc/pkg/errors"
	"pwmcalc/pkg/log"
	"pwmcalc/pkg/metrics"
	"pwmcalc/pkg/pool"
)

// Version is reported by server.info.
const Version = "1.0.0"

// Server is the calculator API server.
type Server struct {
	addrMu     sync.RWMutex
	addr       string
	httpServer *http.Server
	handler    http.Handler
	metrics    *metrics.CalcMetrics
	logger     *log.Logger

	wsUpgrader websocket.Upgrader
	wsClients  map[int64]*WSClient
	wsClientMu sync.RWMutex
	nextWSID   int64

	running   atomic.Bool
	startTime time.Time
}

// Config holds server configuration.
type Config struct {
	// Addr to listen on, e.g. ":7125"
	Addr string

	// Metrics receives request counts. Nil uses metrics.GlobalMetrics.
	Metrics *metrics.CalcMetrics
}

// New creates a server. Routes are ready before Start, so Handler can be
// mounted elsewhere.
func New(cfg Config) *Server {
	s := &Server{
		addr:      cfg.Addr,
		metrics:   cfg.Metrics,
		logger:    log.GetLogger("api"),
		wsClients: make(map[int64]*WSClient),
		startTime: time.Now(),
	}
	if s.metrics == nil {
		s.metrics = metrics.GlobalMetrics()
	}
	s.wsUpgrader = websocket.Upgrader{
		// The UI may be served from anywhere, e.g. a dev server.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/jsonrpc", s.handleJSONRPC)
	mux.HandleFunc("/websocket", s.handleWebSocket)
	mux.HandleFunc("/server/info", s.restGet("server.info"))
	mux.HandleFunc("/calc/timers", s.restGet("calc.timers"))
	mux.HandleFunc("/calc/presets", s.restGet("calc.presets"))
	mux.HandleFunc("/calc/conventions", s.restGet("calc.conventions"))
	mux.HandleFunc("/calc/resolutions", s.restPost("calc.resolutions"))
	mux.HandleFunc("/calc/dynamic", s.restPost("calc.dynamic"))
	mux.HandleFunc("/calc/render", s.restPost("calc.render"))
	s.handler = s.corsMiddleware(mux)
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address, resolved once serving.
func (s *Server) Addr() string {
	s.addrMu.RLock()
	defer s.addrMu.RUnlock()
	return s.addr
}

// Start listens on the configured address and serves until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return pkgerrors.Wrap(err, "api server")
	}
	return s.Serve(ln)
}

// Serve serves on ln until Stop.
func (s *Server) Serve(ln net.Listener) error {
	s.addrMu.Lock()
	s.addr = ln.Addr().String()
	s.addrMu.Unlock()
	s.running.Store(true)
	s.logger.Info("API server listening on %s", ln.Addr())

	err := s.httpServer.Serve(ln)
	if err != nil && err != http.ErrServerClosed {
		return pkgerrors.Wrap(err, "api server")
	}
	return nil
}

// Stop disconnects WebSocket clients and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.running.Store(false)

	s.wsClientMu.Lock()
	for _, client := range s.wsClients {
		client.Close()
		s.metrics.WebSocketClients.Dec(nil)
	}
	s.wsClients = make(map[int64]*WSClient)
	s.wsClientMu.Unlock()

	return s.httpServer.Shutdown(ctx)
}

// ClientCount returns the number of connected WebSocket clients.
func (s *Server) ClientCount() int {
	s.wsClientMu.RLock()
	defer s.wsClientMu.RUnlock()
	return len(s.wsClients)
}

// JSON-RPC 2.0 structures

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

type jsonRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

type jsonRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  any           `json:"result,omitempty"`
	Error   *jsonRPCError `json:"error,omitempty"`
	ID      any           `json:"id,omitempty"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	// Data lists the HostErrors behind the failure.
	Data []*errors.HostError `json:"data,omitempty"`
}

// call runs one method with panic recovery and request accounting.
func (s *Server) call(method string, params json.RawMessage) (result any, rerr *jsonRPCError) {
	start := time.Now()
	defer func() {
		if he := errors.RecoverPanic(recover()); he != nil {
			s.logger.WithError(he).WithField("method", method).Error("method panicked")
			result, rerr = nil, &jsonRPCError{Code: codeServerError, Message: he.Message}
		}
		outcome := "ok"
		if rerr != nil {
			outcome = strconv.Itoa(rerr.Code)
		}
		s.metrics.RecordRequest(method, outcome, time.Since(start))
	}()

	res, err := s.dispatchMethod(method, params)
	if err != nil {
		return nil, s.rpcError(method, err)
	}
	return res, nil
}

// rpcError maps HostError codes onto JSON-RPC error codes.
func (s *Server) rpcError(method string, err error) *jsonRPCError {
	all := errors.All(err)
	e := &jsonRPCError{Code: codeServerError, Message: err.Error(), Data: all}
	switch {
	case errors.Is(err, errors.ErrAPIMethod):
		e.Code = codeMethodNotFound
		e.Data = nil
	case errors.IsInput(err):
		e.Code = codeInvalidParams
		for _, he := range all {
			s.metrics.RecordValidationError(string(he.Code))
		}
	case errors.Is(err, errors.ErrAPIParams):
		e.Code = codeInvalidParams
	default:
		s.logger.WithError(err).WithField("method", method).Warn("method failed")
	}
	if len(all) > 1 {
		e.Message = strconv.Itoa(len(all)) + " invalid parameters"
	} else if len(all) == 1 {
		e.Message = all[0].Message
	}
	return e
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req jsonRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusOK, errorResponse(nil, codeParseError, "Parse error"))
		return
	}
	s.writeJSON(w, http.StatusOK, s.respond(req))
}

// respond answers a decoded request.
func (s *Server) respond(req jsonRPCRequest) jsonRPCResponse {
	if req.JSONRPC != "2.0" || req.Method == "" {
		return errorResponse(req.ID, codeInvalidRequest, "Invalid Request")
	}
	result, rerr := s.call(req.Method, req.Params)
	if rerr != nil {
		return jsonRPCResponse{JSONRPC: "2.0", Error: rerr, ID: req.ID}
	}
	return jsonRPCResponse{JSONRPC: "2.0", Result: result, ID: req.ID}
}

func errorResponse(id any, code int, message string) jsonRPCResponse {
	return jsonRPCResponse{
		JSONRPC: "2.0",
		Error:   &jsonRPCError{Code: code, Message: message},
		ID:      id,
	}
}

// REST routes wrap the same methods. Results are returned as
// {"result": ...}; failures as {"error": ...} with a 4xx/5xx status.

func (s *Server) restGet(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var params json.RawMessage
		if q := r.URL.Query(); len(q) > 0 {
			flat := make(map[string]string, len(q))
			for k := range q {
				flat[k] = q.Get(k)
			}
			params, _ = json.Marshal(flat)
		}
		s.writeREST(w, method, params)
	}
}

func (s *Server) restPost(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var params json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": &jsonRPCError{Code: codeParseError, Message: "Parse error"},
			})
			return
		}
		s.writeREST(w, method, params)
	}
}

func (s *Server) writeREST(w http.ResponseWriter, method string, params json.RawMessage) {
	result, rerr := s.call(method, params)
	if rerr != nil {
		status := http.StatusInternalServerError
		if rerr.Code == codeInvalidParams {
			status = http.StatusBadRequest
		}
		s.writeJSON(w, status, map[string]any{"error": rerr})
		return
	}
	body := pool.GetResultMap()
	defer pool.PutResultMap(body)
	body["result"] = result
	s.writeJSON(w, http.StatusOK, body)
}

// corsMiddleware allows cross-origin requests from a separately served UI.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes data before writing the status, so an unencodable
// value becomes a 500 instead of a truncated 200.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		s.logger.WithError(err).Error("response encoding failed")
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse(nil, codeServerError, "Internal error"))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.WithError(err).Debug("response write failed")
	}
}
