// Package rpc exposes the marketplace engine over JSON-RPC 2.0, plus a
// websocket event stream and Prometheus metrics.
package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nftmarket/crypto"
	"nftmarket/events"
	"nftmarket/market"
	"nftmarket/observability"
	"nftmarket/payments"
	"nftmarket/registry"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	// AuthTokenEnv names the environment variable carrying the bearer token
	// required for mutating methods.
	AuthTokenEnv = "MARKET_RPC_TOKEN"
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000

	codeMarketUnauthorized  = -32031
	codeMarketNotFound      = -32032
	codeMarketStateConflict = -32033
	codeMarketValue         = -32034
	codeMarketArithmetic    = -32035
	codeMarketExternal      = -32036
)

// Server routes JSON-RPC requests to the marketplace engine and its
// collaborators.
type Server struct {
	engine   *market.Engine
	registry *registry.Collection
	payments *payments.Book
	bus      *events.Bus

	authToken string
	log       *slog.Logger
}

// NewServer wires the RPC surface. The auth token is read from the
// MARKET_RPC_TOKEN environment variable; when unset every mutating method is
// rejected.
func NewServer(engine *market.Engine, reg *registry.Collection, book *payments.Book, bus *events.Bus, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		engine:    engine,
		registry:  reg,
		payments:  book,
		bus:       bus,
		authToken: strings.TrimSpace(os.Getenv(AuthTokenEnv)),
		log:       log,
	}
}

// Router returns the HTTP handler serving the RPC endpoint alongside the
// health, metrics and event-stream routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/ws/events", s.handleEventsWS)
	return mux
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps the engine's error categories onto the module error
// codes so clients can branch without parsing messages.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	code := codeServerError
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, market.ErrAuthorization):
		code = codeMarketUnauthorized
		status = http.StatusForbidden
	case errors.Is(err, market.ErrNotFound):
		code = codeMarketNotFound
	case errors.Is(err, market.ErrStateConflict):
		code = codeMarketStateConflict
		status = http.StatusConflict
	case errors.Is(err, market.ErrValueMismatch):
		code = codeMarketValue
	case errors.Is(err, market.ErrArithmetic):
		code = codeMarketArithmetic
	case errors.Is(err, market.ErrExternalCall):
		code = codeMarketExternal
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	writeError(w, status, id, code, err.Error(), nil)
}

// errorCategory labels an engine error for the metrics registry.
func errorCategory(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, market.ErrAuthorization):
		return "authorization"
	case errors.Is(err, market.ErrNotFound):
		return "not_found"
	case errors.Is(err, market.ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, market.ErrValueMismatch):
		return "value_mismatch"
	case errors.Is(err, market.ErrArithmetic):
		return "arithmetic"
	case errors.Is(err, market.ErrExternalCall):
		return "external_call"
	default:
		return "internal"
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	start := time.Now()
	handled, errOut := s.dispatch(w, r, req)
	if !handled {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
		return
	}
	observability.Engine().Observe(req.Method, start, errorCategory(errOut))
}

// dispatch routes the request to its handler. Mutating methods require the
// bearer token; reads stay open.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req *RPCRequest) (bool, error) {
	switch req.Method {
	case "market_makeOffer":
		return true, s.withAuth(w, r, req, s.handleMakeOffer)
	case "market_updateOffer":
		return true, s.withAuth(w, r, req, s.handleUpdateOffer)
	case "market_fillOffer":
		return true, s.withAuth(w, r, req, s.handleFillOffer)
	case "market_cancelOffer":
		return true, s.withAuth(w, r, req, s.handleCancelOffer)
	case "market_getOffer":
		return true, s.handleGetOffer(w, req)
	case "market_offerCount":
		return true, s.handleOfferCount(w, req)
	case "market_makeAuction":
		return true, s.withAuth(w, r, req, s.handleMakeAuction)
	case "market_cancelAuction":
		return true, s.withAuth(w, r, req, s.handleCancelAuction)
	case "market_makeBid":
		return true, s.withAuth(w, r, req, s.handleMakeBid)
	case "market_settleAuction":
		return true, s.withAuth(w, r, req, s.handleSettleAuction)
	case "market_listAuctions":
		return true, s.handleListAuctions(w, req)
	case "market_userFunds":
		return true, s.handleUserFunds(w, req)
	case "market_claimFunds":
		return true, s.withAuth(w, r, req, s.handleClaimFunds)
	case "market_listEvents":
		return true, s.handleListEvents(w, req)
	case "market_mintAsset":
		return true, s.withAuth(w, r, req, s.handleMintAsset)
	case "market_approveAsset":
		return true, s.withAuth(w, r, req, s.handleApproveAsset)
	case "market_getAssetOwner":
		return true, s.handleGetAssetOwner(w, req)
	case "market_getAssetURI":
		return true, s.handleGetAssetURI(w, req)
	case "market_deposit":
		return true, s.withAuth(w, r, req, s.handleDeposit)
	case "market_getBalance":
		return true, s.handleGetBalance(w, req)
	}
	return false, nil
}

type rpcHandler func(w http.ResponseWriter, req *RPCRequest) error

func (s *Server) withAuth(w http.ResponseWriter, r *http.Request, req *RPCRequest, next rpcHandler) error {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return market.ErrAuthorization
	}
	return next(w, req)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

// singleParams unmarshals the single parameter object every market method
// expects.
func singleParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return fmt.Errorf("invalid parameter object: %w", err)
	}
	return nil
}

func decodeAddress(s string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(s))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Array(), nil
}

func formatAddress(addr [20]byte) string {
	return crypto.FormatAddress(addr)
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	return amount, nil
}

func bigString(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}
