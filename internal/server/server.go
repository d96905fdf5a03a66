// Package server exposes the engine over HTTP: POST /rpc accepts a
// single request object or a JSON array batch, GET /schema serves the
// introspection catalog. Client input problems surface as structured
// error bodies with stable codes; only malformed envelopes produce
// non-200 statuses.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fieldgate/fieldgate/internal/engine"
	"github.com/fieldgate/fieldgate/internal/eventbus"
	"github.com/fieldgate/fieldgate/internal/events"
	"github.com/fieldgate/fieldgate/internal/fielderr"
	"github.com/fieldgate/fieldgate/internal/introspect"
	"github.com/fieldgate/fieldgate/internal/reqid"
	"github.com/fieldgate/fieldgate/internal/shorthand"
)

// Handler is the http.Handler for the RPC endpoint.
type Handler struct {
	eng *engine.Engine
	opt Options
}

type Options struct {
	// Timeout sets a default timeout when the incoming request context
	// has none. 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means
	// unlimited.
	MaxBodyBytes int64

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates the RPC handler for an engine.
func New(eng *engine.Engine, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{eng: eng, opt: op}
}

// NewSchema returns the handler for the introspection catalog.
func NewSchema(eng *engine.Engine, opts ...Option) http.Handler {
	op := Options{}
	for _, f := range opts {
		f(&op)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, errorBody(serverError("method not allowed")), op.Pretty)
			return
		}
		cat, err := introspect.Catalog(eng.Registry(), eng.Convention())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorBody(serverError(err.Error())), op.Pretty)
			return
		}
		writeJSON(w, http.StatusOK, cat, op.Pretty)
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	ctx, _ = reqid.NewContext(ctx)
	status := http.StatusOK
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: status, Duration: time.Since(start)})
	}()

	if r.Method == http.MethodOptions {
		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		status = http.StatusNoContent
		w.WriteHeader(status)
		return
	}

	if r.Method != http.MethodPost {
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorBody(serverError("method not allowed")), h.opt.Pretty)
		return
	}

	single, batch, berr := parseRequest(r, h.opt.MaxBodyBytes)
	if berr != nil {
		status = http.StatusBadRequest
		if berr.Message == errBodyTooLargeMessage {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, errorBody(berr), h.opt.Pretty)
		return
	}

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if batch != nil {
		// Batch entries execute sequentially; order is preserved.
		out := make([]any, len(batch))
		for i := range batch {
			out[i] = h.executeOne(ctx, batch[i])
		}
		writeJSON(w, status, out, h.opt.Pretty)
		return
	}

	writeJSON(w, status, h.executeOne(ctx, single), h.opt.Pretty)
}

func (h *Handler) executeOne(ctx context.Context, req rpcRequest) any {
	if req.Resource == "" {
		return errorBody(serverError("missing 'resource'"))
	}
	if req.Action == "" {
		return errorBody(serverError("missing 'action'"))
	}
	fields, ferr := decodeFields(req.Fields)
	if ferr != nil {
		return errorBody(ferr)
	}
	data, err := h.eng.Execute(ctx, engine.Request{
		Resource: req.Resource,
		Action:   req.Action,
		ID:       req.ID,
		Fields:   fields,
		Page:     req.Page,
		Args:     req.Args,
		Record:   req.Record,
	})
	if err != nil {
		if fe, ok := err.(*fielderr.Error); ok {
			return errorBody(fe)
		}
		return errorBody(serverError(err.Error()))
	}
	return map[string]any{"data": data}
}

// decodeFields accepts the two field-selection spellings: the JSON
// selection array, or the shorthand string parsed into one.
func decodeFields(v any) ([]any, *fielderr.Error) {
	switch f := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return f, nil
	case string:
		items, err := shorthand.Parse(f)
		if err != nil {
			return nil, &fielderr.Error{
				Code:    fielderr.CodeInvalidFieldType,
				Message: err.Error(),
			}
		}
		return items, nil
	default:
		return nil, fielderr.InvalidFieldType(v, nil)
	}
}

// ------------------ Request parsing ------------------

type rpcRequest struct {
	Resource string         `json:"resource"`
	Action   string         `json:"action"`
	ID       string         `json:"id,omitempty"`
	Fields   any            `json:"fields,omitempty"`
	Page     map[string]any `json:"page,omitempty"`
	Args     map[string]any `json:"args,omitempty"`
	Record   map[string]any `json:"record,omitempty"`
}

func parseRequest(r *http.Request, maxBody int64) (rpcRequest, []rpcRequest, *fielderr.Error) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return rpcRequest{}, nil, serverError("unsupported Content-Type")
	}

	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return rpcRequest{}, nil, serverError("failed to read body")
	}
	defer r.Body.Close()
	if maxBody > 0 && int64(len(body)) > maxBody {
		return rpcRequest{}, nil, serverError(errBodyTooLargeMessage)
	}

	// Array bodies are batches.
	if len(body) > 0 && body[0] == '[' {
		var arr []rpcRequest
		if err := json.Unmarshal(body, &arr); err != nil {
			return rpcRequest{}, nil, serverError("invalid JSON")
		}
		if len(arr) == 0 {
			return rpcRequest{}, nil, serverError("empty batch")
		}
		return rpcRequest{}, arr, nil
	}

	var req rpcRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return rpcRequest{}, nil, serverError("invalid JSON")
	}
	return req, nil, nil
}

// ------------------ Response formatting ------------------

const errBodyTooLargeMessage = "body too large"

// serverError is an envelope-level problem, as opposed to the typed
// selection and pagination codes the engine produces.
func serverError(msg string) *fielderr.Error {
	return &fielderr.Error{Code: "invalid_request", Message: msg}
}

func errorBody(fe *fielderr.Error) map[string]any {
	return map[string]any{"errors": []any{fe}}
}

func writeJSON(w http.ResponseWriter, status int, v any, pretty bool) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" || o == origin {
			allowed = true
			break
		}
	}
	if !allowed {
		return
	}
	if contains(opts.AllowedOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST,OPTIONS")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
