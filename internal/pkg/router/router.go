package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/trafficai/internal/pkg/config"
	"github.com/shandysiswandi/trafficai/internal/pkg/goerror"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/uid"
	"github.com/shandysiswandi/trafficai/internal/pkg/validator"
)

type errorResponse struct {
	Success bool              `json:"success" example:"false"`
	Message string            `json:"message" example:"Incorrect OTP"`
	Error   map[string]string `json:"error,omitempty"`
}

type successResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message" example:"OTP Sent Successfully!"`
	Data    any    `json:"data,omitempty" swaggertype:"object"`
}

// Handler is the application-style handler used by this router.
//
// It returns a response payload (that will be JSON encoded) or an error.
type Handler func(r *Request) (any, error)

// Config holds dependencies required to build a Router.
type Config struct {
	// Config provides runtime configuration values.
	Config config.Config
	// UUID generates request correlation IDs.
	UUID uid.StringID
	// Instrument provides tracing and metrics helpers.
	Instrument instrument.Instrumentation
}

// Router is an http.Handler that wraps httprouter and a middleware chain.
type Router struct {
	hr         *httprouter.Router
	errorCodec func(ctx context.Context, w http.ResponseWriter, err error)
	encoder    func(ctx context.Context, w http.ResponseWriter, resp any)
	mws        []Middleware
}

// NewRouter builds the default application router with standard middleware.
func NewRouter(cfg Config) *Router {
	ins := cfg.Instrument
	if ins == nil {
		ins = instrument.NewNoop()
	}

	hr := &httprouter.Router{
		RedirectTrailingSlash:  true,
		RedirectFixedPath:      true,
		HandleMethodNotAllowed: true,
		HandleOPTIONS:          true,
		SaveMatchedRoutePath:   true,
		NotFound: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "endpoint not found"}, http.StatusNotFound)
		}),
		MethodNotAllowed: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, errorResponse{Message: "method not allowed"}, http.StatusMethodNotAllowed)
		}),
	}

	ro := &Router{
		hr:         hr,
		errorCodec: encodeError,
		encoder:    encodeSuccess,
		mws: []Middleware{
			middlewareRecoverer,
			middlewareIP(cfg.Config),
			middlewareCorrelationID(cfg.UUID),
			middlewareObservability(cfg.Config, ins),
			middlewareMaintenance(cfg.Config),
			middlewareRateLimit(cfg.Config),
		},
	}

	hr.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, successResponse{Success: true, Message: "Welcome to API TrafficAI"}, http.StatusOK)
	})
	hr.GET("/health", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		writeJSON(w, successResponse{Success: true, Message: "ok"}, http.StatusOK)
	})

	return ro
}

func encodeError(_ context.Context, w http.ResponseWriter, err error) {
	var gerr *goerror.Error
	if !errors.As(err, &gerr) {
		writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
		return
	}

	errResp := errorResponse{Message: gerr.Msg()}

	var errValidate validator.V10ValidationError
	if errors.As(err, &errValidate) {
		errResp.Error = errValidate.Values()
	} else if len(gerr.Fields()) > 0 {
		errResp.Error = gerr.Fields()
	}

	writeJSON(w, errResp, gerr.StatusCode())
}

func encodeSuccess(_ context.Context, w http.ResponseWriter, resp any) {
	code := http.StatusOK
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		code = sc.StatusCode()
	}

	if code == http.StatusNoContent || resp == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	msg := "request has been successfully"
	if m, ok := resp.(interface{ Message() string }); ok {
		msg = m.Message()
	}

	// responses that only carry a message are sent without a data member
	var data any = resp
	if e, ok := resp.(interface{ Empty() bool }); ok && e.Empty() {
		data = nil
	}

	writeJSON(w, successResponse{Success: true, Message: msg, Data: data}, code)
}

// POST registers a POST endpoint using the application Handler signature.
func (r *Router) POST(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodPost, path, h, mws...)
}

// GET registers a GET endpoint using the application Handler signature.
func (r *Router) GET(path string, h Handler, mws ...Middleware) {
	r.endpoint(http.MethodGet, path, h, mws...)
}

func (r *Router) endpoint(method, path string, h Handler, mws ...Middleware) {
	all := make([]Middleware, 0, len(r.mws)+len(mws))
	all = append(append(all, r.mws...), mws...)

	r.hr.Handler(method, path, Chain(http.HandlerFunc(func(w http.ResponseWriter, re *http.Request) {
		resp, err := h(&Request{Request: re})
		if err != nil {
			if setter, ok := w.(interface{ SetError(error) }); ok {
				setter.SetError(err)
			}
			r.errorCodec(re.Context(), w, err)
			return
		}
		r.encoder(re.Context(), w, resp)
	}), all...))
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.hr.ServeHTTP(w, req)
}

func writeJSON(w http.ResponseWriter, data any, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("server: failed to encode data to json", "error", err)
	}
}
