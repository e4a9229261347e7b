// Package service exposes an analyze.Analyzer over HTTP.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/swdunlop/overlap-go"
	"github.com/swdunlop/overlap-go/analyze"
	"github.com/swdunlop/overlap-go/internal/slog"
)

// maxBodySize bounds request bodies; the analyzer bounds the texts themselves.
const maxBodySize = 64 << 20 // 64 MiB

// Run serves the analyzer on addr until ctx is done.
func Run(ctx context.Context, addr string, analyzer analyze.Analyzer) error {
	svr := http.Server{
		BaseContext: func(_ net.Listener) context.Context { return ctx },
		Handler:     Handler(analyzer),
	}
	go func(ctx context.Context) {
		<-ctx.Done()
		slog.Info(`shutting down service`)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		_ = svr.Shutdown(shutdownCtx)
	}(ctx)

	lr, err := net.Listen(`tcp`, addr)
	if err != nil {
		return err
	}
	slog.Info(`starting service`, `addr`, addr, `url`, `http://`+addr)
	err = svr.Serve(lr) // Serve will close the listener.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Handler returns the HTTP routes for analyzer:
//
//	GET  /health        reports {"ok":true}
//	POST /api/analyze   accepts an analyze.Request and replies with an analyze.Response
func Handler(analyzer analyze.Analyzer) http.Handler {
	svc := service{analyzer: analyzer}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)
	r.Get(`/health`, handleGet(svc.getHealth))
	r.Post(`/api/analyze`, handlePost(svc.handleAnalyze))
	return r
}

type service struct {
	analyzer analyze.Analyzer
}

func (svc *service) getHealth(ctx context.Context) (status int, rsp struct {
	OK bool `json:"ok"`
}) {
	rsp.OK = true
	return 200, rsp
}

type analyzeResponse struct {
	Error string `json:"error,omitempty"`
	*analyze.Response
}

func (svc *service) handleAnalyze(ctx context.Context, req *analyze.Request) (int, analyzeResponse) {
	log := slog.From(ctx)
	log.Debug(`analyze request`,
		`algorithm`, req.Algorithm,
		`textA`, xxhash.Sum64String(req.TextA),
		`textB`, xxhash.Sum64String(req.TextB),
	)
	rsp, err := svc.analyzer.Analyze(ctx, req)
	switch {
	case err == nil:
		return 200, analyzeResponse{Response: rsp}
	case errors.Is(err, analyze.ErrTextTooLong):
		return http.StatusRequestEntityTooLarge, analyzeResponse{Error: err.Error()}
	case errors.Is(err, overlap.ErrUnknownAlgorithm):
		return http.StatusBadRequest, analyzeResponse{Error: err.Error()}
	default:
		log.Warn(`analysis failed`, `err`, err)
		return http.StatusInternalServerError, analyzeResponse{Error: err.Error()}
	}
}

// logRequests carries a logger tagged with the request ID in each request context and logs completed requests.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := slog.With(r.Context(), `request`, middleware.GetReqID(r.Context()))
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r.WithContext(ctx))
		slog.From(ctx).Debug(`handled request`,
			`method`, r.Method,
			`path`, r.URL.Path,
			`status`, ww.Status(),
			`seconds`, time.Since(start).Seconds(),
		)
	})
}

func httpErr(w http.ResponseWriter, r *http.Request, code int, err error) {
	httpError(w, r, code, err.Error())
}

func httpError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	log := slog.From(r.Context())
	if code < 500 {
		log.Warn(msg, `code`, code)
	} else {
		log.Error(msg, `code`, code)
	}
	var rsp struct {
		Error string `json:"error"`
	}
	rsp.Error = msg
	js, err := json.Marshal(&rsp)
	if err != nil {
		panic(err)
	}
	writeContent(w, r, code, `application/json`, js)
}

func handleGet[T any](fn func(context.Context) (int, T)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		code, rsp := fn(r.Context())
		writeJSON(w, r, code, &rsp)
	}
}

func handlePost[T, U any](fn func(context.Context, *T) (int, U)) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		contentType := strings.SplitN(r.Header.Get(`Content-Type`), `;`, 2)[0]
		if contentType != `application/json` {
			httpErr(w, r, http.StatusUnsupportedMediaType, fmt.Errorf(`expected Content-Type: application/json`))
			return
		}
		var req T
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req)
		if err != nil {
			httpErr(w, r, http.StatusBadRequest, err)
			return
		}
		code, rsp := fn(r.Context(), &req)
		writeJSON(w, r, code, &rsp)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v interface{}) {
	js, err := json.Marshal(v)
	if err != nil {
		slog.From(r.Context()).Warn(`failed to encode JSON`, `err`, err)
		httpErr(w, r, http.StatusInternalServerError, err)
		return
	}
	writeContent(w, r, code, `application/json`, js)
}

func writeContent(w http.ResponseWriter, r *http.Request, code int, contentType string, content []byte) {
	h := w.Header()
	h.Set(`Content-Type`, contentType)
	h.Set(`Content-Length`, strconv.Itoa(len(content)))
	w.WriteHeader(code)
	_, err := w.Write(content)
	if err != nil {
		slog.From(r.Context()).Warn(`failed to send content`, `err`, err)
	}
}
