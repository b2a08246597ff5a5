package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"aquadash/internal/utils"
)

// HandlerFunc is a per-verb handler. A returned error, or a panic, becomes a
// 500 server-error response; the error itself is only logged.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Methods maps an HTTP verb to its handler.
type Methods map[string]HandlerFunc

// maxBodyBytes caps request bodies read for handlers and error logging.
const maxBodyBytes = 1 << 20

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodConnect: true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
	http.MethodHead:    true,
}

var redactedHeaders = map[string]bool{
	"Authorization": true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

// Dispatch routes a request to the handler registered for its verb. Verbs
// without a handler get 405. It panics if methods names an unknown verb or a
// nil handler.
func Dispatch(methods Methods) http.Handler {
	table := make(map[string]HandlerFunc, len(methods))
	for verb, h := range methods {
		if !knownMethods[verb] {
			panic(fmt.Sprintf("httpapi: unknown HTTP method %q", verb))
		}
		if h == nil {
			panic(fmt.Sprintf("httpapi: nil handler for %s", verb))
		}
		table[verb] = h
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := table[r.Method]
		if !ok {
			utils.WriteMessage(w, http.StatusMethodNotAllowed, fmt.Sprintf("Method %s is not allowed!", r.Method))
			return
		}

		body, err := bufferBody(w, r)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.WriteError(w, http.StatusRequestEntityTooLarge, "payload-too-large", "Request body is too large.")
				return
			}
			serverError(w, r, body, err)
			return
		}

		gw := &guardedWriter{ResponseWriter: w}
		if err := invoke(h, gw, r); err != nil {
			serverError(gw, r, body, err)
		}
	})
}

func invoke(h HandlerFunc, w http.ResponseWriter, r *http.Request) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
		}
	}()
	return h(w, r)
}

// bufferBody reads the request body so it can be replayed to the handler and
// included when logging a failure.
func bufferBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	_ = r.Body.Close()
	if err != nil {
		return body, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

func serverError(w http.ResponseWriter, r *http.Request, body []byte, err error) {
	slog.ErrorContext(r.Context(), fmt.Sprintf("[%s] %s - Unhandled error", r.Method, r.URL.Path),
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.Query(),
		"body", string(body),
		"headers", loggableHeaders(r.Header),
		"error", err,
	)
	if gw, ok := w.(*guardedWriter); ok && gw.wroteHeader {
		return
	}
	utils.WriteError(w, http.StatusInternalServerError, utils.CodeServerError, utils.MsgServerError)
}

func loggableHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if redactedHeaders[k] {
			out[k] = "[redacted]"
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}

// guardedWriter remembers whether a response has started so the error path
// does not write a second status line.
type guardedWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (g *guardedWriter) WriteHeader(code int) {
	g.wroteHeader = true
	g.ResponseWriter.WriteHeader(code)
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.wroteHeader = true
	return g.ResponseWriter.Write(b)
}

func (g *guardedWriter) Unwrap() http.ResponseWriter {
	return g.ResponseWriter
}
