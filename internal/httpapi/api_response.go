// Package httpapi provides the handler decorators and JSON responses of the
// jvcd HTTP API.
package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/jvc-remote/go-jvc/logger"
)

// Decorator wraps an APIHandler.
type Decorator func(APIHandler) APIHandler

// APIHandler returns the response data or an error; Err carries the status code.
type APIHandler func(http.ResponseWriter, *http.Request, httprouter.Params) (interface{}, error)

// Err is an error with an HTTP status code.
type Err struct {
	Code int
	Text string
}

func (e Err) Error() string {
	return e.Text
}

func statusOf(err error) int {
	if e, ok := err.(Err); ok {
		return e.Code
	}

	return http.StatusInternalServerError
}

// PlainText writes string or []byte data as is.
func PlainText(f APIHandler) APIHandler {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
		code := http.StatusOK
		data, err := f(w, req, ps)
		if err != nil {
			code = statusOf(err)
			data = err.Error()
		}
		switch d := data.(type) {
		case string:
			w.WriteHeader(code)
			_, _ = io.WriteString(w, d)
		case []byte:
			w.WriteHeader(code)
			_, _ = w.Write(d)
		default:
			panic(fmt.Sprintf("unknown response type %T", data))
		}

		return nil, nil
	}
}

// V1 writes data as JSON, or {"message": ...} with the error's status code.
func V1(f APIHandler) APIHandler {
	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
		data, err := f(w, req, ps)
		if err != nil {
			RespondV1(w, statusOf(err), err)
			return nil, nil
		}
		RespondV1(w, http.StatusOK, data)

		return nil, nil
	}
}

// RespondV1 writes one JSON response.
func RespondV1(w http.ResponseWriter, code int, data interface{}) {
	var (
		response []byte
		err      error
	)

	if code == http.StatusOK {
		if data == nil {
			data = struct{}{}
		}
		response, err = json.Marshal(data)
		if err != nil {
			code = http.StatusInternalServerError
			data = err
		}
	}

	if code != http.StatusOK {
		response, _ = json.Marshal(struct {
			Message string `json:"message"`
		}{fmt.Sprint(data)})
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Decorate applies ds to f, innermost first, and adapts the result to httprouter.
func Decorate(f APIHandler, ds ...Decorator) httprouter.Handle {
	decorated := f
	for _, decorate := range ds {
		decorated = decorate(decorated)
	}

	return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		_, _ = decorated(w, req, ps)
	}
}

// Log logs every request with its status and latency.
func Log(l logger.Logger) Decorator {
	return func(f APIHandler) APIHandler {
		return func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
			start := time.Now()
			response, err := f(w, req, ps)
			status := http.StatusOK
			if err != nil {
				status = statusOf(err)
			}
			l.Info("http request",
				"status", status,
				"method", req.Method,
				"uri", req.URL.RequestURI(),
				"remoteAddr", req.RemoteAddr,
				"elapsed", time.Since(start))

			return response, err
		}
	}
}

// LogPanicHandler answers 500 after a handler panic.
func LogPanicHandler(l logger.Logger) func(w http.ResponseWriter, req *http.Request, p interface{}) {
	return func(w http.ResponseWriter, req *http.Request, p interface{}) {
		l.Error("panic in HTTP handler", "panic", p)
		Decorate(func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
			return nil, Err{http.StatusInternalServerError, "INTERNAL_ERROR"}
		}, Log(l), V1)(w, req, nil)
	}
}

// LogNotFoundHandler answers 404.
func LogNotFoundHandler(l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		Decorate(func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
			return nil, Err{http.StatusNotFound, "NOT_FOUND"}
		}, Log(l), V1)(w, req, nil)
	})
}

// LogMethodNotAllowedHandler answers 405.
func LogMethodNotAllowedHandler(l logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		Decorate(func(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
			return nil, Err{http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"}
		}, Log(l), V1)(w, req, nil)
	})
}
