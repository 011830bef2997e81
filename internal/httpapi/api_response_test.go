package httpapi

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"

	"github.com/jvc-remote/go-jvc/logger"
)

func serve(h httprouter.Handle) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/x", nil), nil)

	return w
}

func TestV1(t *testing.T) {
	w := serve(Decorate(func(http.ResponseWriter, *http.Request, httprouter.Params) (interface{}, error) {
		return map[string]string{"power": "lamp_on"}, nil
	}, V1))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"power":"lamp_on"}`, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	w = serve(Decorate(func(http.ResponseWriter, *http.Request, httprouter.Params) (interface{}, error) {
		return nil, Err{http.StatusBadRequest, `bad "command"`}
	}, V1))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"message":"bad \"command\""}`, w.Body.String())

	w = serve(Decorate(func(http.ResponseWriter, *http.Request, httprouter.Params) (interface{}, error) {
		return nil, errors.New("boom")
	}, V1))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = serve(Decorate(func(http.ResponseWriter, *http.Request, httprouter.Params) (interface{}, error) {
		return nil, nil
	}, V1))
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestPlainText(t *testing.T) {
	w := serve(Decorate(func(http.ResponseWriter, *http.Request, httprouter.Params) (interface{}, error) {
		return "OK", nil
	}, Log(logger.GetLogger()), PlainText))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestLogNotFoundHandler(t *testing.T) {
	w := httptest.NewRecorder()
	LogNotFoundHandler(logger.GetLogger()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"NOT_FOUND"}`, w.Body.String())
}
