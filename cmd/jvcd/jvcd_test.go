package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/internal/emulator"
	"github.com/jvc-remote/go-jvc/logger"
	"github.com/jvc-remote/go-jvc/projector"
)

func startJVCD(t *testing.T, port int, password string) (*JVCD, string) {
	t.Helper()

	opts := NewOptions()
	opts.HTTPAddress = "127.0.0.1:0"
	opts.Conn.Port = port
	opts.Conn.Password = password
	opts.Conn.ConnectTimeout = time.Second
	opts.Conn.SendDelay = 10 * time.Millisecond
	opts.Conn.MaxRetries = 2
	opts.Projectors = []string{"127.0.0.1"}

	j, err := New(opts)
	require.NoError(t, err)
	require.NoError(t, j.Main())
	t.Cleanup(j.Exit)

	return j, fmt.Sprintf("http://%s", j.RealHTTPAddr())
}

func startEmulator(t *testing.T, opts ...emulator.Option) *emulator.Server {
	t.Helper()

	s := emulator.New(opts...)
	require.NoError(t, s.Start("127.0.0.1:0"))
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func do(t *testing.T, method, url string) (int, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &data), string(body))

	return resp.StatusCode, data
}

func TestJVCD_Ping(t *testing.T) {
	_, base := startJVCD(t, 20554, "")

	resp, err := http.Get(base + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	code, data := do(t, "GET", base+"/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", data["message"])

	code, _ = do(t, "DELETE", base+"/ping")
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}

func TestJVCD_Commands(t *testing.T) {
	_, base := startJVCD(t, 20554, "")

	code, data := do(t, "GET", base+"/commands")
	require.Equal(t, http.StatusOK, code)

	cmds, ok := data["commands"].([]interface{})
	require.True(t, ok)
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.(map[string]interface{})["name"].(string))
	}
	assert.Contains(t, names, "power")
	assert.Contains(t, names, "picture_mode")
}

func TestJVCD_Power(t *testing.T) {
	s := startEmulator(t)
	_, base := startJVCD(t, s.Port(), "")
	host := base + "/projectors/127.0.0.1"

	code, data := do(t, "POST", host+"/power/on")
	require.Equal(t, http.StatusOK, code, data)
	assert.Equal(t, "on", data["power"])

	code, data = do(t, "GET", host+"/power")
	require.Equal(t, http.StatusOK, code, data)
	assert.Equal(t, "lamp_on", data["power"])
	assert.Equal(t, "on", data["on"])

	code, _ = do(t, "POST", host+"/power/sideways")
	assert.Equal(t, http.StatusBadRequest, code)

	s.SetState("power", "8")
	code, _ = do(t, "GET", host+"/power")
	assert.Equal(t, http.StatusBadGateway, code)

	code, data = do(t, "GET", base+"/stats")
	require.Equal(t, http.StatusOK, code)
	projectors := data["projectors"].([]interface{})
	require.Len(t, projectors, 1)
	assert.Equal(t, "127.0.0.1", projectors[0].(map[string]interface{})["host"])
}

func TestJVCD_Command(t *testing.T) {
	s := startEmulator(t)
	_, base := startJVCD(t, s.Port(), "")
	host := base + "/projectors/127.0.0.1"

	code, data := do(t, "POST", host+"/command/input-hdmi2")
	require.Equal(t, http.StatusOK, code, data)
	assert.Equal(t, "write", data["direction"])

	code, data = do(t, "GET", host+"/command/input")
	require.Equal(t, http.StatusOK, code, data)
	assert.Equal(t, "hdmi2", data["value"])
	assert.Equal(t, true, data["mapped"])

	code, data = do(t, "GET", host+"/command/frobnicate")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.True(t, strings.Contains(data["message"].(string), "unknown command"))

	code, _ = do(t, "GET", host+"/command/power-on")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, "POST", host+"/command/signal-on")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, "GET", base+"/projectors/not%20a%20host/power")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestJVCD_UnlistedHost(t *testing.T) {
	s := startEmulator(t)
	_, base := startJVCD(t, s.Port(), "")

	for _, host := range []string{"localhost", "10.255.0.1", "unlisted.example"} {
		code, data := do(t, "GET", base+"/projectors/"+host+"/power")
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "PROJECTOR_NOT_FOUND", data["message"])

		code, _ = do(t, "POST", base+"/projectors/"+host+"/command/power-on")
		assert.Equal(t, http.StatusNotFound, code)
	}

	assert.Zero(t, s.ConnCount())

	code, data := do(t, "GET", base+"/stats")
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, data["projectors"], 1)
}

func TestNew_Projectors(t *testing.T) {
	opts := NewOptions()
	_, err := New(opts)
	require.Error(t, err)

	opts.Projectors = []string{"127.0.0.1", "not a host"}
	_, err = New(opts)
	require.ErrorContains(t, err, "not a host")

	opts.Projectors = []string{"127.0.0.1", "den.local"}
	j, err := New(opts)
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1", "den.local"}, j.pool.Hosts())
	require.NoError(t, j.pool.Close())
}

func TestJVCD_DeviceErrors(t *testing.T) {
	s := startEmulator(t, emulator.WithPassword("secret12"))
	_, base := startJVCD(t, s.Port(), "wrong1234")

	code, _ := do(t, "GET", base+"/projectors/127.0.0.1/power")
	assert.Equal(t, http.StatusBadGateway, code)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	_, base = startJVCD(t, port, "")
	code, data := do(t, "GET", base+"/projectors/127.0.0.1/power")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Contains(t, data["message"], "after 2 attempts")
}

func TestJVCD_CommandsFromConfiguredTable(t *testing.T) {
	lens, err := command.NewGroup("lens_memory", "INML", command.WithValues(map[string]string{"1": "0"}))
	require.NoError(t, err)
	table, err := command.NewTable(lens)
	require.NoError(t, err)

	pool, got, err := newPool([]string{"127.0.0.1"}, projector.WithCommandTable(table))
	require.NoError(t, err)
	assert.Same(t, table, got)

	j := &JVCD{opts: NewOptions(), pool: pool, table: got, logger: logger.GetLogger()}
	t.Cleanup(func() { _ = pool.Close() })
	srv := httptest.NewServer(newHTTPServer(j))
	t.Cleanup(srv.Close)

	code, data := do(t, "GET", srv.URL+"/commands")
	require.Equal(t, http.StatusOK, code)
	cmds := data["commands"].([]interface{})
	require.Len(t, cmds, 1)
	assert.Equal(t, "lens_memory", cmds[0].(map[string]interface{})["name"])
}

func TestProgram_StopWithoutStart(t *testing.T) {
	p := &program{}
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
}
