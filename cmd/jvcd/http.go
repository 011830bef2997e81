package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/internal/httpapi"
	"github.com/jvc-remote/go-jvc/projector"
)

type httpServer struct {
	jvcd   *JVCD
	router http.Handler
}

func newHTTPServer(jvcd *JVCD) *httpServer {
	l := jvcd.logger
	log := httpapi.Log(l)

	router := httprouter.New()
	router.HandleMethodNotAllowed = true
	router.PanicHandler = httpapi.LogPanicHandler(l)
	router.NotFound = httpapi.LogNotFoundHandler(l)
	router.MethodNotAllowed = httpapi.LogMethodNotAllowedHandler(l)
	s := &httpServer{
		jvcd:   jvcd,
		router: router,
	}

	router.Handle("GET", "/ping", httpapi.Decorate(s.pingHandler, log, httpapi.PlainText))
	router.Handle("GET", "/commands", httpapi.Decorate(s.doCommands, log, httpapi.V1))
	router.Handle("GET", "/stats", httpapi.Decorate(s.doStats, log, httpapi.V1))

	router.Handle("GET", "/projectors/:host/power", httpapi.Decorate(s.doGetPower, log, httpapi.V1))
	router.Handle("POST", "/projectors/:host/power/:state", httpapi.Decorate(s.doSetPower, log, httpapi.V1))
	router.Handle("GET", "/projectors/:host/command/:name", httpapi.Decorate(s.doReadCommand, log, httpapi.V1))
	router.Handle("POST", "/projectors/:host/command/:name", httpapi.Decorate(s.doWriteCommand, log, httpapi.V1))

	return s
}

func (s *httpServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

func (s *httpServer) pingHandler(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
	return "OK", nil
}

type groupInfo struct {
	Name        string   `json:"name"`
	Access      string   `json:"access"`
	WriteValues []string `json:"write_values,omitempty"`
	ReadValues  []string `json:"read_values,omitempty"`
}

func (s *httpServer) doCommands(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
	groups := s.jvcd.table.Groups()
	infos := make([]groupInfo, 0, len(groups))
	for _, g := range groups {
		infos = append(infos, groupInfo{
			Name:        g.Name,
			Access:      g.Access().String(),
			WriteValues: g.WriteValues(),
			ReadValues:  g.ReadValues(),
		})
	}

	return struct {
		Commands []groupInfo `json:"commands"`
	}{infos}, nil
}

type projectorStats struct {
	Host    string                    `json:"host"`
	State   string                    `json:"state"`
	Metrics projector.MetricsSnapshot `json:"metrics"`
}

func (s *httpServer) doStats(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
	stats := []projectorStats{}
	for _, host := range s.jvcd.pool.Hosts() {
		p, ok := s.jvcd.pool.Lookup(host)
		if !ok {
			continue
		}
		stats = append(stats, projectorStats{
			Host:    host,
			State:   p.State().String(),
			Metrics: p.GetMetrics().Snapshot(),
		})
	}

	return struct {
		Projectors []projectorStats `json:"projectors"`
	}{stats}, nil
}

func (s *httpServer) projector(ps httprouter.Params) (*projector.Projector, error) {
	p, ok := s.jvcd.pool.Lookup(ps.ByName("host"))
	if !ok {
		return nil, httpapi.Err{Code: http.StatusNotFound, Text: "PROJECTOR_NOT_FOUND"}
	}

	return p, nil
}

func (s *httpServer) doGetPower(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
	p, err := s.projector(ps)
	if err != nil {
		return nil, err
	}

	st, err := p.PowerState(req.Context())
	if err != nil {
		return nil, s.apiError(err)
	}
	on, _ := st.OnState()

	return map[string]string{
		"host":  p.Config().Host(),
		"power": st.String(),
		"on":    on.String(),
	}, nil
}

func (s *httpServer) doSetPower(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
	p, err := s.projector(ps)
	if err != nil {
		return nil, err
	}

	state := ps.ByName("state")
	switch state {
	case "on":
		err = p.PowerOn(req.Context())
	case "off":
		err = p.PowerOff(req.Context())
	default:
		return nil, httpapi.Err{Code: http.StatusBadRequest, Text: fmt.Sprintf("INVALID_POWER_STATE: %q, must be on or off", state)}
	}
	if err != nil {
		return nil, s.apiError(err)
	}

	return map[string]string{"host": p.Config().Host(), "power": state}, nil
}

type commandResponse struct {
	Host      string `json:"host"`
	Command   string `json:"command"`
	Direction string `json:"direction"`
	Value     string `json:"value,omitempty"`
	Mapped    bool   `json:"mapped"`
}

func (s *httpServer) doReadCommand(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
	return s.doCommand(req.Context(), ps, command.Read)
}

func (s *httpServer) doWriteCommand(w http.ResponseWriter, req *http.Request, ps httprouter.Params) (interface{}, error) {
	return s.doCommand(req.Context(), ps, command.Write)
}

func (s *httpServer) doCommand(ctx context.Context, ps httprouter.Params, dir command.Direction) (interface{}, error) {
	p, err := s.projector(ps)
	if err != nil {
		return nil, err
	}

	name := ps.ByName("name")
	parsed, err := p.Config().Table().Parse(name)
	if err != nil {
		return nil, s.apiError(err)
	}
	if parsed.Direction != dir {
		return nil, httpapi.Err{Code: http.StatusBadRequest, Text: fmt.Sprintf("INVALID_METHOD: %q is a %s command", name, parsed.Direction)}
	}

	resp, err := p.Do(ctx, parsed)
	if err != nil {
		return nil, s.apiError(err)
	}

	return commandResponse{
		Host:      p.Config().Host(),
		Command:   name,
		Direction: parsed.Direction.String(),
		Value:     resp.Value,
		Mapped:    resp.Mapped,
	}, nil
}

// apiError maps projector errors to status codes: caller mistakes are 400,
// device misbehaviour 502, unreachable devices 503.
func (s *httpServer) apiError(err error) error {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, projector.ErrUnknownCommand), errors.Is(err, projector.ErrInvalidDirection):
		code = http.StatusBadRequest
	case errors.Is(err, projector.ErrHandshakeFailed),
		errors.Is(err, projector.ErrMalformedReply),
		errors.Is(err, projector.ErrUnmappedPowerState):
		code = http.StatusBadGateway
	case errors.Is(err, projector.ErrCommandFailed),
		errors.Is(err, projector.ErrConnectTimeout),
		errors.Is(err, projector.ErrTransport),
		errors.Is(err, projector.ErrProjectorClosed):
		code = http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}

	return httpapi.Err{Code: code, Text: err.Error()}
}
