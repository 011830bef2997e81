package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jvc-remote/go-jvc/command"
	"github.com/jvc-remote/go-jvc/logger"
	"github.com/jvc-remote/go-jvc/projector"
)

// JVCD bridges HTTP requests to projectors.
type JVCD struct {
	opts   *Options
	pool   *projector.Pool
	table  *command.Table
	logger logger.Logger

	httpListener net.Listener
	httpServer   *http.Server
	wg           sync.WaitGroup
}

// New creates the daemon and a projector session for every configured host.
// Requests for other hosts are rejected.
func New(opts *Options) (*JVCD, error) {
	if len(opts.Projectors) == 0 {
		return nil, errors.New("jvcd: at least one --projector is required")
	}

	l := logger.With("component", "jvcd")
	pool, table, err := newPool(opts.Projectors, opts.Conn.ConnOptions(l)...)
	if err != nil {
		return nil, err
	}

	return &JVCD{
		opts:   opts,
		pool:   pool,
		table:  table,
		logger: l,
	}, nil
}

// newPool creates a session for each host. Every projector shares connOpts,
// so the returned table is the one all of them use.
func newPool(hosts []string, connOpts ...projector.ConnOption) (*projector.Pool, *command.Table, error) {
	pool := projector.NewPool(connOpts...)

	var table *command.Table
	for _, host := range hosts {
		p, err := pool.Get(host)
		if err != nil {
			_ = pool.Close()
			return nil, nil, fmt.Errorf("jvcd: invalid --projector %q: %w", host, err)
		}
		table = p.Config().Table()
	}

	return pool, table, nil
}

// Main starts serving HTTP in the background.
func (j *JVCD) Main() error {
	ln, err := net.Listen("tcp", j.opts.HTTPAddress)
	if err != nil {
		return err
	}
	j.httpListener = ln
	j.httpServer = &http.Server{
		Handler:           newHTTPServer(j),
		ReadHeaderTimeout: 10 * time.Second,
	}
	j.logger.Info("HTTP: listening", "addr", ln.Addr().String())

	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		if err := j.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			j.logger.Error("HTTP: serve failed", "error", err)
		}
	}()

	return nil
}

// RealHTTPAddr returns the bound HTTP address.
func (j *JVCD) RealHTTPAddr() *net.TCPAddr {
	return j.httpListener.Addr().(*net.TCPAddr)
}

// Exit stops the HTTP server and closes every projector session.
func (j *JVCD) Exit() {
	if j.httpServer != nil {
		_ = j.httpServer.Close()
	}
	j.wg.Wait()

	if err := j.pool.Close(); err != nil {
		j.logger.Warn("failed to close projectors", "error", err)
	}
	j.logger.Info("jvcd stopped")
}
