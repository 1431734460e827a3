package metrics

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/kaspanet/chainsyncd/util/panics"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readHeaderTimeout = 10 * time.Second

var spawn = panics.GoroutineWrapperFunc(log)

// Server exports the collected metrics over HTTP at /metrics.
type Server struct {
	listener net.Listener
	server   *http.Server
	stopOnce sync.Once
}

// NewServer binds listenAddr and returns a Server ready to be started.
func NewServer(listenAddr string) (*Server, error) {
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed listening for metrics on %s", listenAddr)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{
		listener: listener,
		server: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
	}, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start serves metrics in the background.
func (s *Server) Start() {
	log.Infof("Metrics exporter started on %s/metrics", s.listener.Addr())
	spawn("metrics.Server.Start", func() {
		err := s.server.Serve(s.listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server stopped: %s", err)
		}
	})
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		err = s.server.Close()
	})
	return err
}
