package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"tokeisrv/internal/platform/logger"

	"github.com/go-chi/chi/v5"
)

// DefaultDrainTimeout bounds graceful shutdown when Run's context ends
const DefaultDrainTimeout = 15 * time.Second

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	addr  string
	mux   *chi.Mux
	srv   *stdhttp.Server
	drain time.Duration
	bound chan string
}

// NewServer creates a server listening on addr (host:port)
// opts receive the *chi.Mux so callers can mount routes/mw
func NewServer(addr string, opts ...func(*chi.Mux)) *Server {
	m := chi.NewRouter()
	for _, o := range opts {
		o(m)
	}
	return &Server{
		addr:  addr,
		mux:   m,
		drain: DefaultDrainTimeout,
		bound: make(chan string, 1),
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// WithDrainTimeout overrides the graceful shutdown budget
func (s *Server) WithDrainTimeout(d time.Duration) *Server {
	if d > 0 {
		s.drain = d
	}
	return s
}

// Router returns a Router facade over the internal chi mux
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the configured listening address
func (s *Server) Addr() string { return s.addr }

// Bound yields the actual listener address once Run is listening (useful with port 0)
func (s *Server) Bound() <-chan string { return s.bound }

// Run listens and serves until ctx ends, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("http")

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.bound <- ln.Addr().String()
	log.Info().Str("addr", ln.Addr().String()).Msg("http listening")

	served := make(chan error, 1)
	go func() { served <- s.srv.Serve(ln) }()

	select {
	case err := <-served:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Dur("drain", s.drain).Msg("http shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), s.drain)
	defer cancel()
	if err := s.srv.Shutdown(sctx); err != nil {
		return err
	}
	<-served
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }
