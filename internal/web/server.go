// Package web serves a read-only review API over the address normalization
// cache.
package web

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bpmigrate/internal/cache"
	"github.com/bpmigrate/internal/logging"
	"github.com/bpmigrate/internal/web/handlers"
	"github.com/bpmigrate/internal/web/middleware"
)

type Server struct {
	config     Config
	store      cache.Store
	log        *zap.Logger
	httpServer *http.Server
	router     *mux.Router
}

func NewServer(config Config, store cache.Store, log *zap.Logger) *Server {
	s := &Server{
		config: config,
		store:  store,
		log:    logging.OrNop(log),
	}
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Handler:      s.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	addresses := &handlers.AddressesHandler{Store: s.store, Log: s.log}

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/addresses", addresses.ListAddresses).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/addresses/{id}", addresses.GetAddress).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/countries", addresses.Countries).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/stats", addresses.GetStats).Methods(http.MethodGet, http.MethodOptions)
	api.Use(middleware.Authentication(s.config.APIKey))

	s.router.HandleFunc("/healthz", handlers.Health).Methods(http.MethodGet)

	s.router.Use(middleware.CORS())
	s.router.Use(middleware.RequestLogging(s.log))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return eris.Wrapf(err, "web: listen on %s", s.httpServer.Addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("review API listening", zap.String("addr", ln.Addr().String()))
		errc <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return eris.Wrap(err, "web: serve")
	case <-ctx.Done():
	}

	s.log.Info("shutting down review API")
	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig("", 0).ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "web: shutdown")
	}
	<-errc
	s.log.Info("review API stopped")
	return nil
}
