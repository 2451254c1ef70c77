// Package webhook exposes the bot over HTTP: a JSON message endpoint, a
// websocket chat stream and a health check.
package webhook

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"taskbot/internal/bot"
	"taskbot/internal/logging"
)

// MessageHandler answers one chat message. *bot.Handler implements it.
type MessageHandler interface {
	Handle(ctx context.Context, msg bot.Message) bot.Reply
}

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options configures the HTTP server.
type Options struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// AllowedOrigins enables CORS and websocket access for browser clients.
	AllowedOrigins []string
	Logger         *slog.Logger
}

// Server routes HTTP requests to the bot.
type Server struct {
	handler MessageHandler
	store   Pinger
	opts    Options
	logger  *slog.Logger
	router  *mux.Router
}

// NewServer builds the router. store may be nil, in which case /healthz
// always reports ok.
func NewServer(handler MessageHandler, store Pinger, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 15 * time.Second
	}

	s := &Server{
		handler: handler,
		store:   store,
		opts:    opts,
		logger:  logging.OrDiscard(opts.Logger),
		router:  mux.NewRouter(),
	}

	s.router.HandleFunc("/v1/messages", s.handleMessage).Methods(http.MethodPost)
	s.router.HandleFunc("/v1/ws", s.handleWebSocket).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	return s
}

// Handler returns the root handler, CORS-wrapped when origins are configured.
func (s *Server) Handler() http.Handler {
	if len(s.opts.AllowedOrigins) == 0 {
		return s.router
	}
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("webhook listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down webhook")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
