package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/tictactoe-series/transport/session"
	"github.com/rocketscienceinc/tictactoe-series/web"
)

type Server struct {
	logger *slog.Logger

	handlers Handlers
	socket   http.Handler
}

// New builds the HTTP server. socket is mounted on /ws when not nil.
func New(logger *slog.Logger, series uSeries, socket http.Handler) *Server {
	return &Server{
		logger:   logger.With("component", "rest"),
		handlers: NewHandlers(logger, series),
		socket:   socket,
	}
}

func (that *Server) Router() http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(that.logger))
	router.Use(middleware.Recoverer)

	router.Get("/ping", PingHandler)

	router.Group(func(r chi.Router) {
		r.Use(session.Middleware(that.logger))

		r.Get("/", indexHandler)
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(web.StaticFS())))

		r.Route("/api", func(r chi.Router) {
			r.Get("/series", that.handlers.GetSeries)
			r.Delete("/series", that.handlers.ResetSeries)
			r.Put("/series/setup", that.handlers.SetupSeries)
			r.Post("/series/start", that.handlers.StartSeries)
			r.Post("/series/move", that.handlers.Move)
			r.Post("/series/next", that.handlers.NextRound)
			r.Post("/series/ack", that.handlers.Acknowledge)

			r.Get("/results", that.handlers.Results)
		})

		if that.socket != nil {
			r.Handle("/ws", that.socket)
		}
	})

	return router
}

// Start serves until ctx is canceled, then shuts down within shutdownTimeout.
func (that *Server) Start(ctx context.Context, port string, shutdownTimeout time.Duration) error {
	log := that.logger.With("method", "Start")

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
			started := time.Now()
			ww := middleware.NewWrapResponseWriter(writer, req.ProtoMajor)

			next.ServeHTTP(ww, req)

			logger.Debug("request served",
				"requestID", middleware.GetReqID(req.Context()),
				"method", req.Method,
				"path", req.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(started),
			)
		})
	}
}
