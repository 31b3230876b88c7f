package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"total-comp/utils"
)

// HTTPServer assembles the router, middleware and metrics endpoint.
type HTTPServer struct {
	dashboard   *Dashboard
	metricsPath string
	logger      *utils.Logger
}

func NewHTTPServer(dashboard *Dashboard, metricsPath string, logger *utils.Logger) *HTTPServer {
	return &HTTPServer{dashboard: dashboard, metricsPath: metricsPath, logger: logger}
}

func (s *HTTPServer) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(WithLogger(s.logger))
	s.dashboard.Register(r)
	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}
	return r
}

func (s *HTTPServer) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context, addr string) error {
	errLog := s.logger.Writer()
	defer errLog.Close()

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          log.New(errLog, "", 0),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[http] Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("[http] Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
