package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// DefaultShutdownTimeout bounds how long Stop waits for open requests.
const DefaultShutdownTimeout = 5 * time.Second

// HTTPService serves handler on addr until stopped.
type HTTPService struct {
	srv    *http.Server
	logger *zap.Logger
	ready  chan net.Addr
}

// NewHTTPService returns a Service that serves handler on addr.
//
// Precondition: handler and logger must be non-nil.
func NewHTTPService(addr string, handler http.Handler, logger *zap.Logger) *HTTPService {
	if handler == nil {
		panic("server.NewHTTPService: handler must not be nil")
	}
	if logger == nil {
		panic("server.NewHTTPService: logger must not be nil")
	}
	return &HTTPService{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
		ready:  make(chan net.Addr, 1),
	}
}

// Ready delivers the bound address once the listener is open.
func (h *HTTPService) Ready() <-chan net.Addr { return h.ready }

// Start listens and serves. A graceful Stop makes it return nil.
func (h *HTTPService) Start(_ context.Context) error {
	ln, err := net.Listen("tcp", h.srv.Addr)
	if err != nil {
		return err
	}
	h.logger.Info("http listening", zap.String("addr", ln.Addr().String()))
	h.ready <- ln.Addr()
	if err := h.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting up to DefaultShutdownTimeout.
func (h *HTTPService) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := h.srv.Shutdown(ctx); err != nil {
		h.logger.Warn("http shutdown", zap.Error(err))
	}
}
