package broadcaster

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/xythum/darkpool-relayer/pkg/logger"
)

// Server exposes the hub on its own port
type Server struct {
	srv    *http.Server
	logger logger.Logger
}

func NewServer(port string, hub *Hub, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           hub,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

// Start serves until ctx is done, then shuts the listener down
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Notice("Event websocket listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
