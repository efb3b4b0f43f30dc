package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// Run serves HTTP until ctx is canceled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	httpServer := s.newHTTPServer()
	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.displayServerInfo()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server",
			"address", httpServer.Addr,
			"tls_enabled", httpServer.TLSConfig != nil)

		var err error
		if httpServer.TLSConfig != nil {
			// certificates are already in TLSConfig
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		s.Close()
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("Received shutdown signal, starting graceful shutdown")
		return s.performGracefulShutdown(httpServer)
	}
}

// newHTTPServer creates the http.Server around the router
func (s *Server) newHTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.Config.Address(),
		Handler:      s,
		ReadTimeout:  s.Config.ReadTimeout,
		WriteTimeout: s.Config.WriteTimeout,
		IdleTimeout:  s.Config.IdleTimeout,
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	timeout := s.Config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	defer s.Close()

	s.logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.logger.Info("Server shutdown completed successfully")
	return nil
}
