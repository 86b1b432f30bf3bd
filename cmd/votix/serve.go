package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/salahayoub/votix/pkg/election"
	"github.com/salahayoub/votix/pkg/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

const (
	// shutdownTimeout bounds how long in-flight HTTP requests may take to finish.
	shutdownTimeout = 5 * time.Second
)

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll the election and serve /status over HTTP with a gRPC health check",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&c.flags.HTTPAddr, "http-addr", "", "HTTP listen address (VOTIX_HTTP_ADDR)")
	cmd.Flags().StringVar(&c.flags.GRPCAddr, "grpc-addr", "", "gRPC health listen address (VOTIX_GRPC_ADDR)")
	return cmd
}

func (c *cli) serve(ctx context.Context) error {
	rt, release, err := c.wire(ctx, false)
	if err != nil {
		return err
	}
	defer release()

	stopPollers := rt.Start(ctx)
	defer stopPollers()

	srv, err := NewServer(c.cfg.HTTPAddr, c.cfg.GRPCAddr, rt.vm, c.cfg.RefreshInterval)
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}

// Server exposes the election status over HTTP and its health over gRPC.
type Server struct {
	httpListener net.Listener
	grpcListener net.Listener
	httpServer   *http.Server
	grpcServer   *grpc.Server
	health       *health.Server
	monitor      *Monitor
	log          logrus.FieldLogger
}

// NewServer listens on both addresses. Nothing is served until Serve.
func NewServer(httpAddr, grpcAddr string, vm *election.ViewModel, interval time.Duration) (*Server, error) {
	httpListener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", httpAddr, err)
	}
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		_ = httpListener.Close()
		return nil, fmt.Errorf("listen on %s: %w", grpcAddr, err)
	}

	log := logging.Log.WithField("component", "server")
	healthServer := health.NewServer()
	monitor := NewMonitor(vm, healthServer, interval, logging.Log)

	mux := http.NewServeMux()
	mux.Handle("/status", NewStatusHandler(vm, monitor))

	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	return &Server{
		httpListener: httpListener,
		grpcListener: grpcListener,
		httpServer:   &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		grpcServer:   grpcServer,
		health:       healthServer,
		monitor:      monitor,
		log:          log,
	}, nil
}

// HTTPAddr returns the HTTP listener address.
func (s *Server) HTTPAddr() string {
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the gRPC listener address.
func (s *Server) GRPCAddr() string {
	return s.grpcListener.Addr().String()
}

// Serve runs the monitor and both listeners until ctx is cancelled or a
// listener fails, then shuts everything down.
func (s *Server) Serve(ctx context.Context) error {
	serveErr := make(chan error, 2)

	go func() {
		s.log.WithField("addr", s.HTTPAddr()).Info("starting HTTP server")
		if err := s.httpServer.Serve(s.httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve HTTP: %w", err)
		}
	}()
	go func() {
		s.log.WithField("addr", s.GRPCAddr()).Info("starting gRPC health server")
		if err := s.grpcServer.Serve(s.grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErr <- fmt.Errorf("serve gRPC: %w", err)
		}
	}()

	monCtx, stopMonitor := context.WithCancel(ctx)
	monDone := make(chan struct{})
	go func() {
		defer close(monDone)
		_ = s.monitor.Run(monCtx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		s.log.Info("received shutdown signal, initiating graceful shutdown...")
	case runErr = <-serveErr:
		s.log.WithError(runErr).Error("listener failed, shutting down")
	}

	stopMonitor()
	<-monDone
	return errors.Join(runErr, s.shutdown())
}

// shutdown performs an orderly shutdown: HTTP first so no new status requests
// arrive, then health, then gRPC.
func (s *Server) shutdown() error {
	var errs []error

	// 1. Stop accepting new HTTP requests
	s.log.Info("stopping HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.WithError(err).Error("error shutting down HTTP server")
		errs = append(errs, err)
	} else {
		s.log.Info("HTTP server stopped")
	}

	// 2. Report NOT_SERVING to health watchers and stop gRPC
	s.log.Info("stopping gRPC health server...")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	s.log.Info("gRPC health server stopped")

	if len(errs) == 0 {
		s.log.Info("graceful shutdown completed successfully")
	} else {
		s.log.Warn("graceful shutdown completed with errors")
	}
	return errors.Join(errs...)
}
