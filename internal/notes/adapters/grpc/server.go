// Package grpc содержит gRPC сервер сервиса заметок со службой health.
package grpc

import (
	"context"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"notekeeper/pkg/logger"
)

// ServiceName - имя службы в ответах health.
const ServiceName = "notekeeper.notes"

// Константы сообщений логгера.
const (
	LogServerStarted  = "gRPC server started"
	LogServerStopping = "stopping gRPC server"
	ErrListen         = "failed to listen"
	ErrServe          = "failed to serve gRPC"
)

// Server представляет gRPC сервер.
type Server struct {
	server  *grpc.Server
	health  *health.Server
	address string

	mu       sync.Mutex
	listener net.Listener
}

// New создает новый экземпляр gRPC сервера на address.
// Службы health и reflection регистрируются сразу.
func New(address string) *Server {
	srv := grpc.NewServer()
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	return &Server{
		server:  srv,
		health:  hs,
		address: address,
	}
}

// Start открывает порт, объявляет службу SERVING и обслуживает запросы в фоне.
func (s *Server) Start(ctx context.Context) error {
	log := logger.Log(ctx)

	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		log.Error(ctx, ErrListen, zap.String("address", s.address), zap.Error(err))
		return fmt.Errorf("%s: %w", ErrListen, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	log.Info(ctx, LogServerStarted, zap.String("address", listener.Addr().String()))

	go func() {
		if err := s.server.Serve(listener); err != nil {
			log.Error(ctx, ErrServe, zap.Error(err))
		}
	}()

	return nil
}

// Addr возвращает фактический адрес после Start, иначе настроенный.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.address
}

// Stop переводит службу в NOT_SERVING и корректно останавливает сервер.
// Если ctx истекает раньше, соединения закрываются принудительно.
func (s *Server) Stop(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogServerStopping)

	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.server.Stop()
		return ctx.Err()
	}
}
