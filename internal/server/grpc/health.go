// Package grpcserver runs the gRPC health listener polled by orchestrators.
package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "storefront"

// DefaultProbeInterval is how often the database is re-checked while serving.
const DefaultProbeInterval = 10 * time.Second

// Pinger is satisfied by *postgres.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health serves grpc.health.v1 and mirrors database reachability into it.
type Health struct {
	srv      *grpc.Server
	hs       *health.Server
	db       Pinger
	log      *zap.Logger
	interval time.Duration
}

// HealthOption configures Health.
type HealthOption func(*Health)

// WithProbeInterval overrides DefaultProbeInterval.
func WithProbeInterval(d time.Duration) HealthOption {
	return func(h *Health) { h.interval = d }
}

// WithReflection registers server reflection. Meant for development.
func WithReflection() HealthOption {
	return func(h *Health) { reflection.Register(h.srv) }
}

// NewHealth builds the server. Status starts NOT_SERVING until the first probe.
func NewHealth(db Pinger, log *zap.Logger, opts ...HealthOption) *Health {
	h := &Health{
		srv: grpc.NewServer(
			grpc.ChainUnaryInterceptor(
				RecoverUnary(log),
				LoggingUnary(log),
			),
		),
		hs:       health.NewServer(),
		db:       db,
		log:      log,
		interval: DefaultProbeInterval,
	}
	healthpb.RegisterHealthServer(h.srv, h.hs)
	for _, o := range opts {
		o(h)
	}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *Health) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.hs.SetServingStatus("", st)
	h.hs.SetServingStatus(ServiceName, st)
}

// Probe pings the database and publishes the result.
func (h *Health) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		h.log.Warn("health probe failed", zap.Error(err))
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	h.set(healthpb.HealthCheckResponse_SERVING)
	return true
}

// Serve probes once, keeps probing until ctx ends and serves on lis until Stop.
func (h *Health) Serve(ctx context.Context, lis net.Listener) error {
	h.Probe(ctx)
	go func() {
		t := time.NewTicker(h.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				h.Probe(ctx)
			}
		}
	}()
	return h.srv.Serve(lis)
}

// Stop reports NOT_SERVING to watchers, then drains. Streams still open after
// timeout are cut.
func (h *Health) Stop(timeout time.Duration) {
	h.hs.Shutdown()

	done := make(chan struct{})
	go func() {
		h.srv.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		h.srv.Stop()
	}
}
