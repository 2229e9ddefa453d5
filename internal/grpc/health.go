// Package grpc exposes the storefront's gRPC endpoint: the standard health service, reporting
// whether the entity store is reachable, plus server reflection.
package grpc

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "storefront"

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthChecker struct {
	health   *health.Server
	store    Pinger
	interval time.Duration
	log      logrus.FieldLogger
}

func NewHealthChecker(store Pinger, interval time.Duration, log logrus.FieldLogger) *HealthChecker {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthChecker{health: h, store: store, interval: interval, log: log}
}

// Run pings the store every interval until ctx ends, then reports NOT_SERVING for good.
func (c *HealthChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.check(ctx)
	for {
		select {
		case <-ctx.Done():
			c.health.Shutdown()
			return
		case <-ticker.C:
			c.check(ctx)
		}
	}
}

func (c *HealthChecker) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, c.interval)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := c.store.Ping(ctx); err != nil {
		c.log.WithError(err).Warn("store ping failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.health.SetServingStatus("", status)
	c.health.SetServingStatus(ServiceName, status)
}

func NewServer(checker *HealthChecker) *grpc.Server {
	srv := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthpb.RegisterHealthServer(srv, checker.health)

	// Enable reflection for grpcurl/grpcui
	reflection.Register(srv)
	return srv
}
