package service

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the default Prometheus registry
type MetricsServer struct {
	lis listener
}

func (m *MetricsServer) Start(ctx context.Context, addr string) error {
	hdlr := http.NewServeMux()
	hdlr.Handle("/metrics", promhttp.Handler())
	return m.lis.serve(ctx, &http.Server{
		Handler: hdlr,
		Addr:    addr,
	})
}

func (m *MetricsServer) Shutdown() error {
	return m.lis.shutdown()
}
